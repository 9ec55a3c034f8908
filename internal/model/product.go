package model

// DefaultLowStockThreshold applies when a product or variant is created without one.
const DefaultLowStockThreshold = 5

// Product is owned by the catalog. The inventory core only reads it, except for
// the denormalized InventoryCount, which the rollup keeps in sync for variant
// tracking products.
type Product struct {
	BaseModel
	Name              string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	TracksVariants    bool   `gorm:"default:false" json:"tracks_variants"`
	InventoryCount    int    `gorm:"default:0" json:"inventory_count" validate:"gte=0"`
	LowStockThreshold int    `gorm:"not null" json:"low_stock_threshold" validate:"gte=0"`

	Variants []Variant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty" validate:"-"`
}
