package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Variant is one color/size combination of a product with its own stock.
// (product_id, color, size) is the natural key and is unique in the store.
type Variant struct {
	BaseModel
	ProductID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_variant_natural_key,priority:1" json:"product_id"`
	Color             string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_variant_natural_key,priority:2" json:"color"`
	Size              string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_variant_natural_key,priority:3" json:"size"`
	SKU               string    `gorm:"type:varchar(255);not null;index" json:"sku"`
	InventoryCount    int       `gorm:"not null;default:0;check:chk_variant_inventory_nonneg,inventory_count >= 0" json:"inventory_count"`
	LowStockThreshold int       `gorm:"not null" json:"low_stock_threshold"`
	IsActive          bool      `gorm:"not null;default:true;index" json:"is_active"`
}

// TableName pins the collection name used by the rest of the platform.
func (Variant) TableName() string {
	return "product_variants"
}

// Key returns the "{product_id}-{color}-{size}" key used in stock reports.
func (v *Variant) Key() string {
	return VariantKey(v.ProductID, v.Color, v.Size)
}

// VariantKey formats the stock report key for a natural key.
func VariantKey(productID uuid.UUID, color, size string) string {
	return fmt.Sprintf("%s-%s-%s", productID, color, size)
}

// SeedKey formats the "{color}-{size}" key used for initial inventory seeding.
func SeedKey(color, size string) string {
	return color + "-" + size
}

// BuildSKU derives the default SKU: {product_id}-{COLOR}-{SIZE}.
func BuildSKU(productID uuid.UUID, color, size string) string {
	return fmt.Sprintf("%s-%s-%s", productID, strings.ToUpper(color), strings.ToUpper(size))
}
