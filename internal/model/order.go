package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
)

// Order is the minimal order record the checkout flow persists once stock
// has been reserved.
type Order struct {
	BaseModel
	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes  string      `gorm:"type:text" json:"notes,omitempty"`
	Items  []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

type OrderItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID       uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null" json:"product_id" validate:"uuid_required"`
	SelectedColor string    `gorm:"type:varchar(100)" json:"selected_color"`
	SelectedSize  string    `gorm:"type:varchar(100)" json:"selected_size"`
	Quantity      int       `gorm:"not null" json:"quantity" validate:"gt=0"`
}

// TracksVariant reports whether the item names a color/size combination.
func (i *OrderItem) TracksVariant() bool {
	return i.SelectedColor != "" && i.SelectedSize != ""
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
