package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxRestock    TransactionType = "restock"
	TxAdjustment TransactionType = "adjustment"
	TxReturn     TransactionType = "return"
	TxSale       TransactionType = "sale"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TxRestock, TxAdjustment, TxReturn, TxSale:
		return true
	}
	return false
}

// ErrImmutableTransaction is returned when something tries to rewrite the log.
var ErrImmutableTransaction = errors.New("inventory transactions are append-only")

// InventoryTransaction is one committed stock mutation. Variant fields are
// denormalized so the log can be queried without a join and outlives the variant.
type InventoryTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	VariantID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"variant_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Color           string          `gorm:"type:varchar(100)" json:"color"`
	Size            string          `gorm:"type:varchar(100)" json:"size"`
	OldQuantity     int             `gorm:"not null" json:"old_quantity"`
	NewQuantity     int             `gorm:"not null" json:"new_quantity"`
	QuantityChange  int             `gorm:"not null" json:"quantity_change"`
	TransactionType TransactionType `gorm:"type:varchar(20);not null;index" json:"transaction_type"`
	Notes           string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy       string          `gorm:"type:varchar(255)" json:"created_by"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
}

func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// BeforeCreate assigns the ID so retried writes of the same entry stay idempotent.
func (t *InventoryTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// BeforeUpdate rejects any rewrite of a committed entry.
func (t *InventoryTransaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableTransaction
}

// NewTransaction builds the log entry for a committed change on v.
// QuantityChange is the delta actually applied, which differs from the requested
// one when the count was clamped at zero.
func NewTransaction(v *Variant, oldQty, newQty int, txType TransactionType, notes, actor string) InventoryTransaction {
	return InventoryTransaction{
		ID:              uuid.New(),
		VariantID:       v.ID,
		ProductID:       v.ProductID,
		Color:           v.Color,
		Size:            v.Size,
		OldQuantity:     oldQty,
		NewQuantity:     newQty,
		QuantityChange:  newQty - oldQty,
		TransactionType: txType,
		Notes:           notes,
		CreatedBy:       actor,
		CreatedAt:       time.Now().UTC(),
	}
}
