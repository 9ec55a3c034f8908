package model

import "github.com/google/uuid"

// StockStatus classifies a count against its low-stock threshold.
type StockStatus string

const (
	InStock    StockStatus = "in_stock"
	LowStock   StockStatus = "low_stock"
	OutOfStock StockStatus = "out_of_stock"
)

// Classify maps a count onto a status: out at <= 0, low up to and including
// the threshold, in stock above it.
func Classify(count, threshold int) StockStatus {
	switch {
	case count <= 0:
		return OutOfStock
	case count <= threshold:
		return LowStock
	default:
		return InStock
	}
}

// Status classifies the variant against its own threshold.
func (v *Variant) Status() StockStatus {
	return Classify(v.InventoryCount, v.LowStockThreshold)
}

// StockCheckRequest asks for a quantity of one variant. It is never persisted.
type StockCheckRequest struct {
	ProductID         uuid.UUID `json:"product_id" validate:"uuid_required"`
	Color             string    `json:"color" validate:"required"`
	Size              string    `json:"size" validate:"required"`
	RequestedQuantity int       `json:"requested_quantity" validate:"gt=0"`
}

// Key returns the stock report key of the requested variant.
func (r StockCheckRequest) Key() string {
	return VariantKey(r.ProductID, r.Color, r.Size)
}

// VariantWithStatus is the display form of a variant.
type VariantWithStatus struct {
	Variant
	Status       StockStatus `json:"status"`
	IsLowStock   bool        `json:"is_low_stock"`
	IsOutOfStock bool        `json:"is_out_of_stock"`
}

// WithStatus decorates v with its classification.
func (v Variant) WithStatus() VariantWithStatus {
	status := v.Status()
	return VariantWithStatus{
		Variant:      v,
		Status:       status,
		IsLowStock:   status == LowStock,
		IsOutOfStock: status == OutOfStock,
	}
}
