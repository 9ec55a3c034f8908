package service

import (
	"go-variant-inventory/internal/model"
	"go-variant-inventory/internal/ws"

	"github.com/google/uuid"
)

// Notifier receives an event after every committed stock change.
// *ws.Hub implements it.
type Notifier interface {
	Publish(event ws.StockEvent)
}

// NopNotifier discards events. Used by the CLI and tests.
type NopNotifier struct{}

func (NopNotifier) Publish(ws.StockEvent) {}

// publishByProduct sends one event per product touched by variants.
func publishByProduct(n Notifier, action, actor, message string, variants []model.Variant) {
	if n == nil || len(variants) == 0 {
		return
	}
	var order []uuid.UUID
	grouped := make(map[uuid.UUID][]ws.VariantState)
	for _, v := range variants {
		if _, seen := grouped[v.ProductID]; !seen {
			order = append(order, v.ProductID)
		}
		grouped[v.ProductID] = append(grouped[v.ProductID], ws.VariantState{
			ID:             v.ID,
			Color:          v.Color,
			Size:           v.Size,
			InventoryCount: v.InventoryCount,
		})
	}
	for _, productID := range order {
		n.Publish(ws.StockEvent{
			Type:      "stock_update",
			Action:    action,
			ProductID: productID,
			Variants:  grouped[productID],
			Actor:     actor,
			Message:   message,
		})
	}
}
