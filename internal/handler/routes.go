package handler

import "github.com/gofiber/fiber/v2"

// Routes groups the handlers mounted under /api/v1.
type Routes struct {
	Inventory *InventoryHandler
	Variants  *VariantHandler
	Stock     *StockHandler
	Orders    *OrderHandler
	Dashboard *DashboardHandler
}

func (r Routes) Register(api fiber.Router) {
	// Dashboard Routes
	api.Get("/dashboard/stats", r.Dashboard.GetDashboardStats)
	api.Get("/dashboard/stock-movement", r.Dashboard.GetStockMovement)

	// Product Routes
	api.Get("/products", r.Inventory.GetProducts)
	api.Post("/products", r.Inventory.CreateProduct)
	api.Get("/products/:id", r.Inventory.GetProduct)
	api.Put("/products/:id", r.Inventory.UpdateProduct)
	api.Delete("/products/:id", r.Inventory.DeleteProduct)
	api.Get("/products/:id/stock", r.Variants.GetProductStock)

	// Variant Routes
	api.Post("/variants", r.Variants.CreateVariants)
	api.Get("/variants", r.Variants.GetVariants)
	api.Put("/variants", r.Variants.AdjustStock)
	api.Patch("/variants/:id/active", r.Variants.SetActive)

	api.Post("/stock/check", r.Stock.CheckStock)

	// Order Routes
	api.Post("/orders", r.Orders.CreateOrder)
	api.Get("/orders/:id", r.Orders.GetOrder)
	api.Post("/orders/:id/cancel", r.Orders.CancelOrder)

	// Inventory log
	api.Get("/inventory-transactions", r.Inventory.GetTransactions)
	api.Get("/inventory-transactions/:id", r.Inventory.GetTransaction)
}
