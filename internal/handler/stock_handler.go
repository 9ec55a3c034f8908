package handler

import (
	"go-variant-inventory/internal/model"
	"go-variant-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type StockHandler struct {
	service service.StockService
}

func NewStockHandler(s service.StockService) *StockHandler {
	return &StockHandler{service: s}
}

// CheckStock reports whether every requested item is currently available.
// Nothing is reserved.
func (h *StockHandler) CheckStock(c *fiber.Ctx) error {
	var body struct {
		Items []model.StockCheckRequest `json:"items"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if len(body.Items) == 0 {
		return badRequest(c, "items must not be empty")
	}

	result, err := h.service.CheckStock(c.UserContext(), body.Items)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
