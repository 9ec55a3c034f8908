package handler

import (
	"go-variant-inventory/internal/model"
	"go-variant-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orders service.OrderService
	rollup service.RollupService
}

func NewOrderHandler(o service.OrderService, r service.RollupService) *OrderHandler {
	return &OrderHandler{orders: o, rollup: r}
}

func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req service.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	actor := getActor(c)
	order, err := h.orders.CreateOrder(c.UserContext(), req, actor)
	if err != nil {
		return respondError(c, err)
	}

	syncProducts(c.UserContext(), h.rollup, actor, trackedProducts(order)...)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order": order})
}

func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	actor := getActor(c)
	order, err := h.orders.CancelOrder(c.UserContext(), id, actor)
	if err != nil {
		return respondError(c, err)
	}

	syncProducts(c.UserContext(), h.rollup, actor, trackedProducts(order)...)
	return c.JSON(fiber.Map{"order": order})
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	order, err := h.orders.GetOrder(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"order": order})
}

func trackedProducts(order *model.Order) []uuid.UUID {
	var ids []uuid.UUID
	for i := range order.Items {
		if order.Items[i].TracksVariant() {
			ids = append(ids, order.Items[i].ProductID)
		}
	}
	return ids
}
