package handler

import (
	"errors"

	"go-variant-inventory/internal/service"
	"go-variant-inventory/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ActorKey is the Locals key holding the caller's identity.
const ActorKey = "actor"

// getActor returns the caller set by middleware, or "system".
func getActor(c *fiber.Ctx) string {
	if actor, ok := c.Locals(ActorKey).(string); ok && actor != "" {
		return actor
	}
	return "system"
}

// Helper untuk parse UUID dari string
func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// respondError maps service errors onto status codes.
func respondError(c *fiber.Ctx, err error) error {
	var insufficient *service.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		stock := make(map[string]int, len(insufficient.Unavailable))
		for _, item := range insufficient.Unavailable {
			stock[item.Color+"-"+item.Size] = item.Available
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":                "Insufficient stock",
			"unavailable_variants": insufficient.Unavailable,
			"variant_stock":        stock,
		})
	case errors.Is(err, service.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateReservation):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		logger.WithCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
