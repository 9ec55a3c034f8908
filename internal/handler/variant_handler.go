package handler

import (
	"context"

	"go-variant-inventory/internal/model"
	"go-variant-inventory/internal/service"
	"go-variant-inventory/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type VariantHandler struct {
	variants service.VariantService
	stock    service.StockService
	rollup   service.RollupService
}

func NewVariantHandler(v service.VariantService, s service.StockService, r service.RollupService) *VariantHandler {
	return &VariantHandler{variants: v, stock: s, rollup: r}
}

// variantSummary is the listing form of a variant without stock figures.
type variantSummary struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
	SKU       string    `json:"sku"`
	IsActive  bool      `json:"is_active"`
}

// CreateVariants provisions every color × size combination and switches the
// product to variant tracking.
func (h *VariantHandler) CreateVariants(c *fiber.Ctx) error {
	var req service.CreateVariantsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	actor := getActor(c)
	variants, err := h.variants.CreateVariants(c.UserContext(), req, actor)
	if err != nil {
		return respondError(c, err)
	}

	if _, err := h.rollup.EnableVariantTracking(c.UserContext(), req.ProductID, actor); err != nil {
		logger.WithCtx(c.UserContext()).Warn("failed to sync product after provisioning", "product_id", req.ProductID, "error", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"variants": variants})
}

// GetVariants lists a product's variants.
// Query params: product_id (required), includeStock, activeOnly
func (h *VariantHandler) GetVariants(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Query("product_id"))
	if err != nil {
		return badRequest(c, "Invalid product_id")
	}

	variants, err := h.variants.ListVariants(c.UserContext(), productID, c.QueryBool("activeOnly", false))
	if err != nil {
		return respondError(c, err)
	}

	if c.QueryBool("includeStock", false) {
		withStock := make([]model.VariantWithStatus, 0, len(variants))
		for _, v := range variants {
			withStock = append(withStock, v.WithStatus())
		}
		return c.JSON(fiber.Map{"variants": withStock})
	}

	summaries := make([]variantSummary, 0, len(variants))
	for _, v := range variants {
		summaries = append(summaries, variantSummary{
			ID:        v.ID,
			ProductID: v.ProductID,
			Color:     v.Color,
			Size:      v.Size,
			SKU:       v.SKU,
			IsActive:  v.IsActive,
		})
	}
	return c.JSON(fiber.Map{"variants": summaries})
}

// AdjustStock applies a signed change to one variant.
func (h *VariantHandler) AdjustStock(c *fiber.Ctx) error {
	var req service.AdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	actor := getActor(c)
	variant, err := h.stock.Adjust(c.UserContext(), req, actor)
	if err != nil {
		return respondError(c, err)
	}

	syncProducts(c.UserContext(), h.rollup, actor, variant.ProductID)
	return c.JSON(fiber.Map{"variant": variant.WithStatus()})
}

func (h *VariantHandler) SetActive(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid variant ID")
	}

	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.BodyParser(&body); err != nil || body.IsActive == nil {
		return badRequest(c, "is_active is required")
	}

	actor := getActor(c)
	variant, err := h.variants.SetActive(c.UserContext(), id, *body.IsActive, actor)
	if err != nil {
		return respondError(c, err)
	}

	syncProducts(c.UserContext(), h.rollup, actor, variant.ProductID)
	return c.JSON(fiber.Map{"variant": variant.WithStatus()})
}

// GetProductStock returns the stock rollup of a product.
func (h *VariantHandler) GetProductStock(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}

	summary, err := h.rollup.ProductSummary(c.UserContext(), productID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// syncProducts refreshes the denormalized counts of the given products. The
// stock change has already committed, so failures are only logged.
func syncProducts(ctx context.Context, rollup service.RollupService, actor string, productIDs ...uuid.UUID) {
	seen := make(map[uuid.UUID]bool, len(productIDs))
	for _, id := range productIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := rollup.SyncProductCount(ctx, id, actor); err != nil {
			logger.WithCtx(ctx).Warn("failed to sync product count", "product_id", id, "error", err)
		}
	}
}
