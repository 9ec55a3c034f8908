package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-variant-inventory/internal/model"
	"go-variant-inventory/internal/repository"
	"go-variant-inventory/pkg/logger"
	"go-variant-inventory/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateVariantsRequest provisions every color × size combination of a product.
// InventoryByKey seeds counts by "{color}-{size}"; missing keys start at 0.
// SKUByKey overrides the derived SKU for the same keys.
type CreateVariantsRequest struct {
	ProductID        uuid.UUID         `json:"product_id" validate:"uuid_required"`
	Colors           []string          `json:"colors" validate:"required,min=1,dive,required"`
	Sizes            []string          `json:"sizes" validate:"required,min=1,dive,required"`
	InventoryByKey   map[string]int    `json:"inventory_by_key"`
	SKUByKey         map[string]string `json:"sku_by_key"`
	DefaultThreshold *int              `json:"default_threshold" validate:"omitempty,gte=0"`
}

type VariantService interface {
	CreateVariants(ctx context.Context, req CreateVariantsRequest, actor string) ([]model.Variant, error)
	ListVariants(ctx context.Context, productID uuid.UUID, activeOnly bool) ([]model.Variant, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, actor string) (*model.Variant, error)
}

type variantService struct {
	productRepo      repository.ProductRepository
	variantRepo      repository.VariantRepository
	notifier         Notifier
	db               *gorm.DB
	defaultThreshold int
}

func NewVariantService(pRepo repository.ProductRepository, vRepo repository.VariantRepository, notifier Notifier, db *gorm.DB, defaultThreshold int) VariantService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if defaultThreshold < 0 {
		defaultThreshold = model.DefaultLowStockThreshold
	}
	return &variantService{
		productRepo:      pRepo,
		variantRepo:      vRepo,
		notifier:         notifier,
		db:               db,
		defaultThreshold: defaultThreshold,
	}
}

func (s *variantService) CreateVariants(ctx context.Context, req CreateVariantsRequest, actor string) ([]model.Variant, error) {
	req.Colors = uniqueTrimmed(req.Colors)
	req.Sizes = uniqueTrimmed(req.Sizes)
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, invalidf("%s", validator.Message(errs))
	}
	for key, qty := range req.InventoryByKey {
		if qty < 0 {
			return nil, invalidf("initial inventory for %q must not be negative", key)
		}
	}

	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		return nil, persistence(err)
	}

	existing, err := s.variantRepo.ListByProduct(ctx, req.ProductID, false)
	if err != nil {
		return nil, persistence(err)
	}
	taken := make(map[string]bool, len(existing))
	for _, v := range existing {
		taken[model.SeedKey(v.Color, v.Size)] = true
	}

	threshold := s.defaultThreshold
	if req.DefaultThreshold != nil {
		threshold = *req.DefaultThreshold
	}

	variants := make([]model.Variant, 0, len(req.Colors)*len(req.Sizes))
	for _, color := range req.Colors {
		for _, size := range req.Sizes {
			seedKey := model.SeedKey(color, size)
			if taken[seedKey] {
				return nil, invalidf("variant %s/%s already exists for this product", color, size)
			}
			v := model.Variant{
				ProductID:         req.ProductID,
				Color:             color,
				Size:              size,
				SKU:               skuFor(req, color, size),
				InventoryCount:    req.InventoryByKey[seedKey],
				LowStockThreshold: threshold,
				IsActive:          true,
			}
			v.CreatedBy = actor
			v.UpdatedBy = actor
			variants = append(variants, v)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.variantRepo.CreateBatch(tx, variants)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, invalidf("one or more variants already exist for this product")
	}
	if err != nil {
		return nil, persistence(err)
	}

	publishByProduct(s.notifier, "variants_created", actor,
		fmt.Sprintf("%s created %d variants", actor, len(variants)), variants)
	logger.WithCtx(ctx).Info("variants provisioned", "product_id", req.ProductID, "count", len(variants))
	return variants, nil
}

func skuFor(req CreateVariantsRequest, color, size string) string {
	if sku := strings.TrimSpace(req.SKUByKey[model.SeedKey(color, size)]); sku != "" {
		return sku
	}
	return model.BuildSKU(req.ProductID, color, size)
}

func (s *variantService) ListVariants(ctx context.Context, productID uuid.UUID, activeOnly bool) ([]model.Variant, error) {
	if productID == uuid.Nil {
		return nil, invalidf("product_id is required")
	}
	variants, err := s.variantRepo.ListByProduct(ctx, productID, activeOnly)
	return variants, persistence(err)
}

func (s *variantService) SetActive(ctx context.Context, id uuid.UUID, active bool, actor string) (*model.Variant, error) {
	v, err := s.variantRepo.SetActive(ctx, id, active, actor)
	if err != nil {
		return nil, persistence(err)
	}
	action := "variant_deactivated"
	if active {
		action = "variant_activated"
	}
	publishByProduct(s.notifier, action, actor, "", []model.Variant{*v})
	return v, nil
}

// uniqueTrimmed trims entries and drops repeats, keeping order. Blank entries
// are kept so validation can reject them.
func uniqueTrimmed(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
