package service

import (
	"context"

	"go-variant-inventory/internal/model"
	"go-variant-inventory/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VariantRef names a color/size combination.
type VariantRef struct {
	Color string `json:"color"`
	Size  string `json:"size"`
}

// ProductStockSummary is the display rollup of one product.
type ProductStockSummary struct {
	ProductID          uuid.UUID                 `json:"product_id"`
	TracksVariants     bool                      `json:"tracks_variants"`
	TotalStock         int                       `json:"total_stock"`
	LowStockThreshold  int                       `json:"low_stock_threshold"`
	Status             model.StockStatus         `json:"status"`
	PartiallyAvailable bool                      `json:"partially_available"`
	Variants           []model.VariantWithStatus `json:"variants"`
	Unavailable        []VariantRef              `json:"unavailable_variants"`
}

type RollupService interface {
	TotalStock(ctx context.Context, productID uuid.UUID) (int, error)
	ProductSummary(ctx context.Context, productID uuid.UUID) (*ProductStockSummary, error)
	SyncProductCount(ctx context.Context, productID uuid.UUID, actor string) (int, error)
	EnableVariantTracking(ctx context.Context, productID uuid.UUID, actor string) (int, error)
}

type rollupService struct {
	productRepo repository.ProductRepository
	variantRepo repository.VariantRepository
	db          *gorm.DB
}

func NewRollupService(pRepo repository.ProductRepository, vRepo repository.VariantRepository, db *gorm.DB) RollupService {
	return &rollupService{productRepo: pRepo, variantRepo: vRepo, db: db}
}

// TotalStock sums active variants for variant-tracking products and falls back
// to the product's own count otherwise.
func (s *rollupService) TotalStock(ctx context.Context, productID uuid.UUID) (int, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return 0, persistence(err)
	}
	return s.total(ctx, product)
}

func (s *rollupService) total(ctx context.Context, product *model.Product) (int, error) {
	if !product.TracksVariants {
		return product.InventoryCount, nil
	}
	total, err := s.variantRepo.SumActive(ctx, product.ID)
	return total, persistence(err)
}

func (s *rollupService) ProductSummary(ctx context.Context, productID uuid.UUID) (*ProductStockSummary, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, persistence(err)
	}

	summary := &ProductStockSummary{
		ProductID:         product.ID,
		TracksVariants:    product.TracksVariants,
		LowStockThreshold: product.LowStockThreshold,
		Variants:          []model.VariantWithStatus{},
		Unavailable:       []VariantRef{},
	}
	if !product.TracksVariants {
		summary.TotalStock = product.InventoryCount
		summary.Status = model.Classify(product.InventoryCount, product.LowStockThreshold)
		return summary, nil
	}

	variants, err := s.variantRepo.ListByProduct(ctx, productID, false)
	if err != nil {
		return nil, persistence(err)
	}

	active, outOfStock := 0, 0
	for _, v := range variants {
		summary.Variants = append(summary.Variants, v.WithStatus())
		if !v.IsActive {
			summary.Unavailable = append(summary.Unavailable, VariantRef{Color: v.Color, Size: v.Size})
			continue
		}
		active++
		summary.TotalStock += v.InventoryCount
		if v.Status() == model.OutOfStock {
			outOfStock++
			summary.Unavailable = append(summary.Unavailable, VariantRef{Color: v.Color, Size: v.Size})
		}
	}

	switch {
	case active == 0 || outOfStock == active:
		summary.Status = model.OutOfStock
	case summary.TotalStock <= product.LowStockThreshold:
		summary.Status = model.LowStock
	default:
		summary.Status = model.InStock
	}
	summary.PartiallyAvailable = outOfStock > 0 && outOfStock < active
	return summary, nil
}

// SyncProductCount writes the variant rollup into the product's denormalized count.
func (s *rollupService) SyncProductCount(ctx context.Context, productID uuid.UUID, actor string) (int, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return 0, persistence(err)
	}
	if !product.TracksVariants {
		return product.InventoryCount, nil
	}

	total, err := s.total(ctx, product)
	if err != nil {
		return 0, err
	}
	if err := s.productRepo.UpdateStock(s.db.WithContext(ctx), productID, total, actor); err != nil {
		return 0, persistence(err)
	}
	return total, nil
}

// EnableVariantTracking marks the product as variant tracked and syncs its count.
func (s *rollupService) EnableVariantTracking(ctx context.Context, productID uuid.UUID, actor string) (int, error) {
	if err := s.productRepo.MarkTracksVariants(s.db.WithContext(ctx), productID, actor); err != nil {
		return 0, persistence(err)
	}
	return s.SyncProductCount(ctx, productID, actor)
}
