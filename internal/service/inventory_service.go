package service

import (
	"context"
	"fmt"
	"strings"

	"go-variant-inventory/internal/model"
	"go-variant-inventory/internal/repository"
	"go-variant-inventory/pkg/logger"
	"go-variant-inventory/pkg/validator"

	"github.com/google/uuid"
)

// ProductRequest creates or updates a catalog product. InventoryCount only
// applies to products that do not track variants.
type ProductRequest struct {
	Name              string `json:"name" validate:"required"`
	TracksVariants    bool   `json:"tracks_variants"`
	InventoryCount    *int   `json:"inventory_count" validate:"omitempty,gte=0"`
	LowStockThreshold *int   `json:"low_stock_threshold" validate:"omitempty,gte=0"`
}

// InventoryService covers the product catalog and the read side of the
// inventory transaction log.
type InventoryService interface {
	CreateProduct(ctx context.Context, req ProductRequest, actor string) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req ProductRequest, actor string) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetAllTransactions(ctx context.Context, filter repository.TransactionFilter) ([]model.InventoryTransaction, error)
	GetTransactionByID(ctx context.Context, id uuid.UUID) (*model.InventoryTransaction, error)
}

type inventoryService struct {
	productRepo      repository.ProductRepository
	transactionRepo  repository.TransactionRepository
	defaultThreshold int
}

func NewInventoryService(pRepo repository.ProductRepository, tRepo repository.TransactionRepository, defaultThreshold int) InventoryService {
	if defaultThreshold < 0 {
		defaultThreshold = model.DefaultLowStockThreshold
	}
	return &inventoryService{
		productRepo:      pRepo,
		transactionRepo:  tRepo,
		defaultThreshold: defaultThreshold,
	}
}

func (s *inventoryService) CreateProduct(ctx context.Context, req ProductRequest, actor string) (*model.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, invalidf("%s", validator.Message(errs))
	}

	product := &model.Product{
		Name:              req.Name,
		TracksVariants:    req.TracksVariants,
		LowStockThreshold: s.defaultThreshold,
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = *req.LowStockThreshold
	}
	if req.InventoryCount != nil && !req.TracksVariants {
		product.InventoryCount = *req.InventoryCount
	}
	product.CreatedBy = actor
	product.UpdatedBy = actor

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, persistence(err)
	}
	logger.WithCtx(ctx).Info("product created", "product_id", product.ID, "name", product.Name)
	return product, nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, id uuid.UUID, req ProductRequest, actor string) (*model.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, invalidf("%s", validator.Message(errs))
	}

	existing, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, persistence(err)
	}
	if existing.TracksVariants && !req.TracksVariants {
		return nil, invalidf("product %s tracks variants; variant tracking cannot be switched off", id)
	}
	if req.InventoryCount != nil && (existing.TracksVariants || req.TracksVariants) {
		return nil, invalidf("inventory_count of a variant tracking product is derived from its variants")
	}

	existing.Name = req.Name
	existing.TracksVariants = req.TracksVariants
	if req.LowStockThreshold != nil {
		existing.LowStockThreshold = *req.LowStockThreshold
	}
	if req.InventoryCount != nil {
		existing.InventoryCount = *req.InventoryCount
	}
	existing.UpdatedBy = actor

	if err := s.productRepo.Update(ctx, existing); err != nil {
		return nil, persistence(err)
	}
	return existing, nil
}

// DeleteProduct removes the product and its variants. The transaction log is kept.
func (s *inventoryService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return persistence(err)
	}
	logger.WithCtx(ctx).Info("product deleted", "product_id", id)
	return nil
}

func (s *inventoryService) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	return products, persistence(err)
}

func (s *inventoryService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	return product, persistence(err)
}

func (s *inventoryService) GetAllTransactions(ctx context.Context, filter repository.TransactionFilter) ([]model.InventoryTransaction, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, invalidf("unknown transaction type %q", filter.Type)
	}
	transactions, err := s.transactionRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, persistence(fmt.Errorf("list transactions: %w", err))
	}
	return transactions, nil
}

func (s *inventoryService) GetTransactionByID(ctx context.Context, id uuid.UUID) (*model.InventoryTransaction, error) {
	transaction, err := s.transactionRepo.FindByID(ctx, id)
	return transaction, persistence(err)
}
