package repository

import (
	"context"
	"errors"
	"fmt"

	"go-variant-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateStock(tx *gorm.DB, id uuid.UUID, newStock int, updatedBy string) error
	MarkTracksVariants(tx *gorm.DB, id uuid.UUID, updatedBy string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &product, nil
}

// Update writes the catalog fields. The count of a variant tracking product is
// derived, so it is left to UpdateStock.
func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	fields := map[string]interface{}{
		"name":                product.Name,
		"tracks_variants":     product.TracksVariants,
		"low_stock_threshold": product.LowStockThreshold,
		"updated_by":          product.UpdatedBy,
	}
	if !product.TracksVariants {
		fields["inventory_count"] = product.InventoryCount
	}
	result := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", product.ID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: product %s", ErrNotFound, product.ID)
	}
	return nil
}

// UpdateStock menerima *gorm.DB (tx) agar bisa berjalan dalam transaksi
func (r *productRepo) UpdateStock(tx *gorm.DB, id uuid.UUID, newStock int, updatedBy string) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"inventory_count": newStock,
			"updated_by":      updatedBy,
		}).Error
}

func (r *productRepo) MarkTracksVariants(tx *gorm.DB, id uuid.UUID, updatedBy string) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"tracks_variants": true,
			"updated_by":      updatedBy,
		}).Error
}

// Delete removes the product together with all of its variants in one transaction.
// The inventory log is kept.
func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&model.Variant{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Product{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil
	})
}
