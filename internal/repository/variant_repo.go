package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-variant-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VariantRepository interface {
	CreateBatch(tx *gorm.DB, variants []model.Variant) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Variant, error)
	FindByKey(ctx context.Context, productID uuid.UUID, color, size string) (*model.Variant, error)
	FindByKeyForUpdate(tx *gorm.DB, productID uuid.UUID, color, size string) (*model.Variant, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, activeOnly bool) ([]model.Variant, error)
	ListByProductTx(tx *gorm.DB, productID uuid.UUID) ([]model.Variant, error)
	SumActive(ctx context.Context, productID uuid.UUID) (int, error)
	UpdateStock(tx *gorm.DB, id uuid.UUID, newStock int, updatedBy string) error
	DecrementIfEnough(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) (bool, error)
	Increment(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool, updatedBy string) (*model.Variant, error)
	Reload(tx *gorm.DB, id uuid.UUID) (*model.Variant, error)
}

type variantRepo struct {
	db *gorm.DB
}

func NewVariantRepo(db *gorm.DB) VariantRepository {
	return &variantRepo{db}
}

// CreateBatch inserts every variant in a single statement on tx.
func (r *variantRepo) CreateBatch(tx *gorm.DB, variants []model.Variant) error {
	if len(variants) == 0 {
		return nil
	}
	return tx.Create(&variants).Error
}

func (r *variantRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Variant, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

func (r *variantRepo) FindByKey(ctx context.Context, productID uuid.UUID, color, size string) (*model.Variant, error) {
	return r.first(r.db.WithContext(ctx), "product_id = ? AND color = ? AND size = ?", productID, color, size)
}

// FindByKeyForUpdate locks the row (SELECT ... FOR UPDATE) until tx ends.
func (r *variantRepo) FindByKeyForUpdate(tx *gorm.DB, productID uuid.UUID, color, size string) (*model.Variant, error) {
	return r.first(tx.Clauses(clause.Locking{Strength: "UPDATE"}), "product_id = ? AND color = ? AND size = ?", productID, color, size)
}

func (r *variantRepo) Reload(tx *gorm.DB, id uuid.UUID) (*model.Variant, error) {
	return r.first(tx, "id = ?", id)
}

func (r *variantRepo) first(q *gorm.DB, query string, args ...interface{}) (*model.Variant, error) {
	var variant model.Variant
	if err := q.Where(query, args...).First(&variant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: variant", ErrNotFound)
		}
		return nil, err
	}
	return &variant, nil
}

func (r *variantRepo) ListByProduct(ctx context.Context, productID uuid.UUID, activeOnly bool) ([]model.Variant, error) {
	q := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var variants []model.Variant
	err := q.Order("color ASC, size ASC").Find(&variants).Error
	return variants, err
}

func (r *variantRepo) ListByProductTx(tx *gorm.DB, productID uuid.UUID) ([]model.Variant, error) {
	var variants []model.Variant
	err := tx.Where("product_id = ?", productID).Find(&variants).Error
	return variants, err
}

func (r *variantRepo) SumActive(ctx context.Context, productID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Variant{}).
		Where("product_id = ? AND is_active = ?", productID, true).
		Select("COALESCE(SUM(inventory_count), 0)").
		Scan(&total).Error
	return int(total), err
}

func (r *variantRepo) UpdateStock(tx *gorm.DB, id uuid.UUID, newStock int, updatedBy string) error {
	return tx.Model(&model.Variant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"inventory_count": newStock,
			"updated_by":      updatedBy,
			"updated_at":      time.Now().UTC(),
		}).Error
}

// DecrementIfEnough subtracts qty only while the variant is active and holds at
// least qty units. The check and the write are one statement, so concurrent
// callers cannot both take the last unit. Returns false when nothing changed.
func (r *variantRepo) DecrementIfEnough(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	result := tx.Model(&model.Variant{}).
		Where("id = ? AND is_active = ? AND inventory_count >= ?", id, true, qty).
		Updates(map[string]interface{}{
			"inventory_count": gorm.Expr("inventory_count - ?", qty),
			"updated_by":      updatedBy,
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *variantRepo) Increment(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) error {
	if qty <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	result := tx.Model(&model.Variant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"inventory_count": gorm.Expr("inventory_count + ?", qty),
			"updated_by":      updatedBy,
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: variant %s", ErrNotFound, id)
	}
	return nil
}

func (r *variantRepo) SetActive(ctx context.Context, id uuid.UUID, active bool, updatedBy string) (*model.Variant, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&model.Variant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_by": updatedBy,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: variant %s", ErrNotFound, id)
	}
	return r.first(db, "id = ?", id)
}
