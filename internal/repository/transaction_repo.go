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

type TransactionRepository interface {
	Append(ctx context.Context, entries ...model.InventoryTransaction) error
	FindAll(ctx context.Context, filter TransactionFilter) ([]model.InventoryTransaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryTransaction, error)
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

// TransactionFilter narrows FindAll. Zero values mean "any".
type TransactionFilter struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Type      model.TransactionType
	Limit     int
}

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// DashboardStats untuk overview stats
type DashboardStats struct {
	TotalProducts      int64 `json:"total_products"`
	ActiveVariants     int64 `json:"active_variants"`
	LowStockCount      int64 `json:"low_stock_count"`
	OutOfStockCount    int64 `json:"out_of_stock_count"`
	TotalUnitsInStock  int64 `json:"total_units_in_stock"`
	TransactionsLogged int64 `json:"transactions_logged"`
}

const defaultTransactionLimit = 100

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

// Append writes log entries. Entries carry their own IDs, so a retried append
// of an entry that already landed is a no-op.
func (r *transactionRepo) Append(ctx context.Context, entries ...model.InventoryTransaction) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&entries).Error
}

func (r *transactionRepo) FindAll(ctx context.Context, filter TransactionFilter) ([]model.InventoryTransaction, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryTransaction{})
	if filter.ProductID != uuid.Nil {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	if filter.VariantID != uuid.Nil {
		q = q.Where("variant_id = ?", filter.VariantID)
	}
	if filter.Type != "" {
		q = q.Where("transaction_type = ?", filter.Type)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultTransactionLimit
	}

	var transactions []model.InventoryTransaction
	err := q.Order("created_at DESC").Limit(limit).Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryTransaction, error) {
	var transaction model.InventoryTransaction
	if err := r.db.WithContext(ctx).First(&transaction, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	// Query untuk aggregate transactions per hari
	rows, err := r.db.WithContext(ctx).Model(&model.InventoryTransaction{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN quantity_change > 0 THEN quantity_change ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN quantity_change < 0 THEN -quantity_change ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}

func (r *transactionRepo) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)
	active := db.Model(&model.Variant{}).Where("is_active = ?", true).Session(&gorm.Session{})

	steps := []*gorm.DB{
		db.Model(&model.Product{}).Count(&stats.TotalProducts),
		active.Count(&stats.ActiveVariants),
		active.Where("inventory_count > 0 AND inventory_count <= low_stock_threshold").Count(&stats.LowStockCount),
		active.Where("inventory_count <= 0").Count(&stats.OutOfStockCount),
		active.Select("COALESCE(SUM(inventory_count), 0)").Scan(&stats.TotalUnitsInStock),
		db.Model(&model.InventoryTransaction{}).Count(&stats.TransactionsLogged),
	}
	for _, step := range steps {
		if step.Error != nil {
			return nil, step.Error
		}
	}

	return &stats, nil
}
