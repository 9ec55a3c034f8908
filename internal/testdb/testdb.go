// Package testdb opens a migrated in-memory SQLite database for tests.
package testdb

import (
	"fmt"
	"testing"

	"go-variant-inventory/internal/model"
	"go-variant-inventory/pkg/database"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh database private to t. It uses a single connection,
// the same way the service runs against SQLite, so concurrent callers queue
// instead of failing with SQLITE_BUSY.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// SeedProduct inserts a product and returns it.
func SeedProduct(t *testing.T, db *gorm.DB, name string, tracksVariants bool) *model.Product {
	t.Helper()

	p := &model.Product{Name: name, TracksVariants: tracksVariants, LowStockThreshold: model.DefaultLowStockThreshold}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return p
}

// SeedVariant inserts an active variant with the given stock.
func SeedVariant(t *testing.T, db *gorm.DB, productID uuid.UUID, color, size string, stock int) *model.Variant {
	t.Helper()

	v := &model.Variant{
		ProductID:         productID,
		Color:             color,
		Size:              size,
		SKU:               model.BuildSKU(productID, color, size),
		InventoryCount:    stock,
		LowStockThreshold: model.DefaultLowStockThreshold,
		IsActive:          true,
	}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("failed to seed variant: %v", err)
	}
	return v
}
