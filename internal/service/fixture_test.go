package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-variant-inventory/internal/audit"
	"go-variant-inventory/internal/guard"
	"go-variant-inventory/internal/model"
	"go-variant-inventory/internal/repository"
	"go-variant-inventory/internal/testdb"
	"go-variant-inventory/internal/ws"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const actor = "tester"

type recordingNotifier struct {
	mu     sync.Mutex
	events []ws.StockEvent
}

func (n *recordingNotifier) Publish(event ws.StockEvent) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
}

func (n *recordingNotifier) actions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	variantRepo  repository.VariantRepository
	txRepo       repository.TransactionRepository
	orderRepo    repository.OrderRepository
	recorder     audit.Recorder
	notifier     *recordingNotifier
	stock        StockService
	reservations ReservationService
	variants     VariantService
	rollup       RollupService
	orders       OrderService
	inventory    InventoryService
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()

	db := testdb.Open(t)
	f := &fixture{
		db:          db,
		productRepo: repository.NewProductRepo(db),
		variantRepo: repository.NewVariantRepo(db),
		txRepo:      repository.NewTransactionRepo(db),
		orderRepo:   repository.NewOrderRepo(db),
		notifier:    &recordingNotifier{},
	}
	f.recorder = audit.NewInlineRecorder(f.txRepo, 1)
	f.stock = NewStockService(f.variantRepo, f.recorder, f.notifier, db, strict)
	f.reservations = NewReservationService(f.variantRepo, guard.NewMemoryGuard(time.Hour), f.recorder, f.notifier, db)
	f.variants = NewVariantService(f.productRepo, f.variantRepo, f.notifier, db, model.DefaultLowStockThreshold)
	f.rollup = NewRollupService(f.productRepo, f.variantRepo, db)
	f.orders = NewOrderService(f.orderRepo, f.variantRepo, f.reservations, f.recorder, f.notifier, db)
	f.inventory = NewInventoryService(f.productRepo, f.txRepo, model.DefaultLowStockThreshold)
	return f
}

func (f *fixture) product(t *testing.T) *model.Product {
	return testdb.SeedProduct(t, f.db, "Tee "+uuid.NewString()[:8], true)
}

func (f *fixture) variant(t *testing.T, productID uuid.UUID, color, size string, stock int) *model.Variant {
	return testdb.SeedVariant(t, f.db, productID, color, size, stock)
}

func (f *fixture) count(t *testing.T, productID uuid.UUID, color, size string) int {
	t.Helper()
	v, err := f.variantRepo.FindByKey(context.Background(), productID, color, size)
	require.NoError(t, err)
	return v.InventoryCount
}

func (f *fixture) logged(t *testing.T, productID uuid.UUID) []model.InventoryTransaction {
	t.Helper()
	entries, err := f.txRepo.FindAll(context.Background(), repository.TransactionFilter{ProductID: productID})
	require.NoError(t, err)
	return entries
}

func req(productID uuid.UUID, color, size string, qty int) model.StockCheckRequest {
	return model.StockCheckRequest{ProductID: productID, Color: color, Size: size, RequestedQuantity: qty}
}

// failingLog rejects every append.
type failingLog struct {
	repository.TransactionRepository
}

func (failingLog) Append(context.Context, ...model.InventoryTransaction) error {
	return errors.New("log table locked")
}

// withFailingLog rewires the stock mutators onto a log that never accepts a write.
func (f *fixture) withFailingLog() {
	f.recorder = audit.NewInlineRecorder(failingLog{}, 2)
	f.stock = NewStockService(f.variantRepo, f.recorder, f.notifier, f.db, false)
	f.reservations = NewReservationService(f.variantRepo, guard.NewMemoryGuard(time.Hour), f.recorder, f.notifier, f.db)
}
