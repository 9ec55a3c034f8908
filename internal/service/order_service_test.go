package service

import (
	"context"
	"errors"
	"testing"

	"go-variant-inventory/internal/model"
	"go-variant-inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingOrderRepo struct {
	repository.OrderRepository
}

func (failingOrderRepo) Create(context.Context, *model.Order) error {
	return errors.New("disk full")
}

func countOrders(t *testing.T, f *fixture) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func TestCreateOrder_ReservesVariantItems(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	p := f.product(t)
	f.variant(t, p.ID, "Red", "M", 5)
	plain := uuid.New()

	order, err := f.orders.CreateOrder(ctx, CreateOrderRequest{Items: []model.OrderItem{
		{ProductID: p.ID, SelectedColor: "Red", SelectedSize: "M", Quantity: 2},
		{ProductID: plain, Quantity: 1},
	}}, actor)
	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, order.Status)
	assert.Equal(t, 3, f.count(t, p.ID, "Red", "M"))

	stored, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)

	entries := f.logged(t, p.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, "order "+order.ID.String(), entries[0].Notes)
}

func TestCreateOrder_InsufficientStockStoresNothing(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t)
	f.variant(t, p.ID, "Red", "M", 1)

	_, err := f.orders.CreateOrder(context.Background(), CreateOrderRequest{Items: []model.OrderItem{
		{ProductID: p.ID, SelectedColor: "Red", SelectedSize: "M", Quantity: 2},
	}}, actor)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Zero(t, countOrders(t, f))
	assert.Equal(t, 1, f.count(t, p.ID, "Red", "M"))
}

func TestCreateOrder_CompensatesWhenOrderCannotBeStored(t *testing.T) {
	f := newFixture(t, false)
	p := f.product(t)
	f.variant(t, p.ID, "Red", "M", 4)
	orders := NewOrderService(failingOrderRepo{f.orderRepo}, f.variantRepo, f.reservations, f.recorder, f.notifier, f.db)

	_, err := orders.CreateOrder(context.Background(), CreateOrderRequest{Items: []model.OrderItem{
		{ProductID: p.ID, SelectedColor: "Red", SelectedSize: "M", Quantity: 3},
	}}, actor)

	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 4, f.count(t, p.ID, "Red", "M"), "reservation released")
	assert.Zero(t, countOrders(t, f))
	assert.Contains(t, f.notifier.actions(), "stock_released")
}

func TestCreateOrder_InvalidInput(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.orders.CreateOrder(context.Background(), CreateOrderRequest{}, actor)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.orders.CreateOrder(context.Background(), CreateOrderRequest{Items: []model.OrderItem{{ProductID: uuid.New(), Quantity: 0}}}, actor)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCancelOrder_ReturnsStock(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	p := f.product(t)
	f.variant(t, p.ID, "Red", "M", 5)

	order, err := f.orders.CreateOrder(ctx, CreateOrderRequest{Items: []model.OrderItem{
		{ProductID: p.ID, SelectedColor: "Red", SelectedSize: "M", Quantity: 2},
	}}, actor)
	require.NoError(t, err)

	cancelled, err := f.orders.CancelOrder(ctx, order.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, cancelled.Status)
	assert.Equal(t, 5, f.count(t, p.ID, "Red", "M"))

	returns, err := f.txRepo.FindAll(ctx, repository.TransactionFilter{ProductID: p.ID, Type: model.TxReturn})
	require.NoError(t, err)
	require.Len(t, returns, 1)
	assert.Equal(t, 2, returns[0].QuantityChange)

	_, err = f.orders.CancelOrder(ctx, order.ID, actor)
	assert.ErrorIs(t, err, ErrInvalidInput, "only confirmed orders can be cancelled")
	assert.Equal(t, 5, f.count(t, p.ID, "Red", "M"))

	_, err = f.orders.CancelOrder(ctx, uuid.New(), actor)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Every committed change is in the log and the log explains the current count.
func TestTransactionLogAccountsForEveryChange(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	p := f.product(t)
	f.variant(t, p.ID, "Red", "M", 10)

	_, err := f.stock.Adjust(ctx, AdjustRequest{ProductID: p.ID, Color: "Red", Size: "M", QuantityChange: 5, TransactionType: model.TxRestock}, actor)
	require.NoError(t, err)
	order, err := f.orders.CreateOrder(ctx, CreateOrderRequest{Items: []model.OrderItem{
		{ProductID: p.ID, SelectedColor: "Red", SelectedSize: "M", Quantity: 4},
	}}, actor)
	require.NoError(t, err)
	_, err = f.orders.CancelOrder(ctx, order.ID, actor)
	require.NoError(t, err)
	_, err = f.stock.Adjust(ctx, AdjustRequest{ProductID: p.ID, Color: "Red", Size: "M", QuantityChange: -30, TransactionType: model.TxAdjustment}, actor)
	require.NoError(t, err)

	entries := f.logged(t, p.ID)
	require.Len(t, entries, 4)
	var sum int
	for _, e := range entries {
		sum += e.QuantityChange
	}
	assert.Equal(t, f.count(t, p.ID, "Red", "M")-10, sum)
}
