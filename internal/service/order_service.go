package service

import (
	"context"
	"errors"
	"fmt"

	"go-variant-inventory/internal/audit"
	"go-variant-inventory/internal/model"
	"go-variant-inventory/internal/repository"
	"go-variant-inventory/pkg/logger"
	"go-variant-inventory/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateOrderRequest is the checkout payload. Only items naming both a color
// and a size draw on variant stock.
type CreateOrderRequest struct {
	Items []model.OrderItem `json:"items" validate:"required,min=1,dive"`
	Notes string            `json:"notes"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest, actor string) (*model.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID, actor string) (*model.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	variantRepo  repository.VariantRepository
	reservations ReservationService
	recorder     audit.Recorder
	notifier     Notifier
	db           *gorm.DB
}

func NewOrderService(oRepo repository.OrderRepository, vRepo repository.VariantRepository, reservations ReservationService, recorder audit.Recorder, notifier Notifier, db *gorm.DB) OrderService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &orderService{
		orderRepo:    oRepo,
		variantRepo:  vRepo,
		reservations: reservations,
		recorder:     recorder,
		notifier:     notifier,
		db:           db,
	}
}

// CreateOrder reserves stock first and persists the order second. If the order
// cannot be stored the reservation is released, so stock and orders never drift apart.
func (s *orderService) CreateOrder(ctx context.Context, req CreateOrderRequest, actor string) (*model.Order, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, invalidf("%s", validator.Message(errs))
	}

	order := &model.Order{
		Status: model.OrderConfirmed,
		Notes:  req.Notes,
		Items:  make([]model.OrderItem, 0, len(req.Items)),
	}
	order.ID = uuid.New()
	order.CreatedBy = actor
	order.UpdatedBy = actor

	for _, item := range req.Items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID:     item.ProductID,
			SelectedColor: item.SelectedColor,
			SelectedSize:  item.SelectedSize,
			Quantity:      item.Quantity,
		})
	}
	tracked := variantRequests(order.Items)

	if len(tracked) > 0 {
		if err := s.reservations.Reserve(ctx, order.ID.String(), tracked, actor); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		log := logger.WithCtx(ctx)
		log.Error("order not stored, releasing reservation", "order_id", order.ID, "error", err)
		if len(tracked) > 0 {
			if rErr := s.reservations.Release(context.WithoutCancel(ctx), order.ID.String(), tracked, actor); rErr != nil {
				log.Error("failed to release reservation of unsaved order", "order_id", order.ID, "error", rErr)
			}
		}
		return nil, persistence(err)
	}

	logger.WithCtx(ctx).Info("order created", "order_id", order.ID, "items", len(order.Items))
	return order, nil
}

// CancelOrder flips a confirmed order to cancelled and returns its variant stock
// in the same transaction.
func (s *orderService) CancelOrder(ctx context.Context, id uuid.UUID, actor string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, persistence(err)
	}

	var (
		entries  []model.InventoryTransaction
		returned []model.Variant
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries, returned = nil, nil
		ok, err := s.orderRepo.TransitionStatus(tx, id, model.OrderConfirmed, model.OrderCancelled, actor)
		if err != nil {
			return err
		}
		if !ok {
			return invalidf("order %s is not confirmed", id)
		}

		for _, item := range order.Items {
			if !item.TracksVariant() {
				continue
			}
			v, entry, err := adjustLocked(tx, s.variantRepo, AdjustRequest{
				ProductID:       item.ProductID,
				Color:           item.SelectedColor,
				Size:            item.SelectedSize,
				QuantityChange:  item.Quantity,
				TransactionType: model.TxReturn,
				Notes:           fmt.Sprintf("cancellation of order %s", id),
			}, actor, false)
			if errors.Is(err, ErrNotFound) {
				logger.WithCtx(ctx).Warn("variant of cancelled order no longer exists",
					"order_id", id, "product_id", item.ProductID, "color", item.SelectedColor, "size", item.SelectedSize)
				continue
			}
			if err != nil {
				return err
			}
			entries = append(entries, entry)
			returned = append(returned, *v)
		}
		return nil
	})
	if err != nil {
		return nil, persistence(err)
	}

	s.recorder.Record(ctx, entries...)
	publishByProduct(s.notifier, "stock_returned", actor, fmt.Sprintf("order %s cancelled", id), returned)

	order.Status = model.OrderCancelled
	order.UpdatedBy = actor
	logger.WithCtx(ctx).Info("order cancelled", "order_id", id, "variants_returned", len(returned))
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	return order, persistence(err)
}

// variantRequests picks the items that name a variant.
func variantRequests(items []model.OrderItem) []model.StockCheckRequest {
	var out []model.StockCheckRequest
	for i := range items {
		if !items[i].TracksVariant() {
			continue
		}
		out = append(out, model.StockCheckRequest{
			ProductID:         items[i].ProductID,
			Color:             items[i].SelectedColor,
			Size:              items[i].SelectedSize,
			RequestedQuantity: items[i].Quantity,
		})
	}
	return out
}
