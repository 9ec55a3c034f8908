package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go-variant-inventory/internal/audit"
	"go-variant-inventory/internal/guard"
	"go-variant-inventory/internal/metrics"
	"go-variant-inventory/internal/model"
	"go-variant-inventory/internal/repository"
	"go-variant-inventory/pkg/logger"

	"gorm.io/gorm"
)

type ReservationService interface {
	// Reserve decrements every requested variant or none of them. A non-empty
	// orderID makes the call one-shot: a second Reserve for the same order
	// returns ErrDuplicateReservation.
	Reserve(ctx context.Context, orderID string, requests []model.StockCheckRequest, actor string) error
	// Release puts reserved stock back and frees the order's one-shot key.
	Release(ctx context.Context, orderID string, requests []model.StockCheckRequest, actor string) error
}

type reservationService struct {
	variantRepo repository.VariantRepository
	guard       guard.Guard
	recorder    audit.Recorder
	notifier    Notifier
	db          *gorm.DB
}

func NewReservationService(vRepo repository.VariantRepository, g guard.Guard, recorder audit.Recorder, notifier Notifier, db *gorm.DB) ReservationService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &reservationService{
		variantRepo: vRepo,
		guard:       g,
		recorder:    recorder,
		notifier:    notifier,
		db:          db,
	}
}

func (s *reservationService) Reserve(ctx context.Context, orderID string, requests []model.StockCheckRequest, actor string) (err error) {
	start := time.Now()
	defer func() {
		metrics.ReservationDuration.Observe(time.Since(start).Seconds())
		metrics.Reservations.WithLabelValues(reservationResult(err)).Inc()
	}()

	items, err := mergeRequests(requests)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return invalidf("no items to reserve")
	}

	if orderID != "" {
		key := guard.ReservationKey(orderID)
		acquired, gErr := s.guard.Acquire(ctx, key)
		if gErr != nil {
			return fmt.Errorf("%w: reservation guard: %w", ErrPersistence, gErr)
		}
		if !acquired {
			return ErrDuplicateReservation
		}
		defer func() {
			if err != nil {
				if rErr := s.guard.Release(context.WithoutCancel(ctx), key); rErr != nil {
					logger.WithCtx(ctx).Warn("failed to release reservation guard", "order_id", orderID, "error", rErr)
				}
			}
		}()
	}

	// Cheap pre-check so an obviously short order never opens a write transaction.
	variants, err := resolveVariants(ctx, s.variantRepo, items)
	if err != nil {
		return err
	}
	if check := availability(items, variants); !check.Available {
		return &InsufficientStockError{Unavailable: check.Unavailable}
	}

	var (
		entries  []model.InventoryTransaction
		reserved []model.Variant
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries, reserved = nil, nil
		var short []UnavailableItem

		for _, item := range sortedByKey(items) {
			v := variants[item.key()]
			ok, err := s.variantRepo.DecrementIfEnough(tx, v.ID, item.Quantity, actor)
			if err != nil {
				return err
			}
			current, err := s.variantRepo.Reload(tx, v.ID)
			if err != nil {
				return err
			}
			if !ok {
				available := current.InventoryCount
				if !current.IsActive {
					available = 0
				}
				short = append(short, UnavailableItem{
					ProductID: item.ProductID,
					Color:     item.Color,
					Size:      item.Size,
					Requested: item.Quantity,
					Available: available,
				})
				continue
			}
			reserved = append(reserved, *current)
			entries = append(entries, model.NewTransaction(current, current.InventoryCount+item.Quantity, current.InventoryCount, model.TxSale, saleNote(orderID), actor))
		}

		if len(short) > 0 {
			return &InsufficientStockError{Unavailable: short}
		}
		return nil
	})
	if err != nil {
		return persistence(err)
	}

	s.recorder.Record(ctx, entries...)
	publishByProduct(s.notifier, "stock_reserved", actor, saleNote(orderID), reserved)
	logger.WithCtx(ctx).Info("stock reserved", "order_id", orderID, "variants", len(reserved))
	return nil
}

func (s *reservationService) Release(ctx context.Context, orderID string, requests []model.StockCheckRequest, actor string) error {
	items, err := mergeRequests(requests)
	if err != nil {
		return err
	}

	note := fmt.Sprintf("release of order %s", orderID)
	var (
		entries  []model.InventoryTransaction
		released []model.Variant
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries, released = nil, nil
		for _, item := range sortedByKey(items) {
			v, err := s.variantRepo.FindByKeyForUpdate(tx, item.ProductID, item.Color, item.Size)
			if err != nil {
				return err
			}
			if v.InventoryCount > math.MaxInt-item.Quantity {
				return invalidf("%s/%s: releasing %d onto %d overflows the stock count", v.Color, v.Size, item.Quantity, v.InventoryCount)
			}
			if err := s.variantRepo.Increment(tx, v.ID, item.Quantity, actor); err != nil {
				return err
			}
			current, err := s.variantRepo.Reload(tx, v.ID)
			if err != nil {
				return err
			}
			released = append(released, *current)
			entries = append(entries, model.NewTransaction(current, v.InventoryCount, current.InventoryCount, model.TxAdjustment, note, actor))
		}
		return nil
	})
	if err != nil {
		return persistence(err)
	}

	if orderID != "" {
		if err := s.guard.Release(ctx, guard.ReservationKey(orderID)); err != nil {
			logger.WithCtx(ctx).Warn("failed to release reservation guard", "order_id", orderID, "error", err)
		}
	}
	s.recorder.Record(ctx, entries...)
	publishByProduct(s.notifier, "stock_released", actor, note, released)
	logger.WithCtx(ctx).Info("stock released", "order_id", orderID, "variants", len(released))
	return nil
}

func saleNote(orderID string) string {
	if orderID == "" {
		return "reservation"
	}
	return "order " + orderID
}

func reservationResult(err error) string {
	var insufficient *InsufficientStockError
	switch {
	case err == nil:
		return "reserved"
	case errors.As(err, &insufficient):
		return "insufficient"
	case errors.Is(err, ErrDuplicateReservation):
		return "duplicate"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
