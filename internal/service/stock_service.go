package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go-variant-inventory/internal/audit"
	"go-variant-inventory/internal/metrics"
	"go-variant-inventory/internal/model"
	"go-variant-inventory/internal/repository"
	"go-variant-inventory/pkg/logger"
	"go-variant-inventory/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdjustRequest changes one variant's stock by QuantityChange.
type AdjustRequest struct {
	ProductID       uuid.UUID             `json:"product_id" validate:"uuid_required"`
	Color           string                `json:"color" validate:"required"`
	Size            string                `json:"size" validate:"required"`
	QuantityChange  int                   `json:"quantity_change" validate:"ne=0"`
	TransactionType model.TransactionType `json:"transaction_type" validate:"txtype"`
	Notes           string                `json:"notes"`
}

// StockCheckResult is a point-in-time availability report. StockByKey is keyed
// "{product_id}-{color}-{size}" and is not a reservation.
type StockCheckResult struct {
	Available   bool              `json:"available"`
	Unavailable []UnavailableItem `json:"unavailable"`
	StockByKey  map[string]int    `json:"stock_by_key"`
}

type StockService interface {
	CheckStock(ctx context.Context, requests []model.StockCheckRequest) (*StockCheckResult, error)
	Adjust(ctx context.Context, req AdjustRequest, actor string) (*model.Variant, error)
}

type stockService struct {
	variantRepo repository.VariantRepository
	recorder    audit.Recorder
	notifier    Notifier
	db          *gorm.DB
	strict      bool
}

// NewStockService builds the availability checker and stock mutator. With strict
// set, a decrement larger than the stock on hand fails instead of clamping at zero.
func NewStockService(vRepo repository.VariantRepository, recorder audit.Recorder, notifier Notifier, db *gorm.DB, strict bool) StockService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &stockService{
		variantRepo: vRepo,
		recorder:    recorder,
		notifier:    notifier,
		db:          db,
		strict:      strict,
	}
}

func (s *stockService) CheckStock(ctx context.Context, requests []model.StockCheckRequest) (*StockCheckResult, error) {
	items, err := mergeRequests(requests)
	if err != nil {
		return nil, err
	}
	variants, err := resolveVariants(ctx, s.variantRepo, items)
	if err != nil {
		return nil, err
	}
	return availability(items, variants), nil
}

func (s *stockService) Adjust(ctx context.Context, req AdjustRequest, actor string) (*model.Variant, error) {
	req.Color = strings.TrimSpace(req.Color)
	req.Size = strings.TrimSpace(req.Size)
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, invalidf("%s", validator.Message(errs))
	}

	var (
		updated *model.Variant
		entry   model.InventoryTransaction
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, entry, err = adjustLocked(tx, s.variantRepo, req, actor, s.strict)
		return err
	})
	if err != nil {
		return nil, persistence(err)
	}

	s.recorder.Record(ctx, entry)
	metrics.StockMutations.WithLabelValues(string(req.TransactionType)).Inc()
	publishByProduct(s.notifier, "stock_adjusted", actor,
		fmt.Sprintf("%s %s %s/%s by %d", actor, req.TransactionType, updated.Color, updated.Size, entry.QuantityChange),
		[]model.Variant{*updated})

	logger.WithCtx(ctx).Info("stock adjusted",
		"variant_id", updated.ID,
		"sku", updated.SKU,
		"type", req.TransactionType,
		"requested_change", req.QuantityChange,
		"applied_change", entry.QuantityChange,
		"new_count", updated.InventoryCount,
	)
	return updated, nil
}

// adjustLocked applies req inside tx while holding the variant's row lock and
// returns the log entry for the change that was actually applied.
func adjustLocked(tx *gorm.DB, repo repository.VariantRepository, req AdjustRequest, actor string, strict bool) (*model.Variant, model.InventoryTransaction, error) {
	variant, err := repo.FindByKeyForUpdate(tx, req.ProductID, req.Color, req.Size)
	if err != nil {
		return nil, model.InventoryTransaction{}, err
	}

	oldQty := variant.InventoryCount
	if req.QuantityChange == math.MinInt || (req.QuantityChange > 0 && oldQty > math.MaxInt-req.QuantityChange) {
		return nil, model.InventoryTransaction{}, invalidf("%s/%s: adding %d to %d overflows the stock count",
			variant.Color, variant.Size, req.QuantityChange, oldQty)
	}
	newQty := oldQty + req.QuantityChange
	if newQty < 0 {
		if strict {
			return nil, model.InventoryTransaction{}, &InsufficientStockError{Unavailable: []UnavailableItem{{
				ProductID: variant.ProductID,
				Color:     variant.Color,
				Size:      variant.Size,
				Requested: -req.QuantityChange,
				Available: oldQty,
			}}}
		}
		newQty = 0
	}

	if err := repo.UpdateStock(tx, variant.ID, newQty, actor); err != nil {
		return nil, model.InventoryTransaction{}, err
	}
	updated, err := repo.Reload(tx, variant.ID)
	if err != nil {
		return nil, model.InventoryTransaction{}, err
	}
	return updated, model.NewTransaction(updated, oldQty, newQty, req.TransactionType, req.Notes, actor), nil
}

// lineItem is a validated request with duplicates of the same variant summed.
type lineItem struct {
	ProductID uuid.UUID
	Color     string
	Size      string
	Quantity  int
}

func (l lineItem) key() string {
	return model.VariantKey(l.ProductID, l.Color, l.Size)
}

// mergeRequests validates requests and folds repeated variants into one line,
// keeping first-seen order.
func mergeRequests(requests []model.StockCheckRequest) ([]lineItem, error) {
	index := make(map[string]int, len(requests))
	items := make([]lineItem, 0, len(requests))

	for i, req := range requests {
		req.Color = strings.TrimSpace(req.Color)
		req.Size = strings.TrimSpace(req.Size)
		if errs := validator.ValidateStruct(req); len(errs) > 0 {
			return nil, invalidf("item %d: %s", i, validator.Message(errs))
		}

		key := req.Key()
		if at, ok := index[key]; ok {
			if items[at].Quantity > math.MaxInt-req.RequestedQuantity {
				return nil, invalidf("item %d: total quantity for %s/%s is too large", i, req.Color, req.Size)
			}
			items[at].Quantity += req.RequestedQuantity
			continue
		}
		index[key] = len(items)
		items = append(items, lineItem{
			ProductID: req.ProductID,
			Color:     req.Color,
			Size:      req.Size,
			Quantity:  req.RequestedQuantity,
		})
	}
	return items, nil
}

// sortedByKey returns a copy of items in natural key order, the order in which
// writers touch rows so that two reservations never wait on each other in a cycle.
func sortedByKey(items []lineItem) []lineItem {
	sorted := append([]lineItem(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].key() < sorted[j].key() })
	return sorted
}

// resolveVariants looks up every item. Missing variants map to nil.
func resolveVariants(ctx context.Context, repo repository.VariantRepository, items []lineItem) (map[string]*model.Variant, error) {
	found := make(map[string]*model.Variant, len(items))
	for _, item := range items {
		v, err := repo.FindByKey(ctx, item.ProductID, item.Color, item.Size)
		switch {
		case errors.Is(err, ErrNotFound):
			found[item.key()] = nil
		case err != nil:
			return nil, persistence(err)
		default:
			found[item.key()] = v
		}
	}
	return found, nil
}

// availability compares items against resolved variants. Missing and inactive
// variants count as zero stock.
func availability(items []lineItem, variants map[string]*model.Variant) *StockCheckResult {
	result := &StockCheckResult{
		Available:   true,
		Unavailable: []UnavailableItem{},
		StockByKey:  make(map[string]int, len(items)),
	}
	for _, item := range items {
		stock := 0
		if v := variants[item.key()]; v != nil && v.IsActive {
			stock = v.InventoryCount
		}
		result.StockByKey[item.key()] = stock

		if stock < item.Quantity {
			result.Available = false
			result.Unavailable = append(result.Unavailable, UnavailableItem{
				ProductID: item.ProductID,
				Color:     item.Color,
				Size:      item.Size,
				Requested: item.Quantity,
				Available: stock,
			})
		}
	}
	return result
}
