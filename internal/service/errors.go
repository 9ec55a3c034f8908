package service

import (
	"errors"
	"fmt"
	"strings"

	"go-variant-inventory/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrNotFound             = repository.ErrNotFound
	ErrInvalidInput         = errors.New("invalid input")
	ErrPersistence          = errors.New("persistence error")
	ErrDuplicateReservation = errors.New("stock already reserved for this order")
)

// UnavailableItem describes one variant that cannot cover its requested quantity.
// Available is 0 for variants that are missing or inactive.
type UnavailableItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// InsufficientStockError lists every item that could not be covered.
type InsufficientStockError struct {
	Unavailable []UnavailableItem
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Unavailable))
	for _, item := range e.Unavailable {
		parts = append(parts, fmt.Sprintf("%s/%s (requested %d, available %d)", item.Color, item.Size, item.Requested, item.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// persistence wraps a store failure. Not-found and input errors pass through.
func persistence(err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
		return err
	}
	if errors.Is(err, repository.ErrInvalidQuantity) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	var insufficient *InsufficientStockError
	if errors.As(err, &insufficient) || errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
