package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidQuantity is returned when a stock delta is not a positive amount.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)
