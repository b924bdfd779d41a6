package entity

import "errors"

var (
	// ErrInvalidInput rejects a request before any lookup (non-positive
	// quantity and the like).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means a product or staff reference did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock means the product's committed stock is below the
	// requested quantity. Nothing was written.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrBusy means the exclusive product lease could not be acquired within
	// the bounded wait. The caller may retry; nothing was written.
	ErrBusy = errors.New("product busy, lock wait timed out")

	// ErrInsufficientData means the ledger has fewer than two distinct sale
	// days, too little history to fit a trend line.
	ErrInsufficientData = errors.New("insufficient sales history")
)
