/*
errors.go - Error types for the stock ledger

PURPOSE:
  All ledger error types in one place. Business-rule rejections (not
  enough stock, duplicate product) are expected outcomes returned as
  typed errors; they are never panics and never silent no-ops.

ERROR CATEGORIES:
  1. Business rejections - insufficient stock, invalid quantity, duplicates
  2. Lookup failures     - unknown product
  3. Integrity failures  - corrupt snapshot on load

USAGE:
  if errors.Is(err, inventory.ErrInsufficientStock) { ... }

  var short *inventory.InsufficientStockError
  if errors.As(err, &short) {
      fmt.Println(short.OnHand, short.Requested)
  }
*/
package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced product doesn't exist.
	ErrNotFound = errors.New("product not found")

	// ErrAlreadyExists is returned when adding a product whose name is taken.
	ErrAlreadyExists = errors.New("product already exists")

	// ErrInsufficientStock is returned when an outbound movement exceeds
	// on-hand quantity. Movements are all-or-nothing.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInsufficientAllocatable is returned when a reservation exceeds
	// the allocatable counter.
	ErrInsufficientAllocatable = errors.New("insufficient allocatable stock")

	// ErrInvalidQuantity is returned for non-positive quantities where a
	// positive one is required, or for negative absolute counts.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrCorruptSnapshot is returned when a persisted snapshot cannot be
	// decoded or fails integrity checks on load. This is a data problem
	// needing operator attention, not a business rejection.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError reports an outbound movement that exceeds on-hand
// stock. The ledger is left untouched when this is returned.
type InsufficientStockError struct {
	Product   string
	OnHand    int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: on hand %d, requested %d",
		e.Product, e.OnHand, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InsufficientAllocatableError reports a reservation that exceeds the
// allocatable counter.
type InsufficientAllocatableError struct {
	Product     string
	Allocatable int
	Requested   int
}

func (e *InsufficientAllocatableError) Error() string {
	return fmt.Sprintf("insufficient allocatable stock for %q: allocatable %d, requested %d",
		e.Product, e.Allocatable, e.Requested)
}

func (e *InsufficientAllocatableError) Unwrap() error { return ErrInsufficientAllocatable }

// CorruptSnapshotError reports a snapshot that could not be decoded or
// restored. Source identifies the gateway (file path, table, ...).
type CorruptSnapshotError struct {
	Source string
	Err    error
}

func (e *CorruptSnapshotError) Error() string {
	return fmt.Sprintf("corrupt snapshot at %s: %v", e.Source, e.Err)
}

func (e *CorruptSnapshotError) Unwrap() error { return ErrCorruptSnapshot }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing product.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is a business-rule rejection
// caused by the caller's input, as opposed to an integrity fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInsufficientAllocatable) ||
		errors.Is(err, ErrInvalidQuantity)
}
