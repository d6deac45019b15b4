/*
errors.go - Typed rejections for the order book

PURPOSE:
  Every invalid command against an order is a typed, expected outcome.
  Ledger errors (insufficient stock, unknown product) propagate from the
  inventory package; this file covers the state machine itself.
*/
package orders

import (
	"errors"
	"fmt"

	"github.com/lumen/inventory-engine/inventory"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced order key doesn't exist.
	ErrNotFound = errors.New("order not found")

	// ErrDuplicateKey is returned when creating an order whose key is
	// already taken. Restore, by contrast, overwrites.
	ErrDuplicateKey = errors.New("duplicate order key")

	// ErrInvalidTransition is returned when an operation is not valid
	// from the order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyShipped is returned when cancelling a shipped order.
	ErrAlreadyShipped = errors.New("order already shipped")

	// ErrNothingToAllocate is returned when a sales order is already
	// fully allocated.
	ErrNothingToAllocate = errors.New("nothing left to allocate")

	// ErrNoStockAvailable is returned when the product has no
	// allocatable stock at all.
	ErrNoStockAvailable = errors.New("no allocatable stock available")

	// ErrNothingToProduce is returned when a production order is already
	// fully produced.
	ErrNothingToProduce = errors.New("nothing left to produce")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InvalidTransitionError reports which operation was attempted from
// which status.
type InvalidTransitionError struct {
	Key       Key
	Status    Status
	Operation string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s: cannot %s from status %q", e.Key, e.Operation, e.Status)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// ConsistencyError reports that physical stock was below the allocated
// quantity at ship time. The reservation promised more than the shelf
// holds; this anomaly is surfaced, never silently downgraded.
type ConsistencyError struct {
	Key       Key
	Product   string
	Allocated int
	Err       error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("order %s: allocated %d of %q exceeds physical stock: %v",
		e.Key, e.Allocated, e.Product, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true for business-rule rejections the UI should
// present as validation feedback rather than faults.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrAlreadyShipped) ||
		errors.Is(err, ErrNothingToAllocate) ||
		errors.Is(err, ErrNoStockAvailable) ||
		errors.Is(err, ErrNothingToProduce) ||
		inventory.IsClientError(err)
}
