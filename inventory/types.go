/*
Package inventory provides the stock ledger: the single source of truth
for physical and allocatable stock.

PURPOSE:
  Every product quantity lives here, and every change to a quantity is
  recorded as an immutable transaction entry. Nothing else in the system
  writes stock fields directly - the order book moves stock exclusively
  through this package, which is what keeps the transaction log complete.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product: A stocked item with on-hand and allocatable quantities
  - Transaction: An immutable ledger entry recording one stock change
  - Alert: A threshold-crossing event (low stock / over stock)

DESIGN PRINCIPLES:
  1. Append-only: transactions are never updated or deleted
  2. Conservation: initial quantity + sum of deltas == current quantity
  3. Non-negativity: on-hand quantity can never go below zero
  4. Precision: unit cost uses decimal.Decimal, never float64

SEE ALSO:
  - ledger.go: Ledger operations (stock in/out, adjust, allocate)
  - alerts.go: Alert sink implementations
  - snapshot.go: Persistence contract and snapshot records
*/
package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PRODUCT - A stocked item
// =============================================================================

// Product tracks one item's stock position.
//
// Quantity is the physical on-hand count. Allocatable is the portion
// earmarked as promisable to orders; it is tracked independently of
// Quantity and the two are deliberately not capped against each other
// (the allocatable counter may be seeded from forecasts or imports that
// run ahead of physical receipts).
type Product struct {
	Name        string
	ProductID   string
	Quantity    int
	Allocatable int

	// Optional thresholds. Crossing them emits an alert but never
	// fails the operation.
	ReorderPoint *int
	MaxStock     *int

	UnitCost decimal.Decimal

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

// =============================================================================
// TRANSACTION - Atomic change to physical stock
// =============================================================================

type TransactionKind string

const (
	TxIn     TransactionKind = "in"     // Stock received (purchase, production)
	TxOut    TransactionKind = "out"    // Stock removed (shipment)
	TxAdjust TransactionKind = "adjust" // Manual correction to an absolute count
)

// Transaction is one immutable entry in the stock ledger.
// Delta is signed: positive for in, negative for out, either for adjust.
type Transaction struct {
	ID          string
	Timestamp   time.Time
	ProductName string
	Kind        TransactionKind
	Delta       int
	ReferenceID string // order key or other external reference, may be empty
	Note        string
}

// NewTransactionID returns a short random token, unique enough for a
// single ledger's lifetime.
func NewTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// =============================================================================
// ALERT - Threshold-crossing event
// =============================================================================

type AlertType string

const (
	AlertLowStock  AlertType = "low_stock"  // quantity fell to or below reorder point
	AlertOverStock AlertType = "over_stock" // quantity exceeded max stock
)

type Alert struct {
	ProductName string
	Type        AlertType
	Message     string
	Timestamp   time.Time
}
