/*
Package orders provides the order book and the fulfillment state machine.

PURPOSE:
  Owns the set of orders and drives them through their status lifecycle.
  The book never writes stock fields directly: every physical movement
  and every reservation goes through the inventory ledger, so the
  transaction log stays complete.

TWO WORKFLOWS, TWO KINDS:
  Sales orders are fulfilled from existing stock:
      New -> PartiallyAllocated/Allocated -> Shipped
  Production orders are built to order, then shipped:
      New -> InProduction -> AwaitingShipment -> Shipped
  Both can be cancelled from any non-terminal state. Shipped and
  Cancelled are terminal: no further business transition is permitted.

KEY CONCEPTS IN THIS FILE (types.go):
  - Key: (transId, seqId) pair, unique and stable for the order's lifetime
  - Order: one order line with quantity, price, customer, and status
  - Status/Kind: the state machine's vocabulary

SEE ALSO:
  - book.go: The order book and its transitions
  - errors.go: Typed rejections for invalid transitions
*/
package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// KEY - Unique order identity
// =============================================================================

// Key identifies one order line. TransID is the document number, SeqID
// the line number within it.
type Key struct {
	TransID string
	SeqID   string
}

func (k Key) String() string { return k.TransID + "-" + k.SeqID }

// =============================================================================
// STATUS & KIND
// =============================================================================

type Status string

const (
	StatusNew                Status = "new"
	StatusPartiallyAllocated Status = "partially_allocated"
	StatusAllocated          Status = "allocated"
	StatusInProduction       Status = "in_production"
	StatusAwaitingShipment   Status = "awaiting_shipment"
	StatusShipped            Status = "shipped"
	StatusCancelled          Status = "cancelled"
)

// Terminal reports whether no further business transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusShipped || s == StatusCancelled
}

// Kind selects which workflow an order follows. The two workflows share
// the Order type but their operations are mutually exclusive: Allocate
// applies to sales orders only, Produce to production orders only.
type Kind string

const (
	KindSales      Kind = "sales"
	KindProduction Kind = "production"
)

// =============================================================================
// ORDER
// =============================================================================

type Customer struct {
	ID   string
	Name string
}

// Order is one order line moving through the fulfillment lifecycle.
//
// INVARIANTS:
//   - 0 <= AllocatedQuantity <= Quantity
//   - 0 <= ProducedQuantity <= Quantity
//   - once Status is terminal the order is immutable
type Order struct {
	Key         Key
	Kind        Kind
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Customer    Customer

	Status            Status
	AllocatedQuantity int
	ProducedQuantity  int

	CreatedAt time.Time
	UpdatedAt time.Time
	ShippedAt *time.Time
}

// Amount is the order line total: quantity x unit price.
func (o Order) Amount() decimal.Decimal {
	return o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// Remaining is the unallocated portion of a sales order.
func (o Order) Remaining() int { return o.Quantity - o.AllocatedQuantity }

// RemainingToProduce is the unbuilt portion of a production order.
func (o Order) RemainingToProduce() int { return o.Quantity - o.ProducedQuantity }
