/*
book.go - The order book

PURPOSE:
  Owns all orders and orchestrates their status transitions. Physical
  stock and reservations are mutated exclusively through the inventory
  ledger, so every movement keeps its audit entry.

FAILURE SEMANTICS:
  Every operation either fully applies or fully rejects. The book
  mutates an order only after the ledger call it depends on has
  succeeded; a ledger rejection leaves both aggregates untouched.

CREATE vs RESTORE:
  Create rejects duplicate keys - fresh order entry must never clobber
  an existing line. Restore is the reload path: it overwrites duplicates
  with a warning, because the snapshot being loaded is authoritative.
  These are deliberately two entry points, not one flag-switched path.

SEE ALSO:
  - types.go: Order, Key, Status, Kind
  - snapshot.go: Snapshot/restore of the order set
  - inventory/ledger.go: The stock operations the book relies on
*/
package orders

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/lumen/inventory-engine/inventory"
)

// =============================================================================
// BOOK
// =============================================================================

// Book holds every order, indexed by key. Orders are never deleted -
// terminal orders are retained for audit and reporting.
type Book struct {
	mu     sync.RWMutex
	orders map[Key]*Order

	ledger *inventory.Ledger
	log    zerolog.Logger
}

func NewBook(ledger *inventory.Ledger, log zerolog.Logger) *Book {
	return &Book{
		orders: make(map[Key]*Order),
		ledger: ledger,
		log:    log,
	}
}

// CreateInput carries everything needed to open a new order line.
type CreateInput struct {
	Key         Key
	Kind        Kind
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Customer    Customer
}

// Create opens a new order in status New. The referenced product is
// registered in the ledger at zero quantity if unknown.
func (b *Book) Create(in CreateInput) (Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if in.Quantity <= 0 {
		return Order{}, fmt.Errorf("%w: order quantity %d", inventory.ErrInvalidQuantity, in.Quantity)
	}
	if in.UnitPrice.IsNegative() {
		return Order{}, fmt.Errorf("%w: negative unit price", inventory.ErrInvalidQuantity)
	}
	if _, ok := b.orders[in.Key]; ok {
		return Order{}, fmt.Errorf("%w: %s", ErrDuplicateKey, in.Key)
	}

	kind := in.Kind
	if kind == "" {
		kind = KindSales
	}

	b.ledger.EnsureProduct(in.ProductName)

	now := time.Now()
	o := &Order{
		Key:         in.Key,
		Kind:        kind,
		ProductName: in.ProductName,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		Customer:    in.Customer,
		Status:      StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.orders[in.Key] = o

	b.log.Info().Str("order", in.Key.String()).Str("product", in.ProductName).
		Int("quantity", in.Quantity).Str("kind", string(kind)).Msg("order created")
	return *o, nil
}

// Restore inserts an order during snapshot reload. Unlike Create it
// overwrites an existing key, logging a warning - the snapshot wins.
func (b *Book) Restore(o Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.orders[o.Key]; ok {
		b.log.Warn().Str("order", o.Key.String()).Msg("duplicate order key on restore, overwriting")
	}
	stored := o
	b.orders[o.Key] = &stored
	b.ledger.EnsureProduct(o.ProductName)
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Allocate performs a single best-effort partial allocation: it reserves
// min(allocatable, remaining) from the ledger and advances the order to
// PartiallyAllocated or Allocated. It does not loop to fully satisfy
// the order; call it again when more stock becomes allocatable.
func (b *Book) Allocate(key Key) (Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[key]
	if !ok {
		return Order{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if o.Kind != KindSales || (o.Status != StatusNew && o.Status != StatusPartiallyAllocated) {
		return Order{}, &InvalidTransitionError{Key: key, Status: o.Status, Operation: "allocate"}
	}

	remaining := o.Remaining()
	if remaining <= 0 {
		return Order{}, fmt.Errorf("%w: %s", ErrNothingToAllocate, key)
	}

	product, err := b.ledger.GetProduct(o.ProductName)
	if err != nil {
		return Order{}, err
	}
	if product.Allocatable <= 0 {
		return Order{}, fmt.Errorf("%w: %q", ErrNoStockAvailable, o.ProductName)
	}

	take := min(product.Allocatable, remaining)
	if err := b.ledger.Allocate(o.ProductName, take); err != nil {
		return Order{}, err
	}

	o.AllocatedQuantity += take
	if o.AllocatedQuantity == o.Quantity {
		o.Status = StatusAllocated
	} else {
		o.Status = StatusPartiallyAllocated
	}
	o.UpdatedAt = time.Now()

	b.log.Info().Str("order", key.String()).Int("allocated", take).
		Int("total_allocated", o.AllocatedQuantity).Str("status", string(o.Status)).
		Msg("stock allocated to order")
	return *o, nil
}

// Ship moves the order's stock out of inventory and closes the order.
//
// Sales orders ship their allocated quantity from Allocated or
// PartiallyAllocated. Production orders ship their full quantity from
// AwaitingShipment. If physical stock is below the quantity promised,
// the ledger's rejection is surfaced as a *ConsistencyError and the
// order is left untouched.
func (b *Book) Ship(key Key) (Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[key]
	if !ok {
		return Order{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	var shipQty int
	switch {
	case o.Kind == KindSales &&
		(o.Status == StatusAllocated || o.Status == StatusPartiallyAllocated) &&
		o.AllocatedQuantity > 0:
		shipQty = o.AllocatedQuantity
	case o.Kind == KindProduction && o.Status == StatusAwaitingShipment:
		shipQty = o.Quantity
	default:
		return Order{}, &InvalidTransitionError{Key: key, Status: o.Status, Operation: "ship"}
	}

	err := b.ledger.StockOut(o.ProductName, shipQty, key.String(), "order shipment")
	if err != nil {
		if errors.Is(err, inventory.ErrInsufficientStock) {
			return Order{}, &ConsistencyError{Key: key, Product: o.ProductName, Allocated: shipQty, Err: err}
		}
		return Order{}, err
	}

	now := time.Now()
	o.Status = StatusShipped
	o.UpdatedAt = now
	o.ShippedAt = &now

	b.log.Info().Str("order", key.String()).Int("quantity", shipQty).Msg("order shipped")
	return *o, nil
}

// Cancel closes the order and returns any allocated quantity to the
// product's allocatable counter. Produced stock is not reversed: goods
// already built stay in inventory. Shipped orders cannot be cancelled.
func (b *Book) Cancel(key Key) (Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[key]
	if !ok {
		return Order{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if o.Status == StatusShipped {
		return Order{}, fmt.Errorf("%w: %s", ErrAlreadyShipped, key)
	}
	if o.Status == StatusCancelled {
		return Order{}, &InvalidTransitionError{Key: key, Status: o.Status, Operation: "cancel"}
	}

	if o.AllocatedQuantity > 0 {
		if err := b.ledger.ReleaseAllocation(o.ProductName, o.AllocatedQuantity); err != nil {
			return Order{}, err
		}
	}
	if o.ProducedQuantity > 0 {
		b.log.Info().Str("order", key.String()).Int("produced", o.ProducedQuantity).
			Msg("cancelling order with completed production, goods stay in inventory")
	}

	o.Status = StatusCancelled
	o.UpdatedAt = time.Now()

	b.log.Info().Str("order", key.String()).Msg("order cancelled")
	return *o, nil
}

// Produce builds up to quantity units against a production order,
// booking them into inventory with a PROD reference. The order moves to
// InProduction on the first build and to AwaitingShipment once the full
// quantity is produced.
func (b *Book) Produce(key Key, quantity int) (Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if quantity <= 0 {
		return Order{}, fmt.Errorf("%w: produce %d", inventory.ErrInvalidQuantity, quantity)
	}
	o, ok := b.orders[key]
	if !ok {
		return Order{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if o.Kind != KindProduction || (o.Status != StatusNew && o.Status != StatusInProduction) {
		return Order{}, &InvalidTransitionError{Key: key, Status: o.Status, Operation: "produce"}
	}

	actual := min(quantity, o.RemainingToProduce())
	if actual <= 0 {
		return Order{}, fmt.Errorf("%w: %s", ErrNothingToProduce, key)
	}

	if err := b.ledger.StockIn(o.ProductName, actual, "PROD-"+key.String(), "production output"); err != nil {
		return Order{}, err
	}

	o.ProducedQuantity += actual
	if o.ProducedQuantity >= o.Quantity {
		o.Status = StatusAwaitingShipment
	} else {
		o.Status = StatusInProduction
	}
	o.UpdatedAt = time.Now()

	b.log.Info().Str("order", key.String()).Int("produced", actual).
		Int("total_produced", o.ProducedQuantity).Str("status", string(o.Status)).
		Msg("production booked")
	return *o, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Get returns a copy of the order with the given key.
func (b *Book) Get(key Key) (Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	o, ok := b.orders[key]
	if !ok {
		return Order{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return *o, nil
}

// List returns copies of all orders in stable key order.
func (b *Book) List() []Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, *o)
	}
	sortOrders(out)
	return out
}

// ListByStatus returns copies of all orders in the given status.
func (b *Book) ListByStatus(status Status) []Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Order
	for _, o := range b.orders {
		if o.Status == status {
			out = append(out, *o)
		}
	}
	sortOrders(out)
	return out
}

// ListByTransID returns all order lines of one document.
func (b *Book) ListByTransID(transID string) []Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Order
	for _, o := range b.orders {
		if o.Key.TransID == transID {
			out = append(out, *o)
		}
	}
	sortOrders(out)
	return out
}

func sortOrders(orders []Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].Key.TransID != orders[j].Key.TransID {
			return orders[i].Key.TransID < orders[j].Key.TransID
		}
		return orders[i].Key.SeqID < orders[j].Key.SeqID
	})
}
