/*
ledger.go - The stock ledger

PURPOSE:
  Owns the product map and the append-only transaction log. Every
  physical stock change goes through StockIn/StockOut/AdjustStock here,
  and each of those appends exactly one transaction entry. Reservations
  (Allocate/ReleaseAllocation) move the allocatable counter only - a
  reservation is a promise, not a physical movement, so it is not logged.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: transactions are never updated or deleted
  2. CONSERVATION: initial quantity + sum of deltas == current quantity
  3. NON-NEGATIVE: no operation may drive on-hand quantity below zero
  4. ALL-OR-NOTHING: a rejected operation mutates nothing

ALERTS:
  StockIn checks the max-stock threshold, StockOut checks the reorder
  point. Crossing a threshold publishes an alert to the sink and logs a
  warning, but never fails the movement. AdjustStock is a manual
  correction and deliberately bypasses both checks.

AUTO-CREATION:
  StockIn on an unknown product creates it at zero quantity first, with
  a warning log. This mirrors how goods legitimately arrive before the
  catalog entry does; the creation is explicit and observable rather
  than a silent map insert.

SEE ALSO:
  - types.go: Product, Transaction, Alert
  - alerts.go: Sink implementations
  - snapshot.go: Snapshot/restore of ledger state
*/
package inventory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger is the single owner of product stock and the transaction log.
//
// All methods are safe for concurrent use, though the expected model is
// a single command issuer serialized by the engine's lock.
type Ledger struct {
	mu           sync.RWMutex
	products     map[string]*Product
	transactions []Transaction

	sink Sink
	log  zerolog.Logger
}

// NewLedger creates an empty ledger. A nil sink discards alerts.
func NewLedger(sink Sink, log zerolog.Logger) *Ledger {
	if sink == nil {
		sink = NopSink{}
	}
	return &Ledger{
		products: make(map[string]*Product),
		sink:     sink,
		log:      log,
	}
}

// =============================================================================
// PRODUCT LIFECYCLE
// =============================================================================

// AddProduct registers a new product with the given opening quantity.
// No transaction is logged for the opening balance - it is the baseline
// the conservation invariant starts from.
func (l *Ledger) AddProduct(name string, initialQuantity int, reorderPoint, maxStock *int, unitCost decimal.Decimal) (Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if initialQuantity < 0 {
		return Product{}, fmt.Errorf("%w: initial quantity %d", ErrInvalidQuantity, initialQuantity)
	}
	if _, ok := l.products[name]; ok {
		return Product{}, fmt.Errorf("%w: %q", ErrAlreadyExists, name)
	}

	now := time.Now()
	p := &Product{
		Name:          name,
		ProductID:     NewTransactionID(),
		Quantity:      initialQuantity,
		ReorderPoint:  reorderPoint,
		MaxStock:      maxStock,
		UnitCost:      unitCost,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	l.products[name] = p

	l.log.Info().Str("product", name).Int("quantity", initialQuantity).Msg("product added")
	return *p, nil
}

// EnsureProduct returns the named product, creating it at zero quantity
// if it doesn't exist yet. Used when an order references a product the
// catalog hasn't seen; the creation is logged, not silent.
func (l *Ledger) EnsureProduct(name string) Product {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.products[name]
	if !ok {
		p = l.autoCreateLocked(name)
	}
	return *p
}

// GetProduct returns a copy of the named product.
func (l *Ledger) GetProduct(name string) (Product, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.products[name]
	if !ok {
		return Product{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return *p, nil
}

// ListProducts returns copies of all products, ordered by name.
func (l *Ledger) ListProducts() []Product {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Product, 0, len(l.products))
	for _, p := range l.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// =============================================================================
// PHYSICAL MOVEMENTS - the only writers of Quantity
// =============================================================================

// StockIn receives quantity units of a product. Unknown products are
// created at zero first. Appends an "in" transaction.
func (l *Ledger) StockIn(name string, quantity int, referenceID, note string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if quantity <= 0 {
		return fmt.Errorf("%w: stock in %d", ErrInvalidQuantity, quantity)
	}

	p, ok := l.products[name]
	if !ok {
		p = l.autoCreateLocked(name)
	}

	p.Quantity += quantity
	p.LastUpdatedAt = time.Now()
	l.appendLocked(Transaction{
		ID:          NewTransactionID(),
		Timestamp:   p.LastUpdatedAt,
		ProductName: name,
		Kind:        TxIn,
		Delta:       quantity,
		ReferenceID: referenceID,
		Note:        note,
	})

	if p.MaxStock != nil && p.Quantity > *p.MaxStock {
		l.emitLocked(name, AlertOverStock,
			fmt.Sprintf("%q exceeds max stock: quantity %d, max %d", name, p.Quantity, *p.MaxStock))
	}

	l.log.Info().Str("product", name).Int("quantity", quantity).Int("on_hand", p.Quantity).
		Str("reference", referenceID).Msg("stock in")
	return nil
}

// StockOut removes quantity units. All-or-nothing: if on-hand stock is
// short the ledger is untouched and *InsufficientStockError is returned.
func (l *Ledger) StockOut(name string, quantity int, referenceID, note string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if quantity <= 0 {
		return fmt.Errorf("%w: stock out %d", ErrInvalidQuantity, quantity)
	}
	p, ok := l.products[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if p.Quantity < quantity {
		l.log.Warn().Str("product", name).Int("on_hand", p.Quantity).Int("requested", quantity).
			Msg("stock out rejected")
		return &InsufficientStockError{Product: name, OnHand: p.Quantity, Requested: quantity}
	}

	p.Quantity -= quantity
	p.LastUpdatedAt = time.Now()
	l.appendLocked(Transaction{
		ID:          NewTransactionID(),
		Timestamp:   p.LastUpdatedAt,
		ProductName: name,
		Kind:        TxOut,
		Delta:       -quantity,
		ReferenceID: referenceID,
		Note:        note,
	})

	if p.ReorderPoint != nil && p.Quantity <= *p.ReorderPoint {
		l.emitLocked(name, AlertLowStock,
			fmt.Sprintf("%q is at or below reorder point: quantity %d, reorder point %d", name, p.Quantity, *p.ReorderPoint))
	}

	l.log.Info().Str("product", name).Int("quantity", quantity).Int("on_hand", p.Quantity).
		Str("reference", referenceID).Msg("stock out")
	return nil
}

// AdjustStock sets on-hand quantity to an absolute count and logs the
// difference as an "adjust" transaction (delta may be zero). Manual
// corrections bypass the reorder/max alert checks.
func (l *Ledger) AdjustStock(name string, newQuantity int, note string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if newQuantity < 0 {
		return fmt.Errorf("%w: adjust to %d", ErrInvalidQuantity, newQuantity)
	}
	p, ok := l.products[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	old := p.Quantity
	p.Quantity = newQuantity
	p.LastUpdatedAt = time.Now()
	l.appendLocked(Transaction{
		ID:          NewTransactionID(),
		Timestamp:   p.LastUpdatedAt,
		ProductName: name,
		Kind:        TxAdjust,
		Delta:       newQuantity - old,
		Note:        note,
	})

	l.log.Info().Str("product", name).Int("from", old).Int("to", newQuantity).Msg("stock adjusted")
	return nil
}

// =============================================================================
// RESERVATIONS - the only writers of Allocatable
// =============================================================================

// Allocate reserves quantity units from the allocatable counter.
// Reservations are promises, not movements: Quantity is untouched and
// no transaction is logged.
func (l *Ledger) Allocate(name string, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if quantity <= 0 {
		return fmt.Errorf("%w: allocate %d", ErrInvalidQuantity, quantity)
	}
	p, ok := l.products[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if p.Allocatable < quantity {
		return &InsufficientAllocatableError{Product: name, Allocatable: p.Allocatable, Requested: quantity}
	}

	p.Allocatable -= quantity
	p.LastUpdatedAt = time.Now()
	l.log.Info().Str("product", name).Int("quantity", quantity).Int("allocatable", p.Allocatable).
		Msg("stock allocated")
	return nil
}

// ReleaseAllocation returns quantity units to the allocatable counter,
// typically on order cancellation. There is no upper cap: allocatable
// tracks independently of physical stock.
func (l *Ledger) ReleaseAllocation(name string, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if quantity <= 0 {
		return fmt.Errorf("%w: release %d", ErrInvalidQuantity, quantity)
	}
	p, ok := l.products[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	p.Allocatable += quantity
	p.LastUpdatedAt = time.Now()
	l.log.Info().Str("product", name).Int("quantity", quantity).Int("allocatable", p.Allocatable).
		Msg("allocation released")
	return nil
}

// AdjustAllocatable shifts the allocatable counter by delta, clamping
// at zero. Used by manual stock maintenance.
func (l *Ledger) AdjustAllocatable(name string, delta int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.products[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	p.Allocatable += delta
	if p.Allocatable < 0 {
		p.Allocatable = 0
	}
	p.LastUpdatedAt = time.Now()
	l.log.Info().Str("product", name).Int("delta", delta).Int("allocatable", p.Allocatable).
		Msg("allocatable adjusted")
	return nil
}

// SetAllocatable sets the allocatable counter to an absolute value.
// Used when seeding from an external availability figure.
func (l *Ledger) SetAllocatable(name string, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if quantity < 0 {
		return fmt.Errorf("%w: allocatable %d", ErrInvalidQuantity, quantity)
	}
	p, ok := l.products[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	p.Allocatable = quantity
	p.LastUpdatedAt = time.Now()
	return nil
}

// =============================================================================
// THRESHOLDS
// =============================================================================

// SetReorderPoint sets (or clears, with nil) the low-stock threshold.
func (l *Ledger) SetReorderPoint(name string, point *int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.products[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	p.ReorderPoint = point
	p.LastUpdatedAt = time.Now()
	return nil
}

// SetMaxStock sets (or clears, with nil) the over-stock threshold.
func (l *Ledger) SetMaxStock(name string, max *int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.products[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	p.MaxStock = max
	p.LastUpdatedAt = time.Now()
	return nil
}

// =============================================================================
// HISTORY
// =============================================================================

// Transactions returns the full transaction log, chronologically.
func (l *Ledger) Transactions() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// History returns the transaction log for one product, chronologically.
func (l *Ledger) History(name string) []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Transaction
	for _, tx := range l.transactions {
		if tx.ProductName == name {
			out = append(out, tx)
		}
	}
	return out
}

// =============================================================================
// INTERNAL
// =============================================================================

// autoCreateLocked registers an unknown product at zero quantity.
// Caller holds the write lock.
func (l *Ledger) autoCreateLocked(name string) *Product {
	now := time.Now()
	p := &Product{
		Name:          name,
		ProductID:     NewTransactionID(),
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	l.products[name] = p
	l.log.Warn().Str("product", name).Msg("unknown product auto-created at zero quantity")
	return p
}

func (l *Ledger) appendLocked(tx Transaction) {
	l.transactions = append(l.transactions, tx)
}

// emitLocked publishes an alert. Publishing can never fail the stock
// operation that triggered it.
func (l *Ledger) emitLocked(name string, typ AlertType, msg string) {
	alert := Alert{
		ProductName: name,
		Type:        typ,
		Message:     msg,
		Timestamp:   time.Now(),
	}
	l.log.Warn().Str("product", name).Str("alert", string(typ)).Msg(msg)
	l.sink.Publish(alert)
}
