/*
Package engine wires the stock ledger, the order book, and a persistence
gateway into the command surface the UI layer calls.

PURPOSE:
  One Engine instance is constructed at startup and torn down (with a
  final snapshot flush) at shutdown. Every command is synchronous and
  serialized by a single lock: allocation-then-shipment sequences
  read-then-write shared product state and must not interleave.

WRITE-THROUGH:
  Every mutating command that succeeds saves the full snapshot through
  the gateway before returning, so a crash after a successful call never
  loses the just-applied change. A failed precondition performs no
  mutation and no write. Read commands never write.

STARTUP:
  New loads the existing snapshot (if any) and restores both aggregates.
  A snapshot that cannot be decoded surfaces as
  *inventory.CorruptSnapshotError - an operator problem, reported
  distinctly from business rejections.

SEE ALSO:
  - inventory/ledger.go: Stock operations
  - orders/book.go: Order state machine
  - store/: Gateway implementations
*/
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/lumen/inventory-engine/inventory"
	"github.com/lumen/inventory-engine/orders"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	mu      sync.Mutex
	ledger  *inventory.Ledger
	book    *orders.Book
	gateway inventory.Gateway
	sink    *inventory.CollectorSink
	log     zerolog.Logger
}

// New builds the engine and restores state from the gateway's snapshot,
// if one exists.
func New(ctx context.Context, gateway inventory.Gateway, log zerolog.Logger) (*Engine, error) {
	sink := inventory.NewCollectorSink(0)
	ledger := inventory.NewLedger(sink, log)
	book := orders.NewBook(ledger, log)

	e := &Engine{
		ledger:  ledger,
		book:    book,
		gateway: gateway,
		sink:    sink,
		log:     log,
	}

	snap, err := gateway.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if snap != nil {
		if err := ledger.Restore(snap.Products, snap.Transactions); err != nil {
			return nil, err
		}
		if err := book.RestoreOrders(snap.Orders); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Close flushes a final snapshot.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persistLocked(ctx)
}

// Snapshot assembles the current full state.
func (e *Engine) Snapshot() *inventory.Snapshot {
	return &inventory.Snapshot{
		Products:     e.ledger.SnapshotProducts(),
		Transactions: e.ledger.SnapshotTransactions(),
		Orders:       e.book.SnapshotOrders(),
	}
}

// persistLocked writes the full snapshot through the gateway.
func (e *Engine) persistLocked(ctx context.Context) error {
	if err := e.gateway.Save(ctx, e.Snapshot()); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// =============================================================================
// STOCK COMMANDS
// =============================================================================

func (e *Engine) AddProduct(ctx context.Context, name string, initialQuantity int, reorderPoint, maxStock *int, unitCost decimal.Decimal) (inventory.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.ledger.AddProduct(name, initialQuantity, reorderPoint, maxStock, unitCost)
	if err != nil {
		return inventory.Product{}, err
	}
	return p, e.persistLocked(ctx)
}

func (e *Engine) StockIn(ctx context.Context, name string, quantity int, referenceID, note string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.StockIn(name, quantity, referenceID, note); err != nil {
		return err
	}
	return e.persistLocked(ctx)
}

func (e *Engine) StockOut(ctx context.Context, name string, quantity int, referenceID, note string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.StockOut(name, quantity, referenceID, note); err != nil {
		return err
	}
	return e.persistLocked(ctx)
}

func (e *Engine) AdjustStock(ctx context.Context, name string, newQuantity int, note string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.AdjustStock(name, newQuantity, note); err != nil {
		return err
	}
	return e.persistLocked(ctx)
}

func (e *Engine) SetReorderPoint(ctx context.Context, name string, point *int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.SetReorderPoint(name, point); err != nil {
		return err
	}
	return e.persistLocked(ctx)
}

func (e *Engine) SetMaxStock(ctx context.Context, name string, max *int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.SetMaxStock(name, max); err != nil {
		return err
	}
	return e.persistLocked(ctx)
}

func (e *Engine) SetAllocatable(ctx context.Context, name string, quantity int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.SetAllocatable(name, quantity); err != nil {
		return err
	}
	return e.persistLocked(ctx)
}

func (e *Engine) AdjustAllocatable(ctx context.Context, name string, delta int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.AdjustAllocatable(name, delta); err != nil {
		return err
	}
	return e.persistLocked(ctx)
}

// =============================================================================
// ORDER COMMANDS
// =============================================================================

func (e *Engine) CreateOrder(ctx context.Context, in orders.CreateInput) (orders.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.book.Create(in)
	if err != nil {
		return orders.Order{}, err
	}
	return o, e.persistLocked(ctx)
}

func (e *Engine) AllocateOrder(ctx context.Context, key orders.Key) (orders.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.book.Allocate(key)
	if err != nil {
		return orders.Order{}, err
	}
	return o, e.persistLocked(ctx)
}

func (e *Engine) ShipOrder(ctx context.Context, key orders.Key) (orders.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.book.Ship(key)
	if err != nil {
		return orders.Order{}, err
	}
	return o, e.persistLocked(ctx)
}

func (e *Engine) CancelOrder(ctx context.Context, key orders.Key) (orders.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.book.Cancel(key)
	if err != nil {
		return orders.Order{}, err
	}
	return o, e.persistLocked(ctx)
}

func (e *Engine) ProduceForOrder(ctx context.Context, key orders.Key, quantity int) (orders.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.book.Produce(key, quantity)
	if err != nil {
		return orders.Order{}, err
	}
	return o, e.persistLocked(ctx)
}

// =============================================================================
// QUERIES - read-only, no snapshot write
// =============================================================================

func (e *Engine) GetProduct(name string) (inventory.Product, error) {
	return e.ledger.GetProduct(name)
}

func (e *Engine) ListProducts() []inventory.Product {
	return e.ledger.ListProducts()
}

func (e *Engine) Transactions() []inventory.Transaction {
	return e.ledger.Transactions()
}

func (e *Engine) ProductHistory(name string) []inventory.Transaction {
	return e.ledger.History(name)
}

func (e *Engine) GetOrder(key orders.Key) (orders.Order, error) {
	return e.book.Get(key)
}

func (e *Engine) ListOrders() []orders.Order {
	return e.book.List()
}

func (e *Engine) ListOrdersByStatus(status orders.Status) []orders.Order {
	return e.book.ListByStatus(status)
}

func (e *Engine) Alerts() []inventory.Alert {
	return e.sink.Alerts()
}
