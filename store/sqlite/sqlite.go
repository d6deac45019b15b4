/*
Package sqlite provides a SQLite-backed snapshot gateway.

PURPOSE:
  Persists the snapshot relationally - one row per product, transaction,
  and order - for deployments that prefer a queryable database over a
  JSON file. Implements the same inventory.Gateway contract.

KEY TABLES:
  products:     Current stock position per product
  transactions: The append-only movement log
  orders:       Every order line, terminal ones included

SAVE SEMANTICS:
  Save replaces the whole snapshot inside a single database transaction,
  so readers never observe a half-written state and a crash mid-save
  rolls back to the previous snapshot. This is the relational equivalent
  of the JSON gateway's temp-file-and-rename.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better crash
  recovery and non-blocking reads.

USAGE:
  gw, err := sqlite.New("./data/inventory.db")
  if err != nil {
      log.Fatal(err)
  }
  defer gw.Close()

SEE ALSO:
  - inventory/snapshot.go: Gateway contract and record shapes
  - store/jsonfile: File-based alternative
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lumen/inventory-engine/inventory"
)

// Gateway implements inventory.Gateway on a SQLite database.
type Gateway struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Gateway, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	g := &Gateway{db: db}
	if err := g.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return g, nil
}

// Close closes the database connection.
func (g *Gateway) Close() error {
	return g.db.Close()
}

func (g *Gateway) migrate() error {
	schema := `
	-- Current stock position per product
	CREATE TABLE IF NOT EXISTS products (
		name TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		allocatable INTEGER NOT NULL,
		reorder_point INTEGER,
		max_stock INTEGER,
		cost REAL NOT NULL,
		created_at TEXT NOT NULL,
		last_updated_at TEXT NOT NULL
	);

	-- Append-only movement log
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		timestamp TEXT NOT NULL,
		product_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		delta INTEGER NOT NULL,
		reference_id TEXT,
		note TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_product ON transactions(product_name, seq);

	-- Order lines, keyed by (trans_id, seq_id)
	CREATE TABLE IF NOT EXISTS orders (
		trans_id TEXT NOT NULL,
		seq_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price REAL NOT NULL,
		cust_id TEXT NOT NULL DEFAULT '',
		cust_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		allocated_quantity INTEGER NOT NULL,
		produced_quantity INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		shipped_at TEXT,
		PRIMARY KEY (trans_id, seq_id)
	);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	`

	_, err := g.db.Exec(schema)
	return err
}

// =============================================================================
// SAVE - Full snapshot replace in one database transaction
// =============================================================================

func (g *Gateway) Save(ctx context.Context, snap *inventory.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	sqlTx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer sqlTx.Rollback()

	for _, table := range []string{"products", "transactions", "orders"} {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for name, rec := range snap.Products {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO products
			(name, product_id, quantity, allocatable, reorder_point, max_stock, cost, created_at, last_updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			name, rec.ProductID, rec.Quantity, rec.Allocatable,
			nullInt(rec.ReorderPoint), nullInt(rec.MaxStock),
			rec.Cost, rec.CreatedAt, rec.LastUpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save product %q: %w", name, err)
		}
	}

	for i, rec := range snap.Transactions {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO transactions
			(id, seq, timestamp, product_name, kind, delta, reference_id, note)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, i, rec.Timestamp, rec.ProductName, rec.Kind, rec.Delta,
			nullStr(rec.ReferenceID), rec.Note,
		)
		if err != nil {
			return fmt.Errorf("failed to save transaction %q: %w", rec.ID, err)
		}
	}

	for _, rec := range snap.Orders {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO orders
			(trans_id, seq_id, kind, product_name, quantity, unit_price, cust_id, cust_name,
			 status, allocated_quantity, produced_quantity, created_at, updated_at, shipped_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.TransID, rec.SeqID, rec.Kind, rec.ProductName, rec.Quantity, rec.UnitPrice,
			rec.CustID, rec.CustName, rec.Status, rec.AllocatedQuantity, rec.ProducedQuantity,
			rec.Date, rec.UpdatedAt, nullStr(rec.ShippedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to save order %s-%s: %w", rec.TransID, rec.SeqID, err)
		}
	}

	return sqlTx.Commit()
}

// =============================================================================
// LOAD - Rebuild the snapshot from rows
// =============================================================================

func (g *Gateway) Load(ctx context.Context) (*inventory.Snapshot, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := &inventory.Snapshot{Products: make(map[string]inventory.ProductRecord)}

	rows, err := g.db.QueryContext(ctx, `
		SELECT name, product_id, quantity, allocatable, reorder_point, max_stock, cost, created_at, last_updated_at
		FROM products`)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var rec inventory.ProductRecord
		var reorderPoint, maxStock sql.NullInt64
		if err := rows.Scan(&name, &rec.ProductID, &rec.Quantity, &rec.Allocatable,
			&reorderPoint, &maxStock, &rec.Cost, &rec.CreatedAt, &rec.LastUpdatedAt); err != nil {
			return nil, &inventory.CorruptSnapshotError{Source: "sqlite:products", Err: err}
		}
		rec.ReorderPoint = fromNullInt(reorderPoint)
		rec.MaxStock = fromNullInt(maxStock)
		snap.Products[name] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	txRows, err := g.db.QueryContext(ctx, `
		SELECT id, timestamp, product_name, kind, delta, reference_id, note
		FROM transactions ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	defer txRows.Close()
	for txRows.Next() {
		var rec inventory.TransactionRecord
		var ref sql.NullString
		if err := txRows.Scan(&rec.ID, &rec.Timestamp, &rec.ProductName, &rec.Kind,
			&rec.Delta, &ref, &rec.Note); err != nil {
			return nil, &inventory.CorruptSnapshotError{Source: "sqlite:transactions", Err: err}
		}
		if ref.Valid {
			rec.ReferenceID = &ref.String
		}
		snap.Transactions = append(snap.Transactions, rec)
	}
	if err := txRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	orderRows, err := g.db.QueryContext(ctx, `
		SELECT trans_id, seq_id, kind, product_name, quantity, unit_price, cust_id, cust_name,
		       status, allocated_quantity, produced_quantity, created_at, updated_at, shipped_at
		FROM orders ORDER BY trans_id ASC, seq_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	defer orderRows.Close()
	for orderRows.Next() {
		var rec inventory.OrderRecord
		var shippedAt sql.NullString
		if err := orderRows.Scan(&rec.TransID, &rec.SeqID, &rec.Kind, &rec.ProductName,
			&rec.Quantity, &rec.UnitPrice, &rec.CustID, &rec.CustName, &rec.Status,
			&rec.AllocatedQuantity, &rec.ProducedQuantity, &rec.Date, &rec.UpdatedAt,
			&shippedAt); err != nil {
			return nil, &inventory.CorruptSnapshotError{Source: "sqlite:orders", Err: err}
		}
		if shippedAt.Valid {
			rec.ShippedAt = &shippedAt.String
		}
		snap.Orders = append(snap.Orders, rec)
	}
	if err := orderRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	// An untouched database means no snapshot yet, not an empty one.
	if len(snap.Products) == 0 && len(snap.Transactions) == 0 && len(snap.Orders) == 0 {
		return nil, nil
	}
	return snap, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func fromNullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
