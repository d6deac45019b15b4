/*
snapshot.go - Persistence contract

PURPOSE:
  Defines the snapshot: a complete point-in-time serialization of ledger
  and order state, and the Gateway interface that loads and saves it.
  The core owns the SHAPE of the snapshot; the encoding (JSON file,
  SQLite tables, ...) belongs to the gateway implementations.

WRITE-THROUGH:
  The engine saves the full snapshot after every successful mutating
  command, so a crash after a successful call never loses the change.
  Gateways must replace the previous snapshot atomically - a crash
  mid-write must never corrupt the last valid snapshot.

IMPLEMENTATIONS:
  - store/jsonfile: single JSON document, temp-file-and-rename
  - store/sqlite:   relational tables, one database transaction per save
  - store/memory:   in-memory, for tests and throwaway runs

SEE ALSO:
  - ledger.go: SnapshotProducts/RestoreProducts below operate on it
  - orders/book.go: the order half of the snapshot
*/
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SNAPSHOT RECORDS - Wire shape of persisted state
// =============================================================================

// Snapshot is the full persisted state: every product, the complete
// transaction log, and every order.
type Snapshot struct {
	Products     map[string]ProductRecord `json:"products"`
	Transactions []TransactionRecord      `json:"transactions"`
	Orders       []OrderRecord            `json:"orders"`
}

type ProductRecord struct {
	Quantity      int     `json:"quantity"`
	Allocatable   int     `json:"allocatable"`
	ReorderPoint  *int    `json:"reorderPoint"`
	MaxStock      *int    `json:"maxStock"`
	Cost          float64 `json:"cost"`
	ProductID     string  `json:"productId"`
	CreatedAt     string  `json:"createdAt"`
	LastUpdatedAt string  `json:"lastUpdatedAt"`
}

type TransactionRecord struct {
	ID          string  `json:"id"`
	Timestamp   string  `json:"timestamp"`
	ProductName string  `json:"productName"`
	Kind        string  `json:"kind"`
	Delta       int     `json:"delta"`
	ReferenceID *string `json:"referenceId"`
	Note        string  `json:"note"`
}

type OrderRecord struct {
	TransID           string  `json:"transId"`
	SeqID             string  `json:"seqId"`
	ProductName       string  `json:"productName"`
	Quantity          int     `json:"quantity"`
	UnitPrice         float64 `json:"unitPrice"`
	CustID            string  `json:"custId"`
	CustName          string  `json:"custName"`
	Status            string  `json:"status"`
	AllocatedQuantity int     `json:"allocatedQuantity"`
	Date              string  `json:"date"`

	// Fields beyond the minimal exchange shape, needed for a faithful
	// reload of production orders and audit metadata.
	Kind             string  `json:"kind,omitempty"`
	ProducedQuantity int     `json:"producedQuantity,omitempty"`
	UpdatedAt        string  `json:"updatedAt,omitempty"`
	ShippedAt        *string `json:"shippedAt,omitempty"`
}

// Gateway loads and saves snapshots. Load returns (nil, nil) when no
// snapshot exists yet; undecodable state yields *CorruptSnapshotError.
type Gateway interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// TimeFormat is the timestamp encoding used throughout snapshots.
const TimeFormat = time.RFC3339Nano

// =============================================================================
// LEDGER <-> SNAPSHOT
// =============================================================================

// SnapshotProducts captures the product map as snapshot records.
func (l *Ledger) SnapshotProducts() map[string]ProductRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]ProductRecord, len(l.products))
	for name, p := range l.products {
		out[name] = ProductRecord{
			Quantity:      p.Quantity,
			Allocatable:   p.Allocatable,
			ReorderPoint:  copyIntPtr(p.ReorderPoint),
			MaxStock:      copyIntPtr(p.MaxStock),
			Cost:          p.UnitCost.InexactFloat64(),
			ProductID:     p.ProductID,
			CreatedAt:     p.CreatedAt.Format(TimeFormat),
			LastUpdatedAt: p.LastUpdatedAt.Format(TimeFormat),
		}
	}
	return out
}

// SnapshotTransactions captures the transaction log as snapshot records.
func (l *Ledger) SnapshotTransactions() []TransactionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]TransactionRecord, 0, len(l.transactions))
	for _, tx := range l.transactions {
		rec := TransactionRecord{
			ID:          tx.ID,
			Timestamp:   tx.Timestamp.Format(TimeFormat),
			ProductName: tx.ProductName,
			Kind:        string(tx.Kind),
			Delta:       tx.Delta,
			Note:        tx.Note,
		}
		if tx.ReferenceID != "" {
			ref := tx.ReferenceID
			rec.ReferenceID = &ref
		}
		out = append(out, rec)
	}
	return out
}

// Restore replaces the ledger's state with the given snapshot records.
// Used once at startup; the previous in-memory state is discarded.
func (l *Ledger) Restore(products map[string]ProductRecord, transactions []TransactionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	restored := make(map[string]*Product, len(products))
	for name, rec := range products {
		if rec.Quantity < 0 || rec.Allocatable < 0 {
			return &CorruptSnapshotError{Source: "products",
				Err: fmt.Errorf("product %q has negative quantities", name)}
		}
		createdAt, err := time.Parse(TimeFormat, rec.CreatedAt)
		if err != nil {
			return &CorruptSnapshotError{Source: "products", Err: err}
		}
		updatedAt, err := time.Parse(TimeFormat, rec.LastUpdatedAt)
		if err != nil {
			return &CorruptSnapshotError{Source: "products", Err: err}
		}
		restored[name] = &Product{
			Name:          name,
			ProductID:     rec.ProductID,
			Quantity:      rec.Quantity,
			Allocatable:   rec.Allocatable,
			ReorderPoint:  copyIntPtr(rec.ReorderPoint),
			MaxStock:      copyIntPtr(rec.MaxStock),
			UnitCost:      decimal.NewFromFloat(rec.Cost),
			CreatedAt:     createdAt,
			LastUpdatedAt: updatedAt,
		}
	}

	txs := make([]Transaction, 0, len(transactions))
	for _, rec := range transactions {
		ts, err := time.Parse(TimeFormat, rec.Timestamp)
		if err != nil {
			return &CorruptSnapshotError{Source: "transactions", Err: err}
		}
		kind := TransactionKind(rec.Kind)
		switch kind {
		case TxIn, TxOut, TxAdjust:
		default:
			return &CorruptSnapshotError{Source: "transactions",
				Err: fmt.Errorf("unknown transaction kind %q", rec.Kind)}
		}
		tx := Transaction{
			ID:          rec.ID,
			Timestamp:   ts,
			ProductName: rec.ProductName,
			Kind:        kind,
			Delta:       rec.Delta,
			Note:        rec.Note,
		}
		if rec.ReferenceID != nil {
			tx.ReferenceID = *rec.ReferenceID
		}
		txs = append(txs, tx)
	}

	l.products = restored
	l.transactions = txs
	l.log.Info().Int("products", len(restored)).Int("transactions", len(txs)).
		Msg("ledger restored from snapshot")
	return nil
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
