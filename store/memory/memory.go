// Package memory provides an in-memory snapshot gateway for tests and
// throwaway runs. Snapshots are deep-copied on both Load and Save so
// callers can't mutate stored state through shared slices.
package memory

import (
	"context"
	"sync"

	"github.com/lumen/inventory-engine/inventory"
)

type Gateway struct {
	mu   sync.RWMutex
	snap *inventory.Snapshot
}

func New() *Gateway {
	return &Gateway{}
}

// Load returns the last saved snapshot, or (nil, nil) before the first save.
func (g *Gateway) Load(_ context.Context) (*inventory.Snapshot, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.snap == nil {
		return nil, nil
	}
	return copySnapshot(g.snap), nil
}

func (g *Gateway) Save(_ context.Context, snap *inventory.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.snap = copySnapshot(snap)
	return nil
}

func copySnapshot(snap *inventory.Snapshot) *inventory.Snapshot {
	out := &inventory.Snapshot{
		Products:     make(map[string]inventory.ProductRecord, len(snap.Products)),
		Transactions: make([]inventory.TransactionRecord, len(snap.Transactions)),
		Orders:       make([]inventory.OrderRecord, len(snap.Orders)),
	}
	for name, rec := range snap.Products {
		out.Products[name] = copyProduct(rec)
	}
	for i, rec := range snap.Transactions {
		out.Transactions[i] = copyTransaction(rec)
	}
	for i, rec := range snap.Orders {
		out.Orders[i] = copyOrder(rec)
	}
	return out
}

func copyProduct(rec inventory.ProductRecord) inventory.ProductRecord {
	rec.ReorderPoint = copyIntPtr(rec.ReorderPoint)
	rec.MaxStock = copyIntPtr(rec.MaxStock)
	return rec
}

func copyTransaction(rec inventory.TransactionRecord) inventory.TransactionRecord {
	if rec.ReferenceID != nil {
		ref := *rec.ReferenceID
		rec.ReferenceID = &ref
	}
	return rec
}

func copyOrder(rec inventory.OrderRecord) inventory.OrderRecord {
	if rec.ShippedAt != nil {
		s := *rec.ShippedAt
		rec.ShippedAt = &s
	}
	return rec
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
