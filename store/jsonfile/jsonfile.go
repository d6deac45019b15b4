/*
Package jsonfile persists snapshots as a single JSON document on disk.

PURPOSE:
  The default persistence gateway: one human-readable file holding
  products, transactions, and orders.

ATOMIC REPLACE:
  Save writes to a temp file in the same directory, fsyncs, then renames
  over the previous snapshot. A crash mid-write leaves the last valid
  snapshot intact; there is never a moment where the file is partially
  written.

CODEC:
  Uses goccy/go-json, a drop-in encoding/json replacement. Snapshots
  are indented so the file stays diffable and inspectable.

SEE ALSO:
  - inventory/snapshot.go: The snapshot shape and Gateway contract
*/
package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/lumen/inventory-engine/inventory"
)

type Gateway struct {
	path string
}

// New creates a gateway persisting to the given file path. The parent
// directory is created if missing.
func New(path string) (*Gateway, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &Gateway{path: path}, nil
}

// Load reads the snapshot file. A missing file is not an error: it
// means a fresh database, and (nil, nil) is returned.
func (g *Gateway) Load(_ context.Context) (*inventory.Snapshot, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap inventory.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &inventory.CorruptSnapshotError{Source: g.path, Err: err}
	}
	if snap.Products == nil {
		snap.Products = make(map[string]inventory.ProductRecord)
	}
	return &snap, nil
}

// Save atomically replaces the snapshot file.
func (g *Gateway) Save(_ context.Context, snap *inventory.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(g.path), filepath.Base(g.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), g.path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
