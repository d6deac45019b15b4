package jsonfile_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen/inventory-engine/inventory"
	"github.com/lumen/inventory-engine/store/jsonfile"
)

func testSnapshot() *inventory.Snapshot {
	reorder := 10
	ref := "PO-1"
	shipped := "2024-03-01T10:00:00Z"
	return &inventory.Snapshot{
		Products: map[string]inventory.ProductRecord{
			"Lamp": {
				Quantity:      105,
				Allocatable:   30,
				ReorderPoint:  &reorder,
				Cost:          12.5,
				ProductID:     "a1b2c3d4",
				CreatedAt:     "2024-01-02T03:04:05Z",
				LastUpdatedAt: "2024-01-03T03:04:05Z",
			},
		},
		Transactions: []inventory.TransactionRecord{
			{ID: "t1", Timestamp: "2024-01-02T04:00:00Z", ProductName: "Lamp",
				Kind: "in", Delta: 20, ReferenceID: &ref, Note: "restock"},
			{ID: "t2", Timestamp: "2024-01-02T05:00:00Z", ProductName: "Lamp",
				Kind: "out", Delta: -15},
		},
		Orders: []inventory.OrderRecord{
			{TransID: "SO1", SeqID: "001", ProductName: "Lamp", Quantity: 15,
				UnitPrice: 20, CustID: "C1", CustName: "Acme", Status: "shipped",
				AllocatedQuantity: 15, Date: "2024-02-01T09:00:00Z",
				Kind: "sales", ShippedAt: &shipped},
		},
	}
}

func TestGateway_SaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	gateway, err := jsonfile.New(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, gateway.Save(ctx, testSnapshot()))

	loaded, err := gateway.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, testSnapshot(), loaded)
}

func TestGateway_Load_MissingFile_NotAnError(t *testing.T) {
	gateway, err := jsonfile.New(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	snap, err := gateway.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap, "a missing file means a fresh database")
}

func TestGateway_Load_Unparseable_CorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	gateway, err := jsonfile.New(path)
	require.NoError(t, err)

	_, err = gateway.Load(context.Background())
	assert.ErrorIs(t, err, inventory.ErrCorruptSnapshot)

	var corrupt *inventory.CorruptSnapshotError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, path, corrupt.Source)
}

func TestGateway_Save_ReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inventory.json")
	gateway, err := jsonfile.New(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, gateway.Save(ctx, testSnapshot()))

	second := testSnapshot()
	rec := second.Products["Lamp"]
	rec.Quantity = 999
	second.Products["Lamp"] = rec
	require.NoError(t, gateway.Save(ctx, second))

	loaded, err := gateway.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 999, loaded.Products["Lamp"].Quantity)

	// No temp files are left behind after the rename.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "inventory.json", entries[0].Name())
}

func TestGateway_New_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "inventory.json")
	gateway, err := jsonfile.New(path)
	require.NoError(t, err)

	require.NoError(t, gateway.Save(context.Background(), testSnapshot()))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestGateway_Save_FileIsIndentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	gateway, err := jsonfile.New(path)
	require.NoError(t, err)

	require.NoError(t, gateway.Save(context.Background(), testSnapshot()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "\n  \"products\""),
		"snapshot file should stay human-readable")
}
