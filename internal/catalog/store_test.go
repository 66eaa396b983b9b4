package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestStore_Reload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(`[{"uniq_id": "A", "embedding": [1, 0]}]`), 0600); err != nil {
		t.Fatal(err)
	}
	store, err := OpenStore(ctx, path, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	first := store.Snapshot()
	var swapped *Catalog
	store.OnSwap(func(c *Catalog) { swapped = c })

	if err := os.WriteFile(path, []byte(`[{"uniq_id": "A", "embedding": [1, 0]}, {"uniq_id": "B", "embedding": [0, 1]}]`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := store.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	if store.Snapshot().Len() != 2 {
		t.Errorf("snapshot Len = %d, want 2", store.Snapshot().Len())
	}
	if swapped != store.Snapshot() {
		t.Error("listener was not called with the new snapshot")
	}
	if first.Len() != 1 {
		t.Error("previous snapshot was mutated")
	}
}

func TestStore_ReloadFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(`[{"uniq_id": "A", "embedding": [1, 0]}]`), 0600); err != nil {
		t.Fatal(err)
	}
	store, err := OpenStore(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	before := store.Snapshot()
	if err := os.WriteFile(path, []byte(`[]`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := store.Reload(ctx); err == nil {
		t.Fatal("expected reload error for empty catalog")
	}
	if store.Snapshot() != before {
		t.Error("failed reload replaced the snapshot")
	}
}

func TestStore_InMemoryCannotReload(t *testing.T) {
	cat, _ := New("", []Product{{ID: "a", Embedding: []float32{1}}})
	store := NewStore(cat, nil)
	if err := store.Reload(context.Background()); err == nil {
		t.Error("expected error reloading a catalog without source")
	}
}
