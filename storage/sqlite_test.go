package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"inmo_scrooper/models"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "searches.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testStores(t *testing.T) map[string]Store {
	return map[string]Store{
		"sqlite": newTestSQLite(t),
		"memory": NewMemoryStore(),
	}
}

func TestRecordRun_UpsertsAndOrders(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		older := models.NewSearchRun("cli", "casas en luque")
		older.StartedAt = time.Now().Add(-time.Hour)
		if err := store.RecordRun(ctx, older); err != nil {
			t.Fatalf("%s: record: %v", name, err)
		}

		newer := models.NewSearchRun("watcher", "terrenos")
		if err := store.RecordRun(ctx, newer); err != nil {
			t.Fatalf("%s: record: %v", name, err)
		}
		newer.Finish("venta/terrenos/cordillera", 1, 12)
		newer.ListingsNew = 3
		if err := store.RecordRun(ctx, newer); err != nil {
			t.Fatalf("%s: update: %v", name, err)
		}

		runs, err := store.RecentRuns(ctx, 10)
		if err != nil {
			t.Fatalf("%s: recent: %v", name, err)
		}
		if len(runs) != 2 {
			t.Fatalf("%s: expected 2 runs, got %d", name, len(runs))
		}
		got := runs[0]
		if got.ID != newer.ID || got.Status != models.RunStatusCompleted || got.ListingsFound != 12 || got.ListingsNew != 3 {
			t.Fatalf("%s: unexpected latest run %+v", name, got)
		}
		if got.FinishedAt == nil || got.Path != "venta/terrenos/cordillera" {
			t.Fatalf("%s: finish fields not persisted: %+v", name, got)
		}
		if runs[1].ID != older.ID || runs[1].FinishedAt != nil {
			t.Fatalf("%s: unexpected older run %+v", name, runs[1])
		}

		limited, _ := store.RecentRuns(ctx, 1)
		if len(limited) != 1 {
			t.Fatalf("%s: limit ignored, got %d", name, len(limited))
		}
	}
}

func TestMarkSeen_ReturnsOnlyFresh(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		fresh, err := store.MarkSeen(ctx, "casas-luque", []string{"1", "2", "3"})
		if err != nil {
			t.Fatalf("%s: mark: %v", name, err)
		}
		if len(fresh) != 3 {
			t.Fatalf("%s: expected all fresh on first pass, got %v", name, fresh)
		}

		fresh, _ = store.MarkSeen(ctx, "casas-luque", []string{"2", "4", "1", "5"})
		if len(fresh) != 2 || fresh[0] != "4" || fresh[1] != "5" {
			t.Fatalf("%s: expected [4 5], got %v", name, fresh)
		}

		// searches are tracked independently
		fresh, _ = store.MarkSeen(ctx, "deptos-asuncion", []string{"1"})
		if len(fresh) != 1 {
			t.Fatalf("%s: expected id to be fresh for another search, got %v", name, fresh)
		}
	}
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	store, err := Open(context.Background(), "", "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}
