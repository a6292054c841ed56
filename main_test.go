package main

import (
	"context"
	"errors"
	"testing"

	"inmo_scrooper/catalog"
	"inmo_scrooper/config"
	"inmo_scrooper/location"
	"inmo_scrooper/storage"
	"inmo_scrooper/workers"
)

type unavailableStore struct {
	storage.Store
}

func (unavailableStore) MarkSeen(ctx context.Context, search string, ids []string) ([]string, error) {
	return nil, errors.New("database is locked")
}

func TestWatchOnce_ExitCode(t *testing.T) {
	svc := newChatService(t, "<html></html>")
	resolver := location.NewResolver(catalog.Default())
	saved := []config.SavedSearch{{Name: "deptos", Query: "alquiler departamento en asuncion"}}

	ok := workers.NewWatcher(svc, resolver, storage.NewMemoryStore(), saved)
	if code := watchOnce(context.Background(), ok); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	broken := workers.NewWatcher(svc, resolver, unavailableStore{storage.NewMemoryStore()}, saved)
	if code := watchOnce(context.Background(), broken); code != 1 {
		t.Fatalf("expected exit code 1 when the pass fails, got %d", code)
	}
}
