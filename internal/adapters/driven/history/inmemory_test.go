//go:build unit

package history

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

func TestInMemoryStore_AppendListAndReplace(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, entryFor("ord-1", 10)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(ctx, entryFor("ord-2", 5)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 || entries[0].OrderID != "ord-2" {
		t.Fatalf("List() = %+v, want newest first", entries)
	}

	updated := entryFor("ord-1", 42)
	if err := store.Append(ctx, updated); err != nil {
		t.Fatalf("Append(update) error = %v", err)
	}
	entries, _ = store.List(ctx)
	if len(entries) != 2 {
		t.Fatalf("List() len = %d after replace, want 2", len(entries))
	}
	if entries[1].Quantity != 42 {
		t.Errorf("replaced Quantity = %d, want 42", entries[1].Quantity)
	}
}

func TestInMemoryStore_UpdateStatusAndTSD(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, entryFor("ord-1", 10)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.UpdateStatus(ctx, "ord-1", domain.StatusReleased); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if err := store.MarkTSDCreated(ctx, "ord-1"); err != nil {
		t.Fatalf("MarkTSDCreated() error = %v", err)
	}

	entries, _ := store.List(ctx)
	if entries[0].Status != domain.StatusReleased || !entries[0].TSDCreated {
		t.Errorf("entry = %+v, want released and tsd_created", entries[0])
	}

	if err := store.UpdateStatus(ctx, "missing", domain.StatusReleased); !errors.Is(err, ports.ErrHistoryEntryNotFound) {
		t.Errorf("UpdateStatus(missing) error = %v, want ErrHistoryEntryNotFound", err)
	}
}

func TestInMemoryStore_ListReturnsCopy(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, entryFor("ord-1", 10)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	entries, _ := store.List(ctx)
	entries[0].OrderID = "mutated"

	again, _ := store.List(ctx)
	if again[0].OrderID != "ord-1" {
		t.Error("List() shares backing storage with callers")
	}
}
