package ports

import (
	"context"
	"errors"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
)

// HistoryStore is the port interface for the local order-history journal.
type HistoryStore interface {
	// Append records a new entry. Appending an existing order id replaces
	// the stored entry.
	Append(ctx context.Context, entry domain.HistoryEntry) error

	// List returns all entries, newest first.
	List(ctx context.Context) ([]domain.HistoryEntry, error)

	// UpdateStatus sets the vendor status of an entry. Returns
	// ErrHistoryEntryNotFound for unknown order ids.
	UpdateStatus(ctx context.Context, orderID string, status domain.Status) error

	// MarkTSDCreated flags that a TSD task was created from this order.
	MarkTSDCreated(ctx context.Context, orderID string) error
}

// ErrHistoryEntryNotFound is returned when an entry cannot be found.
var ErrHistoryEntryNotFound = errors.New("history entry not found")
