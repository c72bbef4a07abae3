package history

import (
	"context"
	"sync"
	"time"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// InMemoryStore is an in-memory implementation of HistoryStore.
// Suitable for testing and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
}

// NewInMemoryStore creates a new in-memory journal.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append records a new entry at the top. An entry with the same order
// id replaces the stored one in place.
func (s *InMemoryStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return domain.HistoryError("invalid history entry", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	for i, existing := range s.entries {
		if existing.OrderID == entry.OrderID {
			entry.CreatedAt = existing.CreatedAt
			s.entries[i] = entry
			return nil
		}
	}
	s.entries = append([]domain.HistoryEntry{entry}, s.entries...)
	return nil
}

// List returns all entries, newest first.
func (s *InMemoryStore) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.HistoryEntry, len(s.entries))
	copy(entries, s.entries)
	return entries, nil
}

// UpdateStatus sets the vendor status of an entry.
func (s *InMemoryStore) UpdateStatus(ctx context.Context, orderID string, status domain.Status) error {
	return s.update(orderID, func(e *domain.HistoryEntry) {
		e.Status = status
	})
}

// MarkTSDCreated flags that a terminal task was created from an order.
func (s *InMemoryStore) MarkTSDCreated(ctx context.Context, orderID string) error {
	return s.update(orderID, func(e *domain.HistoryEntry) {
		e.TSDCreated = true
	})
}

func (s *InMemoryStore) update(orderID string, mutate func(*domain.HistoryEntry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].OrderID == orderID {
			mutate(&s.entries[i])
			s.entries[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return ports.ErrHistoryEntryNotFound
}

// Ensure InMemoryStore implements ports.HistoryStore
var _ ports.HistoryStore = (*InMemoryStore)(nil)
