// Package history persists the order journal operators use to find and
// re-download past documents. The primary location is typically a
// network share, so writes retry and fall back to a local file.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// writeRetries is how many times a flaky share is retried before the
// fallback kicks in.
const writeRetries = 3

// historyFile is the on-disk envelope.
type historyFile struct {
	Orders     []domain.HistoryEntry `json:"orders"`
	LastUpdate time.Time             `json:"last_update"`
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFallbackPath sets a local file used when the primary path cannot
// be read or written.
func WithFallbackPath(path string) FileOption {
	return func(s *FileStore) { s.fallback = path }
}

// FileStore is a JSON-file order journal. Entries are kept newest
// first. Safe for concurrent use within one process; the file itself is
// replaced atomically.
type FileStore struct {
	path     string
	fallback string
	logger   *zap.Logger

	mu sync.Mutex
}

// NewFileStore creates a journal at path.
func NewFileStore(path string, logger *zap.Logger, opts ...FileOption) *FileStore {
	s := &FileStore{path: path, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records a new entry at the top of the journal. An entry with
// the same order id replaces the stored one in place.
func (s *FileStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return domain.HistoryError("invalid history entry", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file := s.load()
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	replaced := false
	for i, existing := range file.Orders {
		if existing.OrderID == entry.OrderID {
			entry.CreatedAt = existing.CreatedAt
			file.Orders[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		file.Orders = append([]domain.HistoryEntry{entry}, file.Orders...)
	}

	return s.save(file)
}

// List returns all entries, newest first.
func (s *FileStore) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := s.load()
	entries := make([]domain.HistoryEntry, len(file.Orders))
	copy(entries, file.Orders)
	return entries, nil
}

// UpdateStatus sets the vendor status of an entry.
func (s *FileStore) UpdateStatus(ctx context.Context, orderID string, status domain.Status) error {
	return s.update(orderID, func(e *domain.HistoryEntry) {
		e.Status = status
	})
}

// MarkTSDCreated flags that a terminal task was created from an order.
func (s *FileStore) MarkTSDCreated(ctx context.Context, orderID string) error {
	return s.update(orderID, func(e *domain.HistoryEntry) {
		e.TSDCreated = true
	})
}

func (s *FileStore) update(orderID string, mutate func(*domain.HistoryEntry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := s.load()
	for i := range file.Orders {
		if file.Orders[i].OrderID == orderID {
			mutate(&file.Orders[i])
			file.Orders[i].UpdatedAt = time.Now()
			return s.save(file)
		}
	}
	return ports.ErrHistoryEntryNotFound
}

// load reads the journal. A missing or corrupt file yields an empty
// journal rather than an error: history must never block order
// processing.
func (s *FileStore) load() historyFile {
	if file, ok := s.loadFrom(s.path); ok {
		return file
	}
	if s.fallback != "" && s.fallback != s.path {
		if file, ok := s.loadFrom(s.fallback); ok {
			if s.logger != nil {
				s.logger.Warn("history primary unreadable, using fallback",
					zap.String("primary", s.path),
					zap.String("fallback", s.fallback))
			}
			return file
		}
	}
	return historyFile{}
}

func (s *FileStore) loadFrom(path string) (historyFile, bool) {
	var lastErr error
	for attempt := 0; attempt < writeRetries; attempt++ {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return historyFile{}, true
		}
		if err != nil {
			lastErr = err
			continue
		}
		var file historyFile
		if err := json.Unmarshal(data, &file); err != nil {
			if s.logger != nil {
				s.logger.Warn("history file corrupt, starting fresh",
					zap.String("path", path), zap.Error(err))
			}
			return historyFile{}, true
		}
		return file, true
	}
	if s.logger != nil {
		s.logger.Warn("history file unreadable",
			zap.String("path", path), zap.Error(lastErr))
	}
	return historyFile{}, false
}

// save writes the journal atomically, retrying the primary path and
// then falling back. The primary stays configured so later writes try
// the share again.
func (s *FileStore) save(file historyFile) error {
	file.LastUpdate = time.Now()
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return domain.HistoryError("encode history", err)
	}

	primaryErr := s.writeAtomic(s.path, data)
	if primaryErr == nil {
		return nil
	}
	if s.fallback != "" && s.fallback != s.path {
		if err := s.writeAtomic(s.fallback, data); err == nil {
			if s.logger != nil {
				s.logger.Warn("history saved to fallback",
					zap.String("primary", s.path),
					zap.String("fallback", s.fallback),
					zap.Error(primaryErr))
			}
			return nil
		}
	}
	return domain.HistoryError(fmt.Sprintf("save history to %s", s.path), primaryErr)
}

func (s *FileStore) writeAtomic(path string, data []byte) error {
	var lastErr error
	for attempt := 0; attempt < writeRetries; attempt++ {
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			lastErr = err
			continue
		}
		if err := os.Rename(tmp, path); err != nil {
			os.Remove(tmp)
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// Ensure FileStore implements ports.HistoryStore
var _ ports.HistoryStore = (*FileStore)(nil)
