package ports

import (
	"context"
	"errors"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
)

// SessionProvider is the port interface for obtaining a ready vendor session.
// The production implementation caches sessions and refreshes them in the
// background; callers must treat the returned Session as shared and never
// hold one across a long pause (re-request instead).
type SessionProvider interface {
	// Session returns a non-expired session, building one if needed.
	Session(ctx context.Context) (*domain.Session, error)

	// TriggerRefresh asks for an early background rebuild without blocking.
	// Used after a vendor response suggests the session went stale.
	TriggerRefresh()
}

// ErrCacheClosed is returned when a session is requested from a provider
// that has been shut down.
var ErrCacheClosed = errors.New("session cache is closed")
