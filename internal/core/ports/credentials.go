package ports

import (
	"context"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
)

// CredentialSource is the port interface for obtaining portal credentials.
// Implementations are adapters: a harvested cookie file, an external
// collector command, a chain of sources, or a static set for tests.
type CredentialSource interface {
	// Fetch obtains a credential set. Implementations must return an error
	// rather than a partially filled set; validation against required token
	// names happens at Session construction.
	Fetch(ctx context.Context) (domain.CredentialSet, error)
}

// CredentialWatcher is implemented by sources that can report when their
// backing credentials change, so the session cache can rebuild right
// away instead of waiting out the lifetime threshold.
type CredentialWatcher interface {
	// Watch invokes onChange on every credential change until ctx is
	// cancelled. onChange must be safe to call from another goroutine.
	Watch(ctx context.Context, onChange func()) error
}
