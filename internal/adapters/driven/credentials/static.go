package credentials

import (
	"context"
	"time"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// StaticSource serves a fixed token set. Useful for tests and for
// configurations that inject tokens directly.
type StaticSource struct {
	tokens map[string]string
}

// NewStaticSource creates a source over a fixed token set.
func NewStaticSource(tokens map[string]string) *StaticSource {
	copied := make(map[string]string, len(tokens))
	for k, v := range tokens {
		copied[k] = v
	}
	return &StaticSource{tokens: copied}
}

// Fetch returns the fixed tokens, stamped with the current time.
func (s *StaticSource) Fetch(ctx context.Context) (domain.CredentialSet, error) {
	return domain.NewCredentialSet(s.tokens, time.Now()), nil
}

// Ensure StaticSource implements ports.CredentialSource
var _ ports.CredentialSource = (*StaticSource)(nil)
