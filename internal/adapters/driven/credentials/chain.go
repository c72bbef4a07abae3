package credentials

import (
	"context"
	"errors"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// ChainSource tries sources in order and returns the first success.
// Mirrors the portal workflow: read the cookie file if the collector
// already ran, otherwise trigger the collector.
type ChainSource struct {
	sources []ports.CredentialSource
	logger  *zap.Logger
}

// NewChainSource creates a chain over the given sources.
func NewChainSource(logger *zap.Logger, sources ...ports.CredentialSource) *ChainSource {
	return &ChainSource{sources: sources, logger: logger}
}

// Fetch returns the first successful source's credentials. When every
// source fails, all failures are reported together.
func (s *ChainSource) Fetch(ctx context.Context) (domain.CredentialSet, error) {
	if len(s.sources) == 0 {
		return domain.CredentialSet{}, errors.New("no credential sources configured")
	}

	var result *multierror.Error
	for _, source := range s.sources {
		creds, err := source.Fetch(ctx)
		if err == nil {
			return creds, nil
		}
		if s.logger != nil {
			s.logger.Debug("credential source failed, trying next", zap.Error(err))
		}
		result = multierror.Append(result, err)
	}

	return domain.CredentialSet{}, result.ErrorOrNil()
}

// Watch starts change notification on every member source that supports
// it. Returns an error when no member does.
func (s *ChainSource) Watch(ctx context.Context, onChange func()) error {
	var started bool
	for _, source := range s.sources {
		watcher, ok := source.(ports.CredentialWatcher)
		if !ok {
			continue
		}
		if err := watcher.Watch(ctx, onChange); err != nil {
			return err
		}
		started = true
	}
	if !started {
		return errors.New("no watchable credential sources in the chain")
	}
	return nil
}

// Ensure ChainSource implements ports.CredentialSource
var _ ports.CredentialSource = (*ChainSource)(nil)
var _ ports.CredentialWatcher = (*ChainSource)(nil)
