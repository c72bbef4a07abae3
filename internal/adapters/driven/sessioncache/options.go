package sessioncache

import (
	"time"

	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// Option is a functional option for configuring the session cache.
type Option func(*managerOptions)

// Clock provides time functionality for testing.
type Clock interface {
	Now() time.Time
}

// RealClock uses the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

type managerOptions struct {
	lifetime         time.Duration
	refreshThreshold float64
	retryInterval    time.Duration
	requestTimeout   time.Duration
	requiredTokens   []string
	logger           *zap.Logger
	metricsRecorder  ports.MetricsRecorder
	onRefresh        func(error)
	clock            Clock
}

// WithLifetime returns an option that sets how long a session is trusted.
// The portal invalidates cookies after about 13 minutes; the default stays
// just inside that.
func WithLifetime(d time.Duration) Option {
	return func(o *managerOptions) {
		o.lifetime = d
	}
}

// WithRefreshThreshold returns an option that sets the fraction of the
// lifetime after which a handout nudges the background refresher.
// Must be between 0 and 1 exclusive; out-of-range values fall back to the
// default.
func WithRefreshThreshold(fraction float64) Option {
	return func(o *managerOptions) {
		o.refreshThreshold = fraction
	}
}

// WithRetryInterval returns an option that sets the wait after a failed
// background refresh before the next attempt.
func WithRetryInterval(d time.Duration) Option {
	return func(o *managerOptions) {
		o.retryInterval = d
	}
}

// WithRequestTimeout returns an option that sets the per-request timeout of
// the sessions built by the cache.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *managerOptions) {
		o.requestTimeout = d
	}
}

// WithRequiredTokens returns an option that overrides the token names a
// credential set must carry before a session is built from it.
func WithRequiredTokens(names []string) Option {
	return func(o *managerOptions) {
		o.requiredTokens = names
	}
}

// WithLogger returns an option that sets the logger for the cache.
// When set, refresh events (success/failure) will be logged.
func WithLogger(logger *zap.Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// WithMetricsRecorder returns an option that sets the metrics recorder for
// the cache. When set, session handouts and rebuilds will be recorded.
func WithMetricsRecorder(recorder ports.MetricsRecorder) Option {
	return func(o *managerOptions) {
		o.metricsRecorder = recorder
	}
}

// WithOnRefresh returns an option that sets a callback invoked after each
// background refresh. The callback receives the error (nil on success).
// Used for testing synchronization.
func WithOnRefresh(fn func(error)) Option {
	return func(o *managerOptions) {
		o.onRefresh = fn
	}
}

// WithClock returns an option that sets a custom clock for time operations.
// Used for testing lifetime expiration without time.Sleep.
func WithClock(clock Clock) Option {
	return func(o *managerOptions) {
		o.clock = clock
	}
}
