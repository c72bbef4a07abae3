// Package sessioncache maintains a ready-to-use vendor session built from
// externally harvested credentials. The portal invalidates its cookies
// after roughly 13 minutes, so the cache rebuilds the session shortly
// before that and hands out the cached one in between.
package sessioncache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// Defaults match the observed portal cookie lifetime.
const (
	DefaultLifetime         = 13 * time.Minute
	DefaultRefreshThreshold = 0.8
	DefaultRetryInterval    = 60 * time.Second
)

// Manager caches a vendor Session with proactive background refresh.
type Manager struct {
	source           ports.CredentialSource
	baseURL          string
	requiredTokens   []string
	lifetime         time.Duration
	refreshThreshold float64
	retryInterval    time.Duration
	requestTimeout   time.Duration
	logger           *zap.Logger
	metricsRecorder  ports.MetricsRecorder
	onRefresh        func(error) // callback after background refresh (for testing)
	clock            Clock       // for time operations (defaults to RealClock)

	mu          sync.RWMutex
	session     *domain.Session
	isFresh     bool      // true if last refresh succeeded
	lastSuccess time.Time // time of last successful refresh
	lastError   error     // error from last refresh (nil if success)
	refreshes   uint64
	failures    uint64
	closed      bool

	// fetchMu single-flights the slow credential fetch so it never runs
	// under mu: readers of the old, still-valid session are not blocked,
	// and concurrent rebuild attempts collapse into one upstream fetch.
	fetchMu sync.Mutex

	// Background refresh goroutine management
	refreshCh chan struct{}
	stopCh    chan struct{}
}

// New creates a Manager without a background refresher. Sessions are only
// rebuilt synchronously inside Session() when cold or expired.
func New(source ports.CredentialSource, baseURL string, opts ...Option) *Manager {
	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}
	clock := options.clock
	if clock == nil {
		clock = RealClock{}
	}
	lifetime := options.lifetime
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	threshold := options.refreshThreshold
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultRefreshThreshold
	}
	retry := options.retryInterval
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	required := options.requiredTokens
	if required == nil {
		required = domain.DefaultRequiredTokens
	}
	return &Manager{
		source:           source,
		baseURL:          baseURL,
		requiredTokens:   required,
		lifetime:         lifetime,
		refreshThreshold: threshold,
		retryInterval:    retry,
		requestTimeout:   options.requestTimeout,
		logger:           options.logger,
		metricsRecorder:  options.metricsRecorder,
		onRefresh:        options.onRefresh,
		clock:            clock,
		refreshCh:        make(chan struct{}, 1),
	}
}

// NewWithRefresh creates a Manager with an active background refresher.
// The refresher rebuilds the session every lifetime, or earlier when a
// handout crosses the refresh threshold or TriggerRefresh is called.
// Call Close() to stop the background goroutine.
func NewWithRefresh(source ports.CredentialSource, baseURL string, opts ...Option) *Manager {
	m := New(source, baseURL, opts...)
	m.stopCh = make(chan struct{})
	go m.refreshLoop()
	return m
}

// Session returns a non-expired session, building one synchronously when
// the cache is cold or expired. A valid session past the refresh threshold
// is still returned immediately; the background refresher is nudged instead
// of making the caller wait.
func (m *Manager) Session(ctx context.Context) (*domain.Session, error) {
	m.mu.RLock()
	closed := m.closed
	sess := m.session
	m.mu.RUnlock()

	if closed {
		return nil, ports.ErrCacheClosed
	}

	now := m.clock.Now()
	if sess != nil && !sess.Expired(now, m.lifetime) {
		if m.pastThreshold(sess, now) {
			m.TriggerRefresh()
		}
		if m.metricsRecorder != nil {
			m.metricsRecorder.RecordSessionServed(true)
		}
		return sess, nil
	}

	fresh, err := m.rebuild(ctx, "sync", false)
	if err != nil {
		return nil, err
	}
	if m.metricsRecorder != nil {
		m.metricsRecorder.RecordSessionServed(false)
	}
	return fresh, nil
}

// TriggerRefresh asks the background refresher for an early rebuild.
// Non-blocking; repeated triggers before the refresher wakes coalesce.
// Without a background refresher the next Session() call still rebuilds
// on expiry, so this degrades to a no-op.
func (m *Manager) TriggerRefresh() {
	select {
	case m.refreshCh <- struct{}{}:
	default:
	}
}

// Info returns an observability snapshot of the cache.
func (m *Manager) Info() domain.SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := domain.SessionInfo{
		HasSession:  m.session != nil,
		Fresh:       m.isFresh,
		LastError:   m.lastError,
		LastSuccess: m.lastSuccess,
		Refreshes:   m.refreshes,
		Failures:    m.failures,
	}
	if m.session != nil {
		info.IssuedAt = m.session.IssuedAt()
		info.Age = m.session.Age(m.clock.Now())
	}
	return info
}

// Close stops the background refresh goroutine if running.
// Safe to call multiple times (idempotent).
// Safe to call on managers created without background refresh.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		if m.stopCh != nil {
			close(m.stopCh)
		}
		m.closed = true
	}
	return nil
}

// refreshLoop rebuilds the session after every lifetime, on demand via the
// refresh channel, and after retryInterval following a failure.
func (m *Manager) refreshLoop() {
	wait := m.lifetime
	for {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-m.refreshCh:
			timer.Stop()
		case <-m.stopCh:
			timer.Stop()
			return
		}

		_, err := m.rebuild(context.Background(), "background", true)
		if err != nil {
			wait = m.retryInterval
			if m.logger != nil {
				m.logger.Warn("background session refresh failed",
					zap.Error(err),
					zap.Duration("retry_in", wait))
			}
		} else {
			wait = m.lifetime
			if m.logger != nil {
				m.logger.Info("background session refresh succeeded",
					zap.Duration("next_refresh_in", wait))
			}
		}
		if m.onRefresh != nil {
			m.onRefresh(err)
		}
	}
}

// rebuild fetches credentials and swaps in a new session.
// If force is false and another flight already installed a valid session
// while this one waited on fetchMu, that session is returned untouched.
// The fetch itself runs outside mu; only the final swap takes the write
// lock.
func (m *Manager) rebuild(ctx context.Context, trigger string, force bool) (*domain.Session, error) {
	m.fetchMu.Lock()
	defer m.fetchMu.Unlock()

	m.mu.RLock()
	closed := m.closed
	sess := m.session
	m.mu.RUnlock()
	if closed {
		return nil, ports.ErrCacheClosed
	}
	if !force && sess != nil && !sess.Expired(m.clock.Now(), m.lifetime) {
		return sess, nil
	}

	creds, err := m.source.Fetch(ctx)
	if err != nil {
		refreshErr := domain.CredentialError("fetch credentials", err)
		m.markRefreshFailed(trigger, refreshErr)
		return nil, refreshErr
	}

	fresh, err := domain.NewSession(m.baseURL, creds, m.requiredTokens, m.requestTimeout, m.clock.Now())
	if err != nil {
		m.markRefreshFailed(trigger, err)
		return nil, err
	}

	now := m.clock.Now()
	m.mu.Lock()
	m.session = fresh
	m.isFresh = true
	m.lastSuccess = now
	m.lastError = nil
	m.refreshes++
	m.mu.Unlock()

	if m.metricsRecorder != nil {
		m.metricsRecorder.RecordSessionRefresh(trigger, true)
	}
	if m.logger != nil {
		m.logger.Debug("session rebuilt",
			zap.String("trigger", trigger),
			zap.Time("issued_at", fresh.IssuedAt()))
	}

	return fresh, nil
}

// markRefreshFailed updates state when a rebuild fails, preserving the
// previous session so readers keep working until it expires.
func (m *Manager) markRefreshFailed(trigger string, err error) {
	m.mu.Lock()
	m.isFresh = false
	m.lastError = err
	m.failures++
	m.mu.Unlock()

	if m.metricsRecorder != nil {
		m.metricsRecorder.RecordSessionRefresh(trigger, false)
	}
}

// pastThreshold reports whether the session crossed the proactive-refresh
// point of its lifetime.
func (m *Manager) pastThreshold(sess *domain.Session, now time.Time) bool {
	return float64(sess.Age(now)) > m.refreshThreshold*float64(m.lifetime)
}

// Ensure Manager implements ports.SessionProvider
var _ ports.SessionProvider = (*Manager)(nil)
