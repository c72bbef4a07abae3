package konturapi

import (
	"context"

	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/adapters/driven/catalog"
	"github.com/kirillbelykh/kontur-api/internal/adapters/driven/credentials"
	"github.com/kirillbelykh/kontur-api/internal/adapters/driven/history"
	"github.com/kirillbelykh/kontur-api/internal/adapters/driven/kontur"
	"github.com/kirillbelykh/kontur-api/internal/adapters/driven/metrics"
	"github.com/kirillbelykh/kontur-api/internal/adapters/driven/sessioncache"
	"github.com/kirillbelykh/kontur-api/internal/adapters/driven/signing"
	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

const Version = "0.9.0"

// DefaultBaseURL is the production portal.
const DefaultBaseURL = kontur.DefaultBaseURL

// historyFallbackFile absorbs journal writes when the configured path
// (typically a network share) is unreachable.
const historyFallbackFile = "orders_history.json"

// ClientOption overrides one of the adapters the client would otherwise
// build from config. Useful for tests and embedding.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger   *zap.Logger
	source   ports.CredentialSource
	sessions ports.SessionProvider
	signer   ports.Signer
	history  ports.HistoryStore
	metrics  ports.MetricsRecorder
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = logger }
}

// WithCredentialSource replaces the file/command credential chain.
func WithCredentialSource(source ports.CredentialSource) ClientOption {
	return func(o *clientOptions) { o.source = source }
}

// WithSessionProvider replaces the built-in session cache. The caller
// owns the provider's lifecycle; Close will not touch it.
func WithSessionProvider(sessions ports.SessionProvider) ClientOption {
	return func(o *clientOptions) { o.sessions = sessions }
}

// WithSigner replaces the CryptoPro CLI signer.
func WithSigner(signer ports.Signer) ClientOption {
	return func(o *clientOptions) { o.signer = signer }
}

// WithHistoryStore replaces the history journal.
func WithHistoryStore(store ports.HistoryStore) ClientOption {
	return func(o *clientOptions) { o.history = store }
}

// WithMetricsRecorder replaces the metrics recorder selected by
// metrics_enabled.
func WithMetricsRecorder(recorder ports.MetricsRecorder) ClientOption {
	return func(o *clientOptions) { o.metrics = recorder }
}

// Client wires the portal adapters into the document workflows. Build
// one per organization/warehouse pair and share it; all methods are safe
// for concurrent use.
type Client struct {
	cfg     Config
	logger  *zap.Logger
	metrics ports.MetricsRecorder

	sessions      ports.SessionProvider
	ownedSessions *sessioncache.Manager
	watchCancel   context.CancelFunc
	api           *kontur.Client
	signer        ports.Signer
	history       ports.HistoryStore
	catalog       ports.Catalog

	orders      *OrderService
	circulation *CirculationService
	auth        *AuthService
}

// New builds a Client from config. SetDefaults and Validate run first,
// so a zero-value field means its documented default.
func New(cfg Config, opts ...ClientOption) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, domain.ConfigError(err.Error())
	}

	var options clientOptions
	for _, opt := range opts {
		opt(&options)
	}

	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	recorder := options.metrics
	if recorder == nil {
		if cfg.MetricsEnabled {
			recorder = metrics.NewPrometheusMetricsRecorder()
		} else {
			recorder = metrics.NewNoopMetricsRecorder()
		}
	}

	c := &Client{
		cfg:     cfg,
		logger:  logger,
		metrics: recorder,
		signer:  options.signer,
		history: options.history,
	}

	c.sessions = options.sessions
	if c.sessions == nil {
		source := options.source
		if source == nil {
			var err error
			source, err = buildCredentialChain(cfg, logger)
			if err != nil {
				return nil, err
			}
		}
		c.ownedSessions = sessioncache.NewWithRefresh(source, cfg.BaseURL,
			sessioncache.WithLifetime(duration(cfg.SessionLifetime, sessioncache.DefaultLifetime)),
			sessioncache.WithRefreshThreshold(cfg.RefreshThreshold),
			sessioncache.WithRetryInterval(duration(cfg.RetryInterval, sessioncache.DefaultRetryInterval)),
			sessioncache.WithRequestTimeout(duration(cfg.RequestTimeout, domain.DefaultRequestTimeout)),
			sessioncache.WithLogger(logger.Named("sessions")),
			sessioncache.WithMetricsRecorder(recorder),
		)
		c.sessions = c.ownedSessions
		c.watchCredentials(source, logger)
	}

	c.api = kontur.NewClient(c.sessions, cfg.OrganizationID, cfg.WarehouseID,
		kontur.WithBaseURL(cfg.BaseURL),
		kontur.WithLogger(logger.Named("portal")),
		kontur.WithMetricsRecorder(recorder),
	)

	if c.signer == nil {
		c.signer = signing.NewCLISigner(logger.Named("signing"),
			signing.WithCryptcpBinary(cfg.SignTool),
			signing.WithCertmgrBinary(cfg.CertmgrTool),
		)
	}

	if c.history == nil {
		if cfg.HistoryFile != "" {
			c.history = history.NewFileStore(cfg.HistoryFile, logger.Named("history"),
				history.WithFallbackPath(historyFallbackFile))
		} else {
			c.history = history.NewInMemoryStore()
		}
	}

	if cfg.CatalogFile != "" {
		cat, err := catalog.LoadCSVCatalog(cfg.CatalogFile, logger.Named("catalog"))
		if err != nil {
			c.closeOwned()
			return nil, err
		}
		c.catalog = cat
	}

	c.orders = NewOrderService(c.api, c.api, c.signer, c.history, OrderServiceConfig{
		OrganizationID:     cfg.OrganizationID,
		Thumbprint:         cfg.Thumbprint,
		ProductGroup:       cfg.ProductGroup,
		ReleaseMethodType:  cfg.ReleaseMethodType,
		CisType:            cfg.CisType,
		FillingMethod:      cfg.FillingMethod,
		DetachedSignatures: *cfg.OrderSignaturesDetached,
		CheckRegistration:  *cfg.CheckRegistration,
		Logger:             logger.Named("orders"),
		Metrics:            recorder,
	})
	c.circulation = NewCirculationService(c.api, c.history, CirculationServiceConfig{
		WarehouseID:  cfg.WarehouseID,
		ProductGroup: cfg.ProductGroup,
		CisType:      cfg.CisType,
		Logger:       logger.Named("circulation"),
		Metrics:      recorder,
	})
	c.auth = NewAuthService(c.api, c.signer, AuthServiceConfig{
		Thumbprint:         cfg.Thumbprint,
		DetachedSignatures: *cfg.AuthSignaturesDetached,
		Logger:             logger.Named("auth"),
		Metrics:            recorder,
	})

	logger.Info("client ready",
		zap.String("base_url", cfg.BaseURL),
		zap.String("organization_id", cfg.OrganizationID),
		zap.String("warehouse_id", cfg.WarehouseID),
		zap.String("version", Version))

	return c, nil
}

// watchCredentials rebuilds the session as soon as the collector
// rewrites the cookie file, instead of waiting for the lifetime
// threshold. Sources that cannot be watched leave the timer-driven
// refresh as the only trigger.
func (c *Client) watchCredentials(source ports.CredentialSource, logger *zap.Logger) {
	watcher, ok := source.(ports.CredentialWatcher)
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	err := watcher.Watch(ctx, func() {
		logger.Debug("credentials changed, refreshing session")
		c.ownedSessions.TriggerRefresh()
	})
	if err != nil {
		cancel()
		logger.Warn("credential change watching unavailable", zap.Error(err))
		return
	}
	c.watchCancel = cancel
}

// buildCredentialChain assembles the configured credential sources:
// cookie file first, collector command as fallback.
func buildCredentialChain(cfg Config, logger *zap.Logger) (ports.CredentialSource, error) {
	var sources []ports.CredentialSource
	if cfg.CookieFile != "" {
		sources = append(sources, credentials.NewFileSource(cfg.CookieFile, logger.Named("credentials")))
	}
	if cfg.CookieCommand != "" {
		sources = append(sources, credentials.NewExecSource(cfg.CookieCommand, nil, logger.Named("credentials")))
	}
	switch len(sources) {
	case 0:
		return nil, domain.ConfigError("cookie_file or cookie_command is required")
	case 1:
		return sources[0], nil
	default:
		return credentials.NewChainSource(logger.Named("credentials"), sources...), nil
	}
}

// Orders returns the codes-order workflow service.
func (c *Client) Orders() *OrderService {
	return c.orders
}

// Circulation returns the introduction-into-circulation service.
func (c *Client) Circulation() *CirculationService {
	return c.circulation
}

// Auth returns the CRPT token refresh service.
func (c *Client) Auth() *AuthService {
	return c.auth
}

// History returns the order journal.
func (c *Client) History() ports.HistoryStore {
	return c.history
}

// Catalog returns the product catalog, or nil when no catalog_file is
// configured.
func (c *Client) Catalog() ports.Catalog {
	return c.catalog
}

// Workers is the configured bound on parallel workflow runs.
func (c *Client) Workers() int {
	return c.cfg.Workers
}

// SessionInfo returns an observability snapshot of the session cache.
// Zero value when a custom session provider without introspection was
// injected.
func (c *Client) SessionInfo() domain.SessionInfo {
	type inspector interface {
		Info() domain.SessionInfo
	}
	if i, ok := c.sessions.(inspector); ok {
		return i.Info()
	}
	return domain.SessionInfo{}
}

// TriggerSessionRefresh asks the session cache for an early rebuild.
func (c *Client) TriggerSessionRefresh() {
	c.sessions.TriggerRefresh()
}

// Order fetches an order including its current portal status.
func (c *Client) Order(ctx context.Context, orderID string) (domain.Order, error) {
	return c.api.GetOrder(ctx, orderID)
}

// WaitReleased polls the order until the portal releases it or marks it
// failed. Bound the wait through ctx.
func (c *Client) WaitReleased(ctx context.Context, orderID string) (domain.Order, error) {
	return waitReleased(ctx, c.api, orderID, DefaultPollInterval, c.logger)
}

// DownloadCodes fetches the label file of a released order.
func (c *Client) DownloadCodes(ctx context.Context, orderID, fileType string) ([]byte, error) {
	return c.api.DownloadCodes(ctx, orderID, fileType)
}

// Close stops the background session refresher. Only resources the
// client built itself are closed; injected providers stay up.
func (c *Client) Close() error {
	c.closeOwned()
	return nil
}

func (c *Client) closeOwned() {
	if c.watchCancel != nil {
		c.watchCancel()
	}
	if c.ownedSessions != nil {
		c.ownedSessions.Close()
	}
}
