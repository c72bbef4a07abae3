package konturapi

import (
	"time"

	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/adapters/driven/history"
	"github.com/kirillbelykh/kontur-api/internal/adapters/driven/kontur"
	"github.com/kirillbelykh/kontur-api/internal/adapters/driven/signing"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// FakeSigner is a deterministic in-memory signer with failure injection.
// Intended for testing consumers of this library without CryptoPro.
type FakeSigner = signing.FakeSigner

// FakeThumbprint identifies the certificate every NewFakeSigner holds.
const FakeThumbprint = signing.FakeThumbprint

// NewFakeSigner creates a fake signer preloaded with one certificate.
func NewFakeSigner() *FakeSigner {
	return signing.NewFakeSigner()
}

// NewInMemoryHistory creates a history journal that forgets on exit.
func NewInMemoryHistory() ports.HistoryStore {
	return history.NewInMemoryStore()
}

// NewClientForTest builds a Client against an arbitrary portal base URL
// with every slow adapter replaced. This constructor is intended for
// testing purposes only; it skips config validation so tests can stay
// minimal.
func NewClientForTest(cfg Config, sessions ports.SessionProvider, signer ports.Signer, store ports.HistoryStore, logger *zap.Logger) *Client {
	cfg.SetDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = history.NewInMemoryStore()
	}

	c := &Client{
		cfg:      cfg,
		logger:   logger,
		metrics:  nil,
		sessions: sessions,
		signer:   signer,
		history:  store,
	}
	c.api = kontur.NewClient(sessions, cfg.OrganizationID, cfg.WarehouseID,
		kontur.WithBaseURL(cfg.BaseURL),
		kontur.WithLogger(logger.Named("portal")),
	)
	c.orders = NewOrderService(c.api, c.api, signer, store, OrderServiceConfig{
		OrganizationID:     cfg.OrganizationID,
		Thumbprint:         cfg.Thumbprint,
		ProductGroup:       cfg.ProductGroup,
		ReleaseMethodType:  cfg.ReleaseMethodType,
		CisType:            cfg.CisType,
		FillingMethod:      cfg.FillingMethod,
		DetachedSignatures: cfg.OrderSignaturesDetached == nil || *cfg.OrderSignaturesDetached,
		CheckRegistration:  cfg.CheckRegistration != nil && *cfg.CheckRegistration,
		PollInterval:       10 * time.Millisecond,
		Logger:             logger.Named("orders"),
	})
	c.circulation = NewCirculationService(c.api, store, CirculationServiceConfig{
		WarehouseID:  cfg.WarehouseID,
		ProductGroup: cfg.ProductGroup,
		CisType:      cfg.CisType,
		Logger:       logger.Named("circulation"),
	})
	c.auth = NewAuthService(c.api, signer, AuthServiceConfig{
		Thumbprint:         cfg.Thumbprint,
		DetachedSignatures: cfg.AuthSignaturesDetached != nil && *cfg.AuthSignaturesDetached,
		Logger:             logger.Named("auth"),
	})
	return c
}
