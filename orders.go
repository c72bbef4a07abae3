package konturapi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// OrderRequest describes one codes order to run through the workflow.
type OrderRequest struct {
	// DocumentNumber is the operator-visible order number.
	DocumentNumber string

	// Comment is free text attached to the order.
	Comment string

	// Positions are the product lines. At least one is required.
	Positions []domain.Position

	// Multistep creates the order empty and fills it in follow-up
	// requests, the way the portal frontend does for some product groups.
	// Default is the single-request create.
	Multistep bool
}

// OrderResult is what a completed workflow run produced.
type OrderResult struct {
	// OrderID is the portal id of the created order.
	OrderID string

	// Status is the final vendor status, released on success.
	Status domain.Status

	// Signed is how many payloads were signed and submitted.
	Signed int

	// RunID correlates log lines of this run.
	RunID string
}

// OrderServiceConfig carries the per-service settings split off the
// client config.
type OrderServiceConfig struct {
	OrganizationID     string
	Thumbprint         string
	ProductGroup       string
	ReleaseMethodType  string
	CisType            string
	FillingMethod      string
	DetachedSignatures bool
	CheckRegistration  bool

	// PollInterval overrides the released-status poll interval. Tests
	// shrink it; zero means DefaultPollInterval.
	PollInterval time.Duration

	Logger  *zap.Logger
	Metrics ports.MetricsRecorder
}

// OrderService drives a codes order from creation to released codes:
// create, check availability, check certificate registration, fetch the
// signable payloads, sign them, submit, wait for release. The first
// failing step aborts the run with that step's error; there is no
// rollback and no retry.
type OrderService struct {
	api     ports.OrderAPI
	auth    ports.AuthAPI
	signer  ports.Signer
	history ports.HistoryStore
	cfg     OrderServiceConfig
}

// NewOrderService wires an order workflow service.
func NewOrderService(api ports.OrderAPI, auth ports.AuthAPI, signer ports.Signer, history ports.HistoryStore, cfg OrderServiceConfig) *OrderService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &OrderService{
		api:     api,
		auth:    auth,
		signer:  signer,
		history: history,
		cfg:     cfg,
	}
}

// Run executes the workflow for one order.
func (s *OrderService) Run(ctx context.Context, req OrderRequest) (result *OrderResult, err error) {
	runID := uuid.NewString()
	log := s.cfg.Logger.With(
		zap.String("run_id", runID),
		zap.String("document_number", req.DocumentNumber))

	defer func() {
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.RecordWorkflow("order", err == nil)
		}
	}()

	orderID, err := s.create(ctx, req, log)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("order_id", orderID))
	s.recordHistory(ctx, orderID, req, log)

	if err := s.checkAvailable(ctx, orderID, log); err != nil {
		return nil, err
	}

	if s.cfg.CheckRegistration {
		if err := s.checkRegistered(ctx, log); err != nil {
			return nil, err
		}
	}

	signables, err := s.api.DocumentsToSign(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(signables) == 0 {
		return nil, domain.EmptySignablesError(orderID)
	}
	log.Info("fetched signable payloads", zap.Int("count", len(signables)))

	signed, err := s.signAll(ctx, signables, log)
	if err != nil {
		return nil, err
	}

	if err := s.api.SubmitSignatures(ctx, orderID, signed); err != nil {
		return nil, err
	}
	log.Info("signatures submitted", zap.Int("count", len(signed)))

	final, err := waitReleased(ctx, s.api, orderID, s.cfg.PollInterval, log)
	if err != nil {
		s.updateHistoryStatus(ctx, orderID, final.Status, log)
		return nil, err
	}
	s.updateHistoryStatus(ctx, orderID, final.Status, log)
	log.Info("order released")

	return &OrderResult{
		OrderID: orderID,
		Status:  final.Status,
		Signed:  len(signed),
		RunID:   runID,
	}, nil
}

// create submits the order, single-shot or multistep.
func (s *OrderService) create(ctx context.Context, req OrderRequest, log *zap.Logger) (string, error) {
	if req.Multistep {
		return s.createMultistep(ctx, req, log)
	}
	draft := domain.OrderDraft{
		DocumentNumber:    req.DocumentNumber,
		Comment:           req.Comment,
		ProductGroup:      s.cfg.ProductGroup,
		ReleaseMethodType: s.cfg.ReleaseMethodType,
		FillingMethod:     s.cfg.FillingMethod,
		CisType:           s.cfg.CisType,
		Positions:         req.Positions,
	}
	return s.api.CreateOrder(ctx, draft)
}

// createMultistep mirrors the portal frontend: an empty order, a header
// update, then one add-and-fill round trip per position.
func (s *OrderService) createMultistep(ctx context.Context, req OrderRequest, log *zap.Logger) (string, error) {
	if len(req.Positions) == 0 {
		return "", domain.SubmissionError(
			fmt.Sprintf("order %s: at least one position is required", req.DocumentNumber), nil)
	}

	orderID, err := s.api.CreateOrderStub(ctx, domain.OrderStub{
		ReleaseMethodType: s.cfg.ReleaseMethodType,
		Comment:           req.Comment,
		ProductGroup:      s.cfg.ProductGroup,
	})
	if err != nil {
		return "", err
	}

	err = s.api.UpdateOrder(ctx, orderID, domain.OrderUpdate{
		DocumentNumber: req.DocumentNumber,
		Comment:        req.Comment,
		FillingMethod:  s.cfg.FillingMethod,
		PaymentType:    domain.PaymentTypeUponApplication,
		CisType:        s.cfg.CisType,
	})
	if err != nil {
		return "", err
	}

	for _, p := range req.Positions {
		posID, err := s.api.AddPosition(ctx, orderID, domain.PositionDraft{
			GTIN:      p.GTIN,
			Name:      p.Name,
			TNVEDCode: p.TNVEDCode,
		})
		if err != nil {
			return "", err
		}
		err = s.api.UpdatePosition(ctx, orderID, posID, domain.PositionPatch{
			Name:      p.Name,
			Quantity:  p.Quantity,
			TNVEDCode: p.TNVEDCode,
		})
		if err != nil {
			return "", err
		}
	}
	log.Debug("multistep order assembled", zap.Int("positions", len(req.Positions)))
	return orderID, nil
}

// checkAvailable aborts unless the portal has the order ready for
// signing.
func (s *OrderService) checkAvailable(ctx context.Context, orderID string, log *zap.Logger) error {
	order, err := s.api.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.Available() {
		return domain.NotAvailableError(orderID, string(order.Status))
	}
	log.Debug("order available for signing")
	return nil
}

// checkRegistered confirms the portal knows the signing certificate for
// this organization.
func (s *OrderService) checkRegistered(ctx context.Context, log *zap.Logger) error {
	registered, err := s.auth.RegisteredCertificates(ctx)
	if err != nil {
		return err
	}
	for _, cert := range registered {
		if domain.SameThumbprint(cert.Thumbprint, s.cfg.Thumbprint) {
			log.Debug("certificate registered", zap.String("thumbprint", cert.Thumbprint))
			return nil
		}
	}
	return domain.CertNotRegisteredError(s.cfg.Thumbprint, s.cfg.OrganizationID)
}

// signAll signs every payload with the order detachment mode. The
// certificate is resolved once; a failure on any item aborts.
func (s *OrderService) signAll(ctx context.Context, signables []domain.Signable, log *zap.Logger) ([]domain.SignedItem, error) {
	cert, err := s.signer.FindCertificate(ctx, s.cfg.Thumbprint)
	if err != nil {
		return nil, err
	}

	signed := make([]domain.SignedItem, 0, len(signables))
	for _, item := range signables {
		signature, err := s.signer.Sign(ctx, cert, item.Base64Content, s.cfg.DetachedSignatures)
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.RecordSigning(s.cfg.DetachedSignatures, err == nil)
		}
		if err != nil {
			return nil, err
		}
		signed = append(signed, domain.SignedItem{ID: item.ID, Signature: signature})
	}
	log.Debug("payloads signed",
		zap.Int("count", len(signed)),
		zap.Bool("detached", s.cfg.DetachedSignatures))
	return signed, nil
}

// recordHistory journals the created order. History failures are logged
// and never abort a run.
func (s *OrderService) recordHistory(ctx context.Context, orderID string, req OrderRequest, log *zap.Logger) {
	if s.history == nil {
		return
	}
	quantity := 0
	for _, p := range req.Positions {
		quantity += p.Quantity
	}
	err := s.history.Append(ctx, domain.HistoryEntry{
		OrderID:        orderID,
		DocumentNumber: req.DocumentNumber,
		Kind:           domain.HistoryKindOrder,
		Status:         domain.StatusCreated,
		Quantity:       quantity,
	})
	if err != nil {
		log.Warn("history append failed", zap.Error(err))
	}
}

func (s *OrderService) updateHistoryStatus(ctx context.Context, orderID string, status domain.Status, log *zap.Logger) {
	if s.history == nil || status == "" {
		return
	}
	if err := s.history.UpdateStatus(ctx, orderID, status); err != nil {
		log.Warn("history status update failed", zap.Error(err))
	}
}
