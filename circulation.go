package konturapi

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// IntroductionRequest describes one introduction-into-circulation
// document.
type IntroductionRequest struct {
	// Production carries the verbatim production details. Empty
	// WarehouseID, ProductGroup, CisType, ProductionType and UsageType
	// fall back to the service configuration.
	Production domain.IntroductionProduction

	// Rows are the product rows of the document.
	Rows []domain.IntroductionPosition

	// SourceOrderID links the introduction to the codes order whose
	// labels it covers. When set, the order's history entry is flagged.
	SourceOrderID string
}

// IntroductionResult is what a completed introduction run produced.
type IntroductionResult struct {
	// DocumentID is the portal id of the introduction document.
	DocumentID string

	// SentToTSD is true when the document went to a warehouse terminal
	// instead of the file flow.
	SentToTSD bool

	// RunID correlates log lines of this run.
	RunID string
}

// CirculationServiceConfig carries the per-service settings split off
// the client config.
type CirculationServiceConfig struct {
	WarehouseID  string
	ProductGroup string
	CisType      string

	Logger  *zap.Logger
	Metrics ports.MetricsRecorder
}

// CirculationService drives introduction-into-circulation documents:
// create, fill production details, add rows, then hand over either to
// the file flow or to a warehouse terminal (TSD). Like the order
// workflow, the first failing step aborts.
type CirculationService struct {
	api     ports.CirculationAPI
	history ports.HistoryStore
	cfg     CirculationServiceConfig
}

// NewCirculationService wires an introduction workflow service.
func NewCirculationService(api ports.CirculationAPI, history ports.HistoryStore, cfg CirculationServiceConfig) *CirculationService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &CirculationService{api: api, history: history, cfg: cfg}
}

// Run executes the workflow for one introduction document.
func (s *CirculationService) Run(ctx context.Context, req IntroductionRequest) (result *IntroductionResult, err error) {
	runID := uuid.NewString()
	production := s.withDefaults(req.Production)
	log := s.cfg.Logger.With(
		zap.String("run_id", runID),
		zap.String("document_number", production.DocumentNumber))

	defer func() {
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.RecordWorkflow("introduction", err == nil)
		}
	}()

	if err := production.Validate(); err != nil {
		return nil, domain.SubmissionError("invalid production details", err)
	}

	docID, err := s.api.CreateIntroduction(ctx)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("document_id", docID))

	if err := s.api.SetProduction(ctx, docID, production); err != nil {
		return nil, err
	}

	if len(req.Rows) > 0 {
		err := s.api.AddIntroductionRows(ctx, docID, domain.IntroductionRows{Rows: req.Rows})
		if err != nil {
			return nil, err
		}
		log.Debug("rows added", zap.Int("count", len(req.Rows)))
	}

	toTSD := production.FillingMethod == domain.FillingMethodTSD
	if toTSD {
		err = s.api.SendToTSD(ctx, docID)
	} else {
		err = s.api.Send(ctx, docID)
	}
	if err != nil {
		return nil, err
	}
	log.Info("introduction document sent", zap.Bool("tsd", toTSD))

	s.recordHistory(ctx, docID, production, req.SourceOrderID, toTSD, log)

	return &IntroductionResult{DocumentID: docID, SentToTSD: toTSD, RunID: runID}, nil
}

// withDefaults fills production fields the service knows from config.
func (s *CirculationService) withDefaults(p domain.IntroductionProduction) domain.IntroductionProduction {
	if p.WarehouseID == "" {
		p.WarehouseID = s.cfg.WarehouseID
	}
	if p.ProductGroup == "" {
		p.ProductGroup = s.cfg.ProductGroup
	}
	if p.CisType == "" {
		p.CisType = s.cfg.CisType
	}
	if p.ProductionType == "" {
		p.ProductionType = domain.ProductionTypeOwn
	}
	if p.UsageType == "" {
		p.UsageType = domain.UsageTypeVerified
	}
	return p
}

// recordHistory journals the introduction and flags its source order.
// History failures are logged and never abort a run.
func (s *CirculationService) recordHistory(ctx context.Context, docID string, production domain.IntroductionProduction, sourceOrderID string, toTSD bool, log *zap.Logger) {
	if s.history == nil {
		return
	}
	err := s.history.Append(ctx, domain.HistoryEntry{
		OrderID:        docID,
		DocumentNumber: production.DocumentNumber,
		Kind:           domain.HistoryKindIntroduction,
		Status:         domain.StatusCreated,
	})
	if err != nil {
		log.Warn("history append failed", zap.Error(err))
	}
	if sourceOrderID != "" && toTSD {
		if err := s.history.MarkTSDCreated(ctx, sourceOrderID); err != nil {
			log.Warn("history tsd flag failed",
				zap.String("source_order_id", sourceOrderID),
				zap.Error(err))
		}
	}
}
