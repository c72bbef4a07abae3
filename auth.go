package konturapi

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// AuthResult reports what a token refresh did.
type AuthResult struct {
	// Answered is how many challenges were signed and returned.
	Answered int

	// Skipped is how many challenges needed no answer.
	Skipped int

	// RunID correlates log lines of this run.
	RunID string
}

// AuthServiceConfig carries the per-service settings split off the
// client config.
type AuthServiceConfig struct {
	Thumbprint string

	// DetachedSignatures selects detached mode for challenge signatures.
	// The portal wants attached; this stays false outside of tests.
	DetachedSignatures bool

	Logger  *zap.Logger
	Metrics ports.MetricsRecorder
}

// AuthService refreshes the portal's CRPT tokens by signing the pending
// authentication challenges. The portal issues one challenge per product
// group; only some groups must be answered.
type AuthService struct {
	api    ports.AuthAPI
	signer ports.Signer
	cfg    AuthServiceConfig
}

// NewAuthService wires a token refresh service.
func NewAuthService(api ports.AuthAPI, signer ports.Signer, cfg AuthServiceConfig) *AuthService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &AuthService{api: api, signer: signer, cfg: cfg}
}

// RefreshTokens signs and submits the pending challenges.
func (s *AuthService) RefreshTokens(ctx context.Context) (result *AuthResult, err error) {
	runID := uuid.NewString()
	log := s.cfg.Logger.With(zap.String("run_id", runID))

	defer func() {
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.RecordWorkflow("auth", err == nil)
		}
	}()

	challenges, err := s.api.AuthChallenges(ctx)
	if err != nil {
		return nil, err
	}
	if len(challenges) == 0 {
		log.Info("no auth challenges pending")
		return &AuthResult{RunID: runID}, nil
	}

	cert, err := s.signer.FindCertificate(ctx, s.cfg.Thumbprint)
	if err != nil {
		return nil, err
	}

	answers := make([]domain.AuthAnswer, 0, len(challenges))
	skipped := 0
	for _, challenge := range challenges {
		if !challenge.RequiresAnswer() {
			skipped++
			log.Debug("challenge needs no answer",
				zap.String("product_group", challenge.ProductGroup))
			continue
		}
		signature, err := s.signer.Sign(ctx, cert, challenge.Base64Data, s.cfg.DetachedSignatures)
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.RecordSigning(s.cfg.DetachedSignatures, err == nil)
		}
		if err != nil {
			return nil, err
		}
		answers = append(answers, domain.AuthAnswer{
			UUID:         challenge.UUID,
			ProductGroup: challenge.ProductGroup,
			Base64Data:   signature,
		})
	}

	if len(answers) == 0 {
		log.Info("all challenges skipped", zap.Int("skipped", skipped))
		return &AuthResult{Skipped: skipped, RunID: runID}, nil
	}

	if err := s.api.SubmitAuthAnswers(ctx, answers); err != nil {
		return nil, err
	}
	log.Info("auth tokens refreshed",
		zap.Int("answered", len(answers)),
		zap.Int("skipped", skipped))

	return &AuthResult{Answered: len(answers), Skipped: skipped, RunID: runID}, nil
}
