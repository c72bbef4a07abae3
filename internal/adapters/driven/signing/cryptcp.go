package signing

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// Default CryptoPro tool names, resolved through PATH.
const (
	DefaultCryptcpBinary = "cryptcp"
	DefaultCertmgrBinary = "certmgr"
)

// commandRunner executes a tool and returns its combined output.
// Replaceable in tests.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// CLIOption configures a CLISigner.
type CLIOption func(*CLISigner)

// WithCryptcpBinary overrides the signing tool path.
func WithCryptcpBinary(path string) CLIOption {
	return func(s *CLISigner) { s.cryptcp = path }
}

// WithCertmgrBinary overrides the certificate listing tool path.
func WithCertmgrBinary(path string) CLIOption {
	return func(s *CLISigner) { s.certmgr = path }
}

// WithPIN supplies the container PIN passed to the signing tool.
func WithPIN(pin string) CLIOption {
	return func(s *CLISigner) { s.pin = pin }
}

// CLISigner signs payloads by invoking the CryptoPro tools. Certificates
// come from the current user's personal store.
type CLISigner struct {
	cryptcp string
	certmgr string
	pin     string
	logger  *zap.Logger
	runner  commandRunner
}

// NewCLISigner creates a signer over the CryptoPro command line tools.
func NewCLISigner(logger *zap.Logger, opts ...CLIOption) *CLISigner {
	s := &CLISigner{
		cryptcp: DefaultCryptcpBinary,
		certmgr: DefaultCertmgrBinary,
		logger:  logger,
		runner:  runCommand,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRunnerForTesting replaces the tool executor.
func (s *CLISigner) SetRunnerForTesting(r func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	s.runner = r
}

// FindCertificate looks up a certificate in the personal store by
// thumbprint. The thumbprint is mandatory: picking an arbitrary first
// certificate signs documents with whatever key happens to be installed.
func (s *CLISigner) FindCertificate(ctx context.Context, thumbprint string) (domain.Certificate, error) {
	if strings.TrimSpace(thumbprint) == "" {
		return domain.Certificate{}, domain.ConfigError("certificate thumbprint is required")
	}
	normalized, err := domain.NormalizeThumbprint(thumbprint)
	if err != nil {
		return domain.Certificate{}, domain.ConfigError(fmt.Sprintf("invalid certificate thumbprint %q: %v", thumbprint, err))
	}

	out, err := s.runner(ctx, s.certmgr, "-list", "-store", "uMy", "-thumbprint", normalized)
	if err != nil {
		return domain.Certificate{}, domain.CertNotFoundError(normalized)
	}

	cert := parseCertmgrOutput(out, normalized)
	if s.logger != nil {
		s.logger.Debug("certificate found",
			zap.String("thumbprint", normalized),
			zap.String("subject", cert.Subject))
	}
	return cert, nil
}

// parseCertmgrOutput extracts the subject and expiry from a certmgr
// listing. The listing format varies with locale, so parsing is best
// effort; the thumbprint is authoritative either way.
func parseCertmgrOutput(out []byte, thumbprint string) domain.Certificate {
	cert := domain.Certificate{Thumbprint: thumbprint}
	for _, line := range strings.Split(string(out), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch {
		case strings.EqualFold(key, "Subject"):
			cert.Subject = value
		case strings.EqualFold(key, "Not valid after"):
			for _, layout := range []string{
				"02/01/2006 15:04:05 MST",
				"02/01/2006  15:04:05 MST",
				"02.01.2006 15:04:05",
			} {
				if t, err := time.Parse(layout, value); err == nil {
					cert.NotAfter = t
					break
				}
			}
		}
	}
	return cert
}

// Sign produces a CAdES-BES signature over the base64 payload and
// returns it as a single base64 line. The detached flag selects whether
// the signature embeds the signed content.
func (s *CLISigner) Sign(ctx context.Context, cert domain.Certificate, base64Content string, detached bool) (string, error) {
	signingMu.Lock()
	defer signingMu.Unlock()

	raw, err := base64.StdEncoding.DecodeString(base64Content)
	if err != nil {
		return "", domain.SigningError("payload is not valid base64", err)
	}

	workDir, err := os.MkdirTemp("", "kontur-sign-")
	if err != nil {
		return "", domain.SigningError("create signing workspace", err)
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, uuid.NewString()+".bin")
	if err := os.WriteFile(inputPath, raw, 0o600); err != nil {
		return "", domain.SigningError("write payload for signing", err)
	}

	args := []string{"-signf", "-strict", "-thumbprint", cert.Thumbprint, "-dir", workDir}
	if detached {
		args = append(args, "-detached")
	}
	if s.pin != "" {
		args = append(args, "-pin", s.pin)
	}
	args = append(args, inputPath)

	start := time.Now()
	out, err := s.runner(ctx, s.cryptcp, args...)
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail != "" {
			return "", domain.SigningError("signing tool failed: "+detail, err)
		}
		return "", domain.SigningError("signing tool failed", err)
	}

	signaturePath := inputPath + ".sgn"
	sigData, err := os.ReadFile(signaturePath)
	if err != nil {
		return "", domain.SigningError("signing tool produced no signature file", err)
	}

	signature := normalizeSignature(string(sigData))
	if _, err := base64.StdEncoding.DecodeString(signature); err != nil {
		return "", domain.SigningError("signing tool produced malformed base64", err)
	}

	if s.logger != nil {
		s.logger.Debug("payload signed",
			zap.String("thumbprint", cert.Thumbprint),
			zap.Bool("detached", detached),
			zap.Int("payload_bytes", len(raw)),
			zap.Duration("took", time.Since(start)))
	}
	return signature, nil
}

// Ensure CLISigner implements ports.Signer
var _ ports.Signer = (*CLISigner)(nil)
