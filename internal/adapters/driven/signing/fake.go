package signing

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"sync"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// SignCall records one Sign invocation on a FakeSigner.
type SignCall struct {
	Thumbprint string
	Detached   bool
}

// FakeThumbprint identifies the certificate every new FakeSigner holds.
const FakeThumbprint = "aabbccddeeff00112233445566778899aabbccdd"

// FakeSigner is a deterministic signer for development and tests. The
// signature is derived from the payload, thumbprint and detachment flag,
// so identical inputs always produce identical output and attached and
// detached signatures differ.
type FakeSigner struct {
	mu       sync.Mutex
	certs    map[string]domain.Certificate
	findErr  error
	signErr  error
	calls    []SignCall
	inFlight int
	maxSeen  int
}

// NewFakeSigner creates a fake with a single well-known certificate.
func NewFakeSigner() *FakeSigner {
	cert := domain.Certificate{
		Thumbprint: FakeThumbprint,
		Subject:    "CN=Fake Signer",
	}
	return &FakeSigner{
		certs: map[string]domain.Certificate{cert.Thumbprint: cert},
	}
}

// AddCertificate registers another certificate the fake will find.
func (s *FakeSigner) AddCertificate(cert domain.Certificate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certs[cert.Thumbprint] = cert
}

// FailFindWith makes FindCertificate return err.
func (s *FakeSigner) FailFindWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findErr = err
}

// FailSignWith makes Sign return err.
func (s *FakeSigner) FailSignWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signErr = err
}

// Calls returns a copy of the recorded Sign invocations.
func (s *FakeSigner) Calls() []SignCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := make([]SignCall, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// MaxConcurrentSigns reports the highest number of Sign calls that were
// ever in flight at once.
func (s *FakeSigner) MaxConcurrentSigns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxSeen
}

// FindCertificate returns a registered certificate by thumbprint.
func (s *FakeSigner) FindCertificate(ctx context.Context, thumbprint string) (domain.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return domain.Certificate{}, s.findErr
	}
	normalized, err := domain.NormalizeThumbprint(thumbprint)
	if err != nil {
		return domain.Certificate{}, domain.ConfigError("invalid certificate thumbprint: " + err.Error())
	}
	cert, ok := s.certs[normalized]
	if !ok {
		return domain.Certificate{}, domain.CertNotFoundError(normalized)
	}
	return cert, nil
}

// Sign returns a deterministic single-line base64 signature.
func (s *FakeSigner) Sign(ctx context.Context, cert domain.Certificate, base64Content string, detached bool) (string, error) {
	signingMu.Lock()
	defer signingMu.Unlock()

	s.mu.Lock()
	if s.signErr != nil {
		err := s.signErr
		s.mu.Unlock()
		return "", err
	}
	s.calls = append(s.calls, SignCall{Thumbprint: cert.Thumbprint, Detached: detached})
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	h := sha256.New()
	h.Write([]byte(cert.Thumbprint))
	h.Write([]byte(base64Content))
	if detached {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// Ensure FakeSigner implements ports.Signer
var _ ports.Signer = (*FakeSigner)(nil)
