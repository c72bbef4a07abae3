package ports

import (
	"context"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
)

// Signer produces CAdES signatures through an external cryptographic
// provider. This is a port interface - implementations are adapters.
//
// Implementations must serialize access to the provider: its
// initialization and teardown are not proven thread-safe, so concurrent
// Sign calls are queued behind a shared lock rather than interleaved.
type Signer interface {
	// FindCertificate locates a signing certificate by its thumbprint in
	// the provider store. The thumbprint is mandatory; picking "the first"
	// certificate would be non-deterministic across machines.
	FindCertificate(ctx context.Context, thumbprint string) (domain.Certificate, error)

	// Sign produces a CAdES-BES signature over the base64-encoded content.
	// detached selects a detached signature; false yields attached. The
	// returned signature is base64 without any line breaks.
	Sign(ctx context.Context, cert domain.Certificate, base64Content string, detached bool) (string, error)
}
