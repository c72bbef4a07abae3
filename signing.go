package konturapi

import (
	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// Re-export signing types from domain package
type Certificate = domain.Certificate
type Signable = domain.Signable
type SignedItem = domain.SignedItem

// Signer is the port a custom signing adapter implements.
type Signer = ports.Signer

var (
	// NormalizeThumbprint canonicalizes a certificate thumbprint.
	NormalizeThumbprint = domain.NormalizeThumbprint

	// SameThumbprint compares thumbprints ignoring case and separators.
	SameThumbprint = domain.SameThumbprint
)
