package domain

import (
	"fmt"
	"strings"
	"time"
)

// Certificate is a handle to a signing certificate in the provider store.
// The store itself (and the private key) stays inside the external
// cryptographic provider; only identifying fields cross this boundary.
type Certificate struct {
	Thumbprint string
	Subject    string
	NotAfter   time.Time
}

// Expired reports whether the certificate is past its validity at now.
// A zero NotAfter means validity is unknown and is not treated as expired.
func (c Certificate) Expired(now time.Time) bool {
	return !c.NotAfter.IsZero() && now.After(c.NotAfter)
}

// RegisteredCertificate is the vendor's record of a certificate bound to an
// organization.
type RegisteredCertificate struct {
	Thumbprint string `json:"thumbprint"`
	Owner      string `json:"owner,omitempty"`
}

// NormalizeThumbprint canonicalizes a SHA-1 certificate thumbprint: spaces
// and colon separators removed, lowercased hex. Returns an error when the
// result is not 40 hex digits, since a malformed thumbprint would otherwise
// silently match nothing in the store.
func NormalizeThumbprint(s string) (string, error) {
	cleaned := strings.ToLower(strings.NewReplacer(" ", "", ":", "").Replace(strings.TrimSpace(s)))
	if len(cleaned) != 40 {
		return "", fmt.Errorf("thumbprint must be 40 hex digits, got %d", len(cleaned))
	}
	for _, r := range cleaned {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", fmt.Errorf("thumbprint contains non-hex character %q", r)
		}
	}
	return cleaned, nil
}

// SameThumbprint compares two thumbprints ignoring case and separators.
func SameThumbprint(a, b string) bool {
	na, errA := NormalizeThumbprint(a)
	nb, errB := NormalizeThumbprint(b)
	if errA != nil || errB != nil {
		return false
	}
	return na == nb
}
