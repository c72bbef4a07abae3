package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"
)

// DefaultRequiredTokens is the set of cookie names a usable portal login
// always carries. Credential sets missing any of these cannot authenticate.
var DefaultRequiredTokens = []string{"auth.sid"}

// CredentialSet holds the raw authentication tokens harvested from the
// vendor portal, keyed by cookie name. It is the input to Session
// construction and carries no behaviour beyond validation.
type CredentialSet struct {
	// Tokens maps cookie name to value.
	Tokens map[string]string

	// CapturedAt is when the tokens were harvested.
	CapturedAt time.Time
}

// NewCredentialSet copies tokens into a fresh set stamped with capturedAt.
func NewCredentialSet(tokens map[string]string, capturedAt time.Time) CredentialSet {
	copied := make(map[string]string, len(tokens))
	for k, v := range tokens {
		copied[k] = v
	}
	return CredentialSet{Tokens: copied, CapturedAt: capturedAt}
}

// Get returns the token value for name, or "" if absent.
func (cs CredentialSet) Get(name string) string {
	return cs.Tokens[name]
}

// Names returns all token names in sorted order.
func (cs CredentialSet) Names() []string {
	names := make([]string, 0, len(cs.Tokens))
	for name := range cs.Tokens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every required token is present and non-empty.
// All missing names are reported at once rather than failing on the first.
func (cs CredentialSet) Validate(required []string) error {
	var result *multierror.Error
	if len(cs.Tokens) == 0 {
		result = multierror.Append(result, fmt.Errorf("credential set is empty"))
	}
	for _, name := range required {
		if cs.Tokens[name] == "" {
			result = multierror.Append(result, fmt.Errorf("required token %q is missing or empty", name))
		}
	}
	return result.ErrorOrNil()
}
