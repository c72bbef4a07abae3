package domain

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// DefaultRequestTimeout bounds every vendor request made through a Session.
const DefaultRequestTimeout = 30 * time.Second

// BrowserHeaders returns the default headers the portal expects on every
// request. The portal serves a browser frontend and rejects obviously
// non-browser clients.
func BrowserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		"Accept":           "application/json, text/plain, */*",
		"Content-Type":     "application/json; charset=utf-8",
		"X-Requested-With": "XMLHttpRequest",
	}
}

// Session is an authenticated vendor session: an HTTP client whose cookie
// jar is primed with a validated credential set. Sessions are immutable;
// construct a new one instead of mutating.
type Session struct {
	credentials CredentialSet
	client      *http.Client
	issuedAt    time.Time
}

// NewSession builds a Session for the vendor at baseURL from a credential
// set. The set is validated against required before any client is built;
// an invalid set yields a credential_error and no Session.
func NewSession(baseURL string, creds CredentialSet, required []string, timeout time.Duration, now time.Time) (*Session, error) {
	if err := creds.Validate(required); err != nil {
		return nil, CredentialError("credential set failed validation", err)
	}

	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, ConfigError(fmt.Sprintf("invalid base URL %q", baseURL))
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, CredentialError("create cookie jar", err)
	}

	cookies := make([]*http.Cookie, 0, len(creds.Tokens))
	for _, name := range creds.Names() {
		cookies = append(cookies, &http.Cookie{
			Name:   name,
			Value:  creds.Tokens[name],
			Path:   "/",
			Domain: u.Hostname(),
		})
	}
	jar.SetCookies(u, cookies)

	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &Session{
		credentials: creds,
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		issuedAt: now,
	}, nil
}

// Client returns the HTTP client carrying the session cookies.
func (s *Session) Client() *http.Client {
	return s.client
}

// IssuedAt is when the session was built.
func (s *Session) IssuedAt() time.Time {
	return s.issuedAt
}

// Credentials returns the credential set the session was built from.
func (s *Session) Credentials() CredentialSet {
	return s.credentials
}

// Age reports how old the session is at now.
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.issuedAt)
}

// Expired reports whether the session has outlived lifetime at now.
func (s *Session) Expired(now time.Time, lifetime time.Duration) bool {
	return s.Age(now) >= lifetime
}

// SessionInfo is an observability snapshot of the session cache.
type SessionInfo struct {
	// HasSession is true once a session has been built.
	HasSession bool

	// Fresh is true if the last refresh attempt succeeded.
	Fresh bool

	// IssuedAt and Age describe the cached session (zero without one).
	IssuedAt time.Time
	Age      time.Duration

	// LastError is the error of the most recent failed refresh, nil after
	// a success.
	LastError error

	// LastSuccess is when a session was last built successfully.
	LastSuccess time.Time

	// Refreshes and Failures count rebuild attempts since start.
	Refreshes uint64
	Failures  uint64
}
