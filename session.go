package konturapi

import (
	"github.com/kirillbelykh/kontur-api/internal/adapters/driven/sessioncache"
	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// Re-export session types from domain package
type Session = domain.Session
type SessionInfo = domain.SessionInfo
type CredentialSet = domain.CredentialSet

// Re-export the ports embedders implement or accept
type SessionProvider = ports.SessionProvider
type CredentialSource = ports.CredentialSource

var (
	NewCredentialSet = domain.NewCredentialSet

	// ErrCacheClosed is returned by a session provider after Close.
	ErrCacheClosed = ports.ErrCacheClosed
)

// DefaultRequiredTokens is the cookie names a usable portal login always
// carries.
var DefaultRequiredTokens = domain.DefaultRequiredTokens

// Session cache defaults, matching the observed portal cookie lifetime.
const (
	DefaultSessionLifetime  = sessioncache.DefaultLifetime
	DefaultRefreshThreshold = sessioncache.DefaultRefreshThreshold
	DefaultRetryInterval    = sessioncache.DefaultRetryInterval
)
