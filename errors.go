package konturapi

import (
	"github.com/kirillbelykh/kontur-api/internal/core/domain"
)

// Re-export error types from domain package so callers never import
// internal packages
type ErrorCode = domain.ErrorCode
type AppError = domain.AppError

// Re-export error code constants
const (
	ErrCodeConfigMissing     = domain.ErrCodeConfigMissing
	ErrCodeCredential        = domain.ErrCodeCredential
	ErrCodeCertNotFound      = domain.ErrCodeCertNotFound
	ErrCodeCertNotRegistered = domain.ErrCodeCertNotRegistered
	ErrCodeSigning           = domain.ErrCodeSigning
	ErrCodeSubmission        = domain.ErrCodeSubmission
	ErrCodeNotAvailable      = domain.ErrCodeNotAvailable
	ErrCodeEmptySignables    = domain.ErrCodeEmptySignables
	ErrCodeVendor            = domain.ErrCodeVendor
	ErrCodeHistory           = domain.ErrCodeHistory
)

// Re-export error constructors
var (
	ConfigError            = domain.ConfigError
	CredentialError        = domain.CredentialError
	CertNotFoundError      = domain.CertNotFoundError
	CertNotRegisteredError = domain.CertNotRegisteredError
	SigningError           = domain.SigningError
	SubmissionError        = domain.SubmissionError
	NotAvailableError      = domain.NotAvailableError
	EmptySignablesError    = domain.EmptySignablesError
	VendorError            = domain.VendorError
	HistoryError           = domain.HistoryError
)
