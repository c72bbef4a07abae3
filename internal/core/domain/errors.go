package domain

import (
	"fmt"
)

// ErrorCode represents categorized error types.
// These codes are stable and can be used for programmatic error handling.
type ErrorCode string

const (
	ErrCodeConfigMissing     ErrorCode = "config_missing"
	ErrCodeCredential        ErrorCode = "credential_error"
	ErrCodeCertNotFound      ErrorCode = "certificate_not_found"
	ErrCodeCertNotRegistered ErrorCode = "certificate_not_registered"
	ErrCodeSigning           ErrorCode = "signing_error"
	ErrCodeSubmission        ErrorCode = "submission_error"
	ErrCodeNotAvailable      ErrorCode = "not_available"
	ErrCodeEmptySignables    ErrorCode = "empty_signable_list"
	ErrCodeVendor            ErrorCode = "vendor_error"
	ErrCodeHistory           ErrorCode = "history_error"
)

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// AppError is a structured error with code, message, and optional cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code for this error code.
// Used by the CLI so scripts can distinguish failure classes.
func (c ErrorCode) ExitCode() int {
	switch c {
	case ErrCodeConfigMissing:
		return 2
	case ErrCodeCredential:
		return 3
	case ErrCodeCertNotFound, ErrCodeCertNotRegistered:
		return 4
	case ErrCodeSigning:
		return 5
	case ErrCodeNotAvailable, ErrCodeEmptySignables:
		return 6
	case ErrCodeSubmission:
		return 7
	case ErrCodeHistory:
		return 8
	default:
		return 1
	}
}

// Title returns a user-friendly title for this error code.
func (c ErrorCode) Title() string {
	switch c {
	case ErrCodeConfigMissing:
		return "Configuration Error"
	case ErrCodeCredential:
		return "Credential Error"
	case ErrCodeCertNotFound:
		return "Certificate Not Found"
	case ErrCodeCertNotRegistered:
		return "Certificate Not Registered"
	case ErrCodeSigning:
		return "Signing Failed"
	case ErrCodeSubmission:
		return "Submission Failed"
	case ErrCodeNotAvailable:
		return "Document Not Available"
	case ErrCodeEmptySignables:
		return "Nothing To Sign"
	case ErrCodeVendor:
		return "Vendor Error"
	case ErrCodeHistory:
		return "History Error"
	default:
		return "Error"
	}
}

// ConfigError creates a configuration error.
func ConfigError(message string) *AppError {
	return &AppError{Code: ErrCodeConfigMissing, Message: message}
}

// CredentialError creates a credential acquisition/validation error with optional cause.
func CredentialError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeCredential, Message: message, Cause: cause}
}

// CertNotFoundError creates an error for a certificate missing from the provider store.
func CertNotFoundError(thumbprint string) *AppError {
	return &AppError{
		Code:    ErrCodeCertNotFound,
		Message: fmt.Sprintf("certificate with thumbprint %q was not found in the store", thumbprint),
	}
}

// CertNotRegisteredError creates an error for a certificate the vendor does not
// know for the given organization.
func CertNotRegisteredError(thumbprint, organizationID string) *AppError {
	return &AppError{
		Code:    ErrCodeCertNotRegistered,
		Message: fmt.Sprintf("certificate %q is not registered for organization %q", thumbprint, organizationID),
	}
}

// SigningError creates a signing failure error with optional cause.
func SigningError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeSigning, Message: message, Cause: cause}
}

// SubmissionError creates an error for a vendor-rejected document operation.
func SubmissionError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeSubmission, Message: message, Cause: cause}
}

// NotAvailableError creates an error for a document that is not ready for signing.
// The vendor's reported status is preserved in the message.
func NotAvailableError(orderID, status string) *AppError {
	return &AppError{
		Code:    ErrCodeNotAvailable,
		Message: fmt.Sprintf("order %s is not available for signing (status %q)", orderID, status),
	}
}

// EmptySignablesError creates an error for a document with nothing to sign.
func EmptySignablesError(orderID string) *AppError {
	return &AppError{
		Code:    ErrCodeEmptySignables,
		Message: fmt.Sprintf("order %s returned an empty signable list", orderID),
	}
}

// VendorError creates an error for unexpected vendor API failures with optional cause.
func VendorError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeVendor, Message: message, Cause: cause}
}

// HistoryError creates an order-history persistence error with optional cause.
func HistoryError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeHistory, Message: message, Cause: cause}
}
