// Package errors defines the gateway's domain error taxonomy (spec §7) and
// the helpers used to classify and propagate it across component
// boundaries. It mirrors the teacher's services/errors.go DomainError shape,
// retargeted to this gateway's seven-kind taxonomy.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType is one of the seven taxonomy kinds from §7. Its string value is
// the lowercased "type" field in the HTTP error envelope.
type ErrorType string

const (
	ErrorTypeValidation          ErrorType = "validation_error"
	ErrorTypeAuthentication      ErrorType = "authentication_error"
	ErrorTypeRateLimited         ErrorType = "rate_limited"
	ErrorTypeQuotaExceeded       ErrorType = "quota_exceeded"
	ErrorTypeNoProvidersAvailable ErrorType = "no_providers_available"
	ErrorTypeAllProvidersFailed  ErrorType = "all_providers_failed"
	ErrorTypeInternal            ErrorType = "internal_error"
)

// HTTPStatus maps a taxonomy kind to the status code §7 assigns it.
func (t ErrorType) HTTPStatus() int {
	switch t {
	case ErrorTypeValidation:
		return 400
	case ErrorTypeAuthentication:
		return 401
	case ErrorTypeRateLimited, ErrorTypeQuotaExceeded:
		return 429
	case ErrorTypeNoProvidersAvailable:
		return 503
	case ErrorTypeAllProvidersFailed:
		return 502
	default:
		return 500
	}
}

// DomainError is a structured error carrying a taxonomy kind and optional
// machine-readable detail, e.g. the attempts list for ALL_PROVIDERS_FAILED.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail attaches a key to the error's details map, returning the same
// error for chaining.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New builds a DomainError of the given kind.
func New(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{Type: errType, Message: message, Err: err}
}

// Predefined sentinels for the common, parameter-less cases. Call sites that
// need Details (e.g. ALL_PROVIDERS_FAILED's attempts list) build a fresh
// *DomainError with New instead of reusing these.
var (
	ErrValidation          = New(ErrorTypeValidation, "invalid request", nil)
	ErrAuthentication      = New(ErrorTypeAuthentication, "missing or invalid API key", nil)
	ErrRateLimited         = New(ErrorTypeRateLimited, "rate limit exceeded", nil)
	ErrQuotaExceeded       = New(ErrorTypeQuotaExceeded, "quota exceeded", nil)
	ErrNoProvidersAvailable = New(ErrorTypeNoProvidersAvailable, "no providers available", nil)
	ErrAllProvidersFailed  = New(ErrorTypeAllProvidersFailed, "all providers failed", nil)
	ErrInternal            = New(ErrorTypeInternal, "internal server error", nil)
)

func isType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

func IsValidationError(err error) bool          { return isType(err, ErrorTypeValidation) }
func IsAuthenticationError(err error) bool      { return isType(err, ErrorTypeAuthentication) }
func IsRateLimitedError(err error) bool         { return isType(err, ErrorTypeRateLimited) }
func IsQuotaExceededError(err error) bool       { return isType(err, ErrorTypeQuotaExceeded) }
func IsNoProvidersAvailableError(err error) bool { return isType(err, ErrorTypeNoProvidersAvailable) }
func IsAllProvidersFailedError(err error) bool  { return isType(err, ErrorTypeAllProvidersFailed) }
func IsInternalError(err error) bool            { return isType(err, ErrorTypeInternal) }

// GetErrorType returns the taxonomy kind of err, or "" if err is not a
// *DomainError.
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of err, or nil if err is not a
// *DomainError.
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// GetErrorMessage returns the bare message of err (without the taxonomy
// prefix Error() adds), or err.Error() if err is not a *DomainError.
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

// Wrap builds a DomainError of the given kind wrapping err.
func Wrap(errType ErrorType, message string, err error) error {
	return New(errType, message, err)
}

// WrapInternal wraps err as an INTERNAL_ERROR.
func WrapInternal(message string, err error) error {
	return New(ErrorTypeInternal, message, err)
}
