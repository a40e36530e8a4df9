package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes, mapped to HTTP statuses by the api package.
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeUnavailable   = "UNAVAILABLE"
)

// Validation errors
var (
	ErrInvalidConfidenceTier = NewDomainError(ErrCodeValidation, "invalid confidence tier")
	ErrInvalidCursor         = NewDomainError(ErrCodeValidation, "invalid pagination cursor")
)

var ErrKnowledgeEntryNotFound = NewDomainError(ErrCodeNotFound, "knowledge entry not found")

// Upstream errors. Adapters return these internally and downgrade them to
// empty results before they reach the resolver.
var (
	ErrUpstreamUnavailable = NewDomainError(ErrCodeUpstream, "upstream service unavailable")
	ErrMalformedPayload    = NewDomainError(ErrCodeUpstream, "malformed upstream payload")
	ErrEmptyGeneration     = NewDomainError(ErrCodeUpstream, "generation backend returned no text")
	ErrStoreNotConfigured  = NewDomainError(ErrCodeUnavailable, "conversation store not configured")
)
