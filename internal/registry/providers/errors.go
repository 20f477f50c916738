package providers

import (
	"context"
	"errors"
	"fmt"

	dErrors "domainlens/pkg/domain-errors"
)

// ErrorCategory defines the normalized failure taxonomy
type ErrorCategory string

const (
	// ErrorTimeout indicates the upstream took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the upstream returned a malformed payload
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorProviderOutage indicates a transport failure or 5xx answer
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorNotFound indicates the registry has no record for the domain
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorDirectoryUnavailable indicates the bootstrap directory could not be fetched
	ErrorDirectoryUnavailable ErrorCategory = "directory_unavailable"

	// ErrorNoServer indicates the directory has no endpoint for the TLD
	ErrorNoServer ErrorCategory = "no_server"

	// ErrorEmptyRecord indicates the upstream answered with nothing usable
	ErrorEmptyRecord ErrorCategory = "empty_record"

	// ErrorCanceled indicates the caller gave up
	ErrorCanceled ErrorCategory = "canceled"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps provider failures with normalized categorization
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	Underlying error
	Retryable  bool
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

// Unwrap supports error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// Code maps the category onto the API error taxonomy.
func (e *ProviderError) Code() dErrors.Code {
	switch e.Category {
	case ErrorDirectoryUnavailable:
		return dErrors.CodeDirectoryUnavailable
	case ErrorNoServer:
		return dErrors.CodeNoServerForTLD
	default:
		return dErrors.CodeUpstreamFetchFailed
	}
}

// NewProviderError creates a new normalized provider error.
// NoServer, NotFound and Canceled are never retryable: repeating the same
// query cannot change their outcome.
func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout ||
		category == ErrorBadData ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited ||
		category == ErrorDirectoryUnavailable ||
		category == ErrorEmptyRecord

	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// FromContext classifies a context error, returning nil when err is not one.
func FromContext(providerID string, err error) *ProviderError {
	switch {
	case errors.Is(err, context.Canceled):
		return NewProviderError(ErrorCanceled, providerID, "lookup canceled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewProviderError(ErrorTimeout, providerID, "lookup timed out", err)
	}
	return nil
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// Sentinel errors for common cases
var (
	ErrProviderNotFound     = errors.New("provider not found")
	ErrNoProvidersAvailable = errors.New("no providers configured")
	ErrAllProvidersFailed   = errors.New("all strategies exhausted")
)
