// Package domainerrors defines the error codes surfaced at the HTTP boundary.
//
// Services and adapters wrap failures with a Code so handlers can translate them
// into a status and JSON envelope without inspecting error strings.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies a failure class of the lookup pipeline.
type Code string

const (
	CodeInvalidInput           Code = "invalid_input"
	CodeDirectoryUnavailable   Code = "directory_unavailable"
	CodeNoServerForTLD         Code = "no_server_for_tld"
	CodeUpstreamFetchFailed    Code = "upstream_fetch_failed"
	CodeNormalizationFailed    Code = "normalization_failed"
	CodeAllStrategiesExhausted Code = "all_strategies_exhausted"
	CodeInternal               Code = "internal_error"
)

// Error carries a Code, a client-facing message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without a cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of the outermost coded error in the chain, or
// CodeInternal when none is present.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// ToHTTPStatus maps a code to the status returned by the API.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
