package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSubmitInFlight is returned when a form is submitted again while its
// previous submission is still outstanding.
var ErrSubmitInFlight = errors.New("submission already in progress")

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationError reports malformed or missing form input. It is produced
// before any request is sent.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field was rejected.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// TransportError reports an unreachable API or a non-2xx response.
// StatusCode is zero when no response was received.
type TransportError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Temporary reports whether the failure was a network error or a 5xx.
// Callers may offer the user a manual retry; the client never retries.
func (e *TransportError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransport reports whether err is a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
