package inference

import (
	"errors"
	"fmt"
)

// Kind classifies an inference failure.
type Kind string

const (
	// KindTimeout covers deadline expiry and cancelled calls. Retryable;
	// no consumption units are charged.
	KindTimeout Kind = "timeout"

	// KindTransport covers connection and protocol failures before a
	// response was obtained.
	KindTransport Kind = "transport"

	// KindUpstream covers non-2xx responses from the model endpoint.
	KindUpstream Kind = "upstream"

	// KindMalformed covers responses that could not be decoded.
	KindMalformed Kind = "malformed"
)

// Error is a classified inference failure. The chat handler surfaces it as
// a distinct error kind and leaves the session's unit accumulator untouched.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Model is the model the call targeted.
	Model string

	// StatusCode is the upstream HTTP status (0 if none was received).
	StatusCode int

	// Message describes the failure.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("inference %s error for model %q (status %d): %s",
			e.Kind, e.Model, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("inference %s error for model %q: %s", e.Kind, e.Model, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the caller may retry the identical request.
func (e *Error) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindTransport
}

// AsError extracts an *Error from err, or wraps err as a transport error
// so that nothing crosses the package boundary unclassified.
func AsError(err error, model string) *Error {
	var infErr *Error
	if errors.As(err, &infErr) {
		return infErr
	}
	return &Error{
		Kind:    KindTransport,
		Model:   model,
		Message: err.Error(),
		Cause:   err,
	}
}
