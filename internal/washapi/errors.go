package washapi

import (
	"errors"
	"fmt"

	applog "washlog/internal/log"
)

// ErrNotConfigured is returned when the endpoint still holds the placeholder value.
var ErrNotConfigured = errors.New("wash API endpoint is not configured")

// TransportError wraps a failure to reach the collaborator.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is an application-level failure: the response parsed but its
// status was not "success".
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return "Unknown error"
	}
	return e.Message
}

// DecodeError means the response body was not the expected JSON.
// Snippet holds the start of the body as plain text, when there was one.
type DecodeError struct {
	Op      string
	Err     error
	Snippet string
}

func (e *DecodeError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("%s: invalid response: %v (%s)", e.Op, e.Err, e.Snippet)
	}
	return fmt.Sprintf("%s: invalid response: %v", e.Op, e.Err)
}
func (e *DecodeError) Unwrap() error { return e.Err }

// Kind classifies err for logging.
func Kind(err error) string {
	var (
		te *TransportError
		se *StatusError
		de *DecodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return applog.ErrorTypeConfiguration
	case errors.As(err, &te):
		return applog.ErrorTypeNetwork
	case errors.As(err, &se):
		return applog.ErrorTypeApplication
	case errors.As(err, &de):
		return applog.ErrorTypeParse
	default:
		return applog.ErrorTypeInternal
	}
}
