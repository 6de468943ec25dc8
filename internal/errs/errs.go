// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package errs defines the error taxonomy shared by the search, Zotero,
// summarization and vault stages.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates a missing credential or path, detected
	// before any remote call.
	ErrConfiguration = errors.New("configuration error")

	// ErrRemoteRejected indicates the remote service reported failure for
	// a well-formed request.
	ErrRemoteRejected = errors.New("remote rejected request")

	// ErrRemoteUnavailable indicates a transport failure: network error,
	// timeout, server error or a malformed response.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrNotFound indicates a lookup that requires a result found nothing.
	// Plain single-entity lookups return a nil value instead.
	ErrNotFound = errors.New("not found")
)

// RemoteError describes a failed call to an external service. Kind is one
// of ErrRemoteRejected or ErrRemoteUnavailable; Message carries the remote
// service's own text verbatim when it sent one.
type RemoteError struct {
	Service    string
	Op         string
	StatusCode int
	Message    string
	Kind       error
	Cause      error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Service, e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Service, e.Op, msg)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *RemoteError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Rejected builds a RemoteError of kind ErrRemoteRejected.
func Rejected(service, op string, status int, message string) *RemoteError {
	return &RemoteError{Service: service, Op: op, StatusCode: status, Message: message, Kind: ErrRemoteRejected}
}

// Unavailable builds a RemoteError of kind ErrRemoteUnavailable.
func Unavailable(service, op string, status int, cause error) *RemoteError {
	return &RemoteError{Service: service, Op: op, StatusCode: status, Kind: ErrRemoteUnavailable, Cause: cause}
}

// FromStatus classifies a non-success HTTP status: 4xx responses are
// rejections carrying body as the message, everything else is unavailability.
func FromStatus(service, op string, status int, body string) *RemoteError {
	if status >= 400 && status < 500 && status != 429 {
		return Rejected(service, op, status, body)
	}
	e := Unavailable(service, op, status, nil)
	e.Message = body
	if e.Message == "" {
		e.Message = "unexpected status"
	}
	return e
}

// Configf returns an error wrapping ErrConfiguration.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

// IsRejected reports whether err is a remote rejection.
func IsRejected(err error) bool { return errors.Is(err, ErrRemoteRejected) }

// IsUnavailable reports whether err is a transport-level failure.
func IsUnavailable(err error) bool { return errors.Is(err, ErrRemoteUnavailable) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
