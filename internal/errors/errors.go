// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages, so callers can tell a refused connection apart from a
// broken stream or a response the client could not make sense of.
//
// The package supports wrapping underlying errors while maintaining error kind information.
// Wrapped sentinels stay reachable through the standard errors.Is and errors.As.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// ConnectionFailed indicates the TCP connection could not be established.
	ConnectionFailed Kind = "connection_failed"
	// TransportFailed indicates a socket failure in the middle of a request/response exchange.
	TransportFailed Kind = "transport_failed"
	// MalformedResult indicates the response payload could not be decoded into a result.
	MalformedResult Kind = "malformed_result"

	// InvalidAddress indicates a server address the CLI could not parse.
	InvalidAddress Kind = "invalid_address"
	// ConfigFailed indicates configuration could not be loaded.
	ConfigFailed Kind = "config_failed"
	// StorageFailed indicates local persistence (recent servers, keychain) failed.
	StorageFailed Kind = "storage_failed"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the outermost *E in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether any *E in err's chain carries the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *E
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
