package api

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failed call.
type Kind string

const (
	// KindNetwork no response reached the client (dial failure, reset, cancellation).
	KindNetwork Kind = "network"
	// KindHTTP the server answered with a non-2xx status.
	KindHTTP Kind = "http"
	// KindApplication 2xx with body status "error", or a body that could not be decoded.
	KindApplication Kind = "application"
)

// GenericMessage is used when a failed response carries no message field.
const GenericMessage = "An error occurred"

// Error is the only error type returned by Client.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Method  string
	Path    string

	cause error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.Path, e.Status, e.Message)
	case KindNetwork:
		return fmt.Sprintf("%s %s: network: %s", e.Method, e.Path, e.Message)
	default:
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// IsKind reports whether err (or anything it wraps) is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// AsError extracts the *Error from a wrapped chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// UserMessage is the text shown in an error banner.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsError(err); ok {
		switch apiErr.Kind {
		case KindHTTP:
			return fmt.Sprintf("HTTP %d: %s", apiErr.Status, apiErr.Message)
		case KindNetwork:
			return "Network error: " + apiErr.Message
		default:
			return apiErr.Message
		}
	}
	return err.Error()
}
