package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch without matching on
// message text. The message itself stays human-readable and, for backend
// failures, preserves the provider's error verbatim.
type Kind int

const (
	Unknown Kind = iota
	InvalidArgument
	NotFound
	InvalidTransition
	Expired
	AlreadyCompleted
	IncompleteChunks
	BackendFailure
	PersistenceFailure
	NoProvidersAvailable
)

// String returns the kind tag used in logs and API payloads.
func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case InvalidTransition:
		return "invalid_transition"
	case Expired:
		return "expired"
	case AlreadyCompleted:
		return "already_completed"
	case IncompleteChunks:
		return "incomplete_chunks"
	case BackendFailure:
		return "backend_failure"
	case PersistenceFailure:
		return "persistence_failure"
	case NoProvidersAvailable:
		return "no_providers_available"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg != "" {
		return e.Msg + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a kind-tagged error with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags an underlying error with a kind and context message.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from an error chain, Unknown if untagged.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
