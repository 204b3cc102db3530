package gradebook

import (
	"errors"
	"fmt"
)

// Kind classifies remote gradebook failures.
type Kind int

const (
	// KindUnavailable covers network-level failures: connection errors,
	// timeouts, and anything where no well-formed remote answer arrived.
	KindUnavailable Kind = iota + 1

	// KindRejected covers remote-reported application errors, such as a
	// malformed gradebook id or a rejected import.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error is the typed error returned by every Client operation.
type Error struct {
	// Op is the failing operation, e.g. "list sections".
	Op string

	// Kind classifies the failure.
	Kind Kind

	// Message is the human-readable error text surfaced to callers.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface. The text is what action handlers
// surface verbatim as the result message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err is a network-level gradebook failure.
func IsUnavailable(err error) bool {
	var gbErr *Error
	return errors.As(err, &gbErr) && gbErr.Kind == KindUnavailable
}

// IsRejected reports whether err is a remote-reported application error.
func IsRejected(err error) bool {
	var gbErr *Error
	return errors.As(err, &gbErr) && gbErr.Kind == KindRejected
}

func unavailable(op string, err error) *Error {
	return &Error{
		Op:      op,
		Kind:    KindUnavailable,
		Message: fmt.Sprintf("gradebook service unavailable: %v", err),
		Err:     err,
	}
}

func rejected(op, message string) *Error {
	return &Error{
		Op:      op,
		Kind:    KindRejected,
		Message: message,
	}
}
