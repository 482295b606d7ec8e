package browser

import (
	"errors"
	"fmt"
)

// Kind is the stable error classification reported to tool callers.
type Kind string

const (
	KindConfig            Kind = "config_error"
	KindConnection        Kind = "connection_error"
	KindProtocol          Kind = "protocol_error"
	KindElementNotFound   Kind = "element_not_found"
	KindStaleIndex        Kind = "stale_index"
	KindElementGone       Kind = "element_gone"
	KindNavigationTimeout Kind = "navigation_timeout"
	KindTabNotFound       Kind = "tab_not_found"
	KindLastTab           Kind = "cannot_close_last_tab"
	KindInvalidArgument   Kind = "invalid_argument"
	KindInternal          Kind = "internal"
)

// Error carries a classification alongside the message so the dispatcher can
// report a stable kind string instead of a raw failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// newErr builds a classified error from a format string.
func newErr(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// wrapErr classifies an underlying error, keeping it unwrappable.
func wrapErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error. The dispatcher uses it for failures that
// never reach the session, such as argument validation.
func Errorf(kind Kind, op, format string, args ...any) error {
	return newErr(kind, op, format, args...)
}

// KindOf extracts the classification from err, defaulting to internal for
// anything that escaped classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Recoverable reports whether the session survives this error. Only losing
// the browser connection (or an internal invariant violation) is fatal.
func Recoverable(err error) bool {
	switch KindOf(err) {
	case KindConnection, KindInternal:
		return false
	}
	return true
}
