// Package errs defines the closed error taxonomy shared by every mvtengine
// subsystem: a Code/Message/Cause shape, but as a proper error sum type
// usable with errors.Is/As.
package errs

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error categories a caller can branch on.
type Kind string

const (
	InvalidArgument   Kind = "InvalidArgument"
	CorruptInput      Kind = "CorruptInput"
	UnsupportedVersion Kind = "UnsupportedVersion"
	ProjectionError   Kind = "ProjectionError"
	GeometryError     Kind = "GeometryError"
	CompositeError    Kind = "CompositeError"
	IoError           Kind = "IoError"
)

// Error is the concrete error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// SourceIndex is set by CompositeError to identify the failing source
	// tile in a composite operation; -1 when not applicable.
	SourceIndex int
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.SourceIndex >= 0 {
		msg = fmt.Sprintf("%s (source #%d)", msg, e.SourceIndex)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same Kind, so
// errors.Is(err, New(kind, "")) matches by kind alone.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New builds an *Error of the given kind with no source index.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, SourceIndex: -1}
}

// Wrap builds an *Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause, SourceIndex: -1}
}

// WrapComposite wraps an inner error as a CompositeError carrying the
// index of the failing source tile, per spec §4.4/§7.
func WrapComposite(sourceIndex int, cause error) *Error {
	return &Error{
		Kind:        CompositeError,
		Message:     "composite failed",
		Cause:       cause,
		SourceIndex: sourceIndex,
	}
}

// Of reports whether err (or anything it wraps) is an *Error of the given
// kind.
func Of(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
