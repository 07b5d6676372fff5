package vserr

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal run error.
type Kind string

const (
	KindParse             Kind = "parse"
	KindEmptyIntersection Kind = "empty_intersection"
	KindZeroCategory      Kind = "zero_category"
	KindMismatchedTotals  Kind = "mismatched_totals"
	KindIO                Kind = "io"
)

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrParse             = &Error{Kind: KindParse}
	ErrEmptyIntersection = &Error{Kind: KindEmptyIntersection}
	ErrZeroCategory      = &Error{Kind: KindZeroCategory}
	ErrMismatchedTotals  = &Error{Kind: KindMismatchedTotals}
	ErrIO                = &Error{Kind: KindIO}
)

// Error is a kinded error that names the experiment, file or spec that
// triggered it.
type Error struct {
	Kind    Kind
	Source  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Source != "" {
		msg = fmt.Sprintf("%s: %s", e.Source, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Source == "" && t.Message == "" && t.Cause == nil
}

// New creates an error of the given kind.
func New(kind Kind, source, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Source:  source,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a kind and source to an underlying error.
func Wrap(kind Kind, source string, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Source:  source,
		Message: message,
		Cause:   err,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
