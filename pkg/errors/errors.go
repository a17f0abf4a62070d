// Package errors augments standard errors with a Wrap method,
// so that sentinel errors declared by the manifest engine can carry
// an underlying cause without losing their identity in errors.Is checks.
package errors

import (
	stderr "errors"
	"fmt"
)

var _ error = New("")

// New creates a sentinel error with a fixed message
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error is an error with an optional nested cause.
//
// Unlike github.com/pkg/errors, wrapping starts from an error value,
// not from text: sentinels stay comparable with Is after wrapping.
type Error struct {
	msg string
	err error
}

// Error message, including the cause when present
func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap the nested cause
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap returns a copy of this error carrying a nested cause.
//
// The receiver is left untouched so package-level sentinels may be
// wrapped concurrently.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err}
}

// WrapMsg returns a copy of this error carrying a formatted cause
func (e *Error) WrapMsg(format string, args ...interface{}) *Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Is reports whether this error or its cause matches target
func (e *Error) Is(target error) bool {
	if e == target {
		return true
	}
	if other, ok := target.(*Error); ok && other.msg == e.msg {
		return true
	}
	return stderr.Is(e.err, target)
}

// Is reports whether any error in err's chain matches target
// (shortcut to the standard lib)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}

// As finds the first error in err's chain matching target
// (shortcut to the standard lib)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}
