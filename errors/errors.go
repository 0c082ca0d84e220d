// Package errors defines the error taxonomy shared by the volume accessor, the
// directory entry codec and the checker. Every error carries an [Errno] so
// callers can tell local corruption (EUCLEAN, ELOOP) apart from fatal
// corruption (ERANGE) with errors.Is.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// DriverError is a wrapper around system errno codes, with a customizable error message.
type DriverError interface {
	error
	Errno() Errno
	Unwrap() error
	WithMessage(message string) DriverError
	Wrap(err error) DriverError
}

type driverError struct {
	errno         Errno
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e driverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return StrError(e.errno)
}

func (e driverError) Errno() Errno {
	return e.errno
}

func (e driverError) Unwrap() error {
	return e.originalError
}

// Is reports whether target carries the same errno. This lets a refined error
// such as ErrFileSystemCorrupted.WithMessage("...") still match the bare
// ErrFileSystemCorrupted sentinel.
func (e driverError) Is(target error) bool {
	other, ok := target.(DriverError)
	if !ok {
		return false
	}
	return other.Errno() == e.errno
}

// WithMessage returns a new error with the same errno whose message has
// `message` appended to it.
func (e driverError) WithMessage(message string) DriverError {
	return driverError{
		errno:         e.errno,
		message:       fmt.Sprintf("%s: %s", e.Error(), message),
		originalError: e.originalError,
	}
}

// Wrap returns a new error with the same errno that also wraps `err`, so that
// errors.Is and errors.As see through to it.
func (e driverError) Wrap(err error) DriverError {
	if err == nil {
		return e
	}
	return driverError{
		errno:         e.errno,
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e.originalError, err),
	}
}

// New creates a new [DriverError] with a default message derived from the
// system's error code.
func New(errnoCode Errno) DriverError {
	return driverError{
		errno:   errnoCode,
		message: StrError(errnoCode),
	}
}

func NewFromError(errnoCode Errno, originalError error) DriverError {
	return driverError{
		errno:         errnoCode,
		message:       fmt.Sprintf("%s: %s", StrError(errnoCode), originalError.Error()),
		originalError: originalError,
	}
}

// NewWithMessage creates a new DriverError from a system error code with a
// custom message.
func NewWithMessage(errnoCode Errno, message string) DriverError {
	return driverError{
		errno:   errnoCode,
		message: fmt.Sprintf("%s: %s", StrError(errnoCode), message),
	}
}

// ErrnoOf returns the errno carried by the first DriverError in err's chain, or
// EOK if there is none.
func ErrnoOf(err error) Errno {
	var drverr DriverError
	if stderrors.As(err, &drverr) {
		return drverr.Errno()
	}
	return EOK
}

// IsFatal reports whether err means the image can no longer be trusted and the
// run must stop.
func IsFatal(err error) bool {
	switch ErrnoOf(err) {
	case EUCLEAN, ELOOP:
		return false
	case EOK:
		return err != nil
	}
	return true
}
