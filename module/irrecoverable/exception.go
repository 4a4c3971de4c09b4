package irrecoverable

import (
	"errors"
	"fmt"
)

// exception represents an unexpected error. An unexpected error is any error returned
// by a function, other than the error specifically documented as expected in that
// function's interface.
//
// It wraps an unexpected error, which allows error handling logic to distinguish
// the two: a benign error returned from a function may be handled by the caller,
// while an exception has to be escalated.
type exception struct {
	err error
}

func (e exception) Error() string {
	return "[exception!] " + e.err.Error()
}

func (e exception) Unwrap() error {
	return e.err
}

// NewException wraps the input error as an exception, stripping any sentinel error
// information from the surface while keeping it available to errors.As / errors.Is.
func NewException(err error) error {
	return exception{err: err}
}

// NewExceptionf is NewException with fmt.Errorf formatting.
func NewExceptionf(msg string, args ...interface{}) error {
	return NewException(fmt.Errorf(msg, args...))
}

// IsException returns true if err is, or wraps, an exception.
func IsException(err error) bool {
	var e exception
	return errors.As(err, &e)
}
