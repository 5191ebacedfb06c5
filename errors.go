package algokit

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the kind shared by every validation failure in algokit:
// non-positive sizes, out-of-range indices, malformed grids or coordinates.
var ErrInvalidInput = errors.New("algokit: invalid input")

// InvalidInputError describes which argument was rejected and why.
//
// It matches ErrInvalidInput through errors.Is.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("algokit: invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("algokit: invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// InvalidInput builds an *InvalidInputError with a formatted reason.
func InvalidInput(field, format string, args ...any) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidInput reports whether err is, or wraps, an invalid input error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
