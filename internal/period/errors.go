package period

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuarter is returned when a quarter outside 1-4 is requested.
	ErrInvalidQuarter = errors.New("quarter must be between 1 and 4")

	// ErrYearOutOfRange is returned when a year falls outside the configured bounds.
	ErrYearOutOfRange = errors.New("year out of supported range")

	// ErrInvalidRange is returned when a period starts after it ends.
	ErrInvalidRange = errors.New("period start is after period end")

	// ErrInvalidHorizon is returned when a forecast window has no days.
	ErrInvalidHorizon = errors.New("forecast horizon must be positive")
)

// ValidationError describes which constraint a period selector violated.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap returns the sentinel error for errors.Is matching.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(field string, value interface{}, err error, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsValidation reports whether err carries a period ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
