package features

import (
	"errors"
	"fmt"
)

// Sentinel kinds for feature errors.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrSchemaMismatch = errors.New("feature schema mismatch")
)

// InvalidInputError identifies the request field that could not be coerced.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid input format: %s=%s", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid input format: %s=%s: %s", e.Field, e.Value, e.Reason)
}

// Unwrap exposes ErrInvalidInput to errors.Is.
func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }
