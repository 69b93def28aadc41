package inference

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable is the kind of every inference failure.
var ErrModelUnavailable = errors.New("model unavailable")

// ModelUnavailableError reports that no usable regressor could answer.
type ModelUnavailableError struct {
	Cause error
}

func (e *ModelUnavailableError) Error() string {
	if e.Cause == nil {
		return "model not loaded"
	}
	return fmt.Sprintf("model unavailable: %v", e.Cause)
}

func (e *ModelUnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrModelUnavailable}
	}
	return []error{ErrModelUnavailable, e.Cause}
}
