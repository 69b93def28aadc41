package category

import (
	"errors"
	"fmt"
)

// Sentinel kinds for encoder errors.
var (
	ErrEncoding        = errors.New("category encoding failed")
	ErrEmptyVocabulary = errors.New("empty vocabulary")
	ErrDuplicateClass  = errors.New("duplicate class")
)

// EncodingError reports an encoder that cannot map between labels and codes.
type EncodingError struct {
	Encoder string
	Reason  string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoder %q: %s", e.Encoder, e.Reason)
}

// Unwrap exposes ErrEncoding to errors.Is.
func (e *EncodingError) Unwrap() error { return ErrEncoding }
