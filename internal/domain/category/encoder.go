// Package category maps the fitted label vocabularies of categorical
// features to dense integer codes.
package category

import (
	"fmt"
	"strconv"
)

// Encoder is an immutable bijection between a fitted, ordered label
// vocabulary and the codes 0..N-1.
type Encoder struct {
	name    string
	classes []string
	index   map[string]int
}

// New builds an encoder over classes in the order they were fitted.
// The order is kept as given.
func New(name string, classes []string) (*Encoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("encoder %q: %w", name, ErrEmptyVocabulary)
	}
	e := &Encoder{
		name:    name,
		classes: make([]string, len(classes)),
		index:   make(map[string]int, len(classes)),
	}
	for i, c := range classes {
		if _, dup := e.index[c]; dup {
			return nil, fmt.Errorf("encoder %q: %w: %q", name, ErrDuplicateClass, c)
		}
		e.classes[i] = c
		e.index[c] = i
	}
	return e, nil
}

// Name identifies the encoder in logs and metrics.
func (e *Encoder) Name() string { return e.name }

// Len returns the vocabulary size.
func (e *Encoder) Len() int {
	if e == nil {
		return 0
	}
	return len(e.classes)
}

// Lookup returns the code for label and whether label belongs to the
// vocabulary. Unseen labels map to code 0, the first fitted class.
func (e *Encoder) Lookup(label string) (int, bool) {
	if code, ok := e.index[label]; ok {
		return code, true
	}
	return 0, false
}

// Encode returns the code for label. It never fails: unseen labels
// collapse to the first fitted class.
func (e *Encoder) Encode(label string) int {
	code, _ := e.Lookup(label)
	return code
}

// Decode returns the label for code.
func (e *Encoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", &EncodingError{Encoder: e.name, Reason: "code " + strconv.Itoa(code) + " out of range"}
	}
	return e.classes[code], nil
}

// Classes returns a copy of the vocabulary in fitted order.
func (e *Encoder) Classes() []string {
	if e == nil {
		return []string{}
	}
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}
