package bundle

import "errors"

// Sentinel kinds for bundle loading.
var (
	ErrMissing   = errors.New("model bundle not found")
	ErrMalformed = errors.New("model bundle malformed")
)
