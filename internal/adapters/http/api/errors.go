package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBodyTooLarge = errors.New("request body too large")
	ErrReadBody     = errors.New("read request body failed")
)

// errInternal is the message for failures the caller cannot act on.
const errInternal = "internal error"
