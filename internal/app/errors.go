package service

import "errors"

// ErrUnrepresentable reports a calibrated prediction that cannot be served:
// a non-finite score or an impact below the floor margin.
var ErrUnrepresentable = errors.New("prediction not representable")
