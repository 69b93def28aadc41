package regressor

import "errors"

// Sentinel kinds for regressor construction and evaluation.
var (
	ErrInvalidModel = errors.New("invalid regression model")
	ErrFeatureCount = errors.New("feature count mismatch")
	ErrRuntime      = errors.New("onnx runtime unavailable")
	ErrClosed       = errors.New("regressor closed")
)
