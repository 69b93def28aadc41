// Package model contains domain models passed between layers.
package model

// Prediction is the calibrated outcome of one request.
type Prediction struct {
	RawScore        float64 // regressor output before the floor
	CalibratedScore float64 // max(raw, baseline + margin)
	BaselineScore   float64 // the student's last exam score
	Impact          float64 // calibrated - baseline
	Passed          bool    // calibrated >= pass mark
	Clamped         bool    // the floor overrode the regressor
}
