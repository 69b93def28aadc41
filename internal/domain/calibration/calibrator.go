// Package calibration applies the business floor and pass mark to raw scores.
package calibration

import (
	"math"

	"github.com/okian/examcast/internal/domain/model"
)

// Default calibration rules.
const (
	DefaultFloorMargin = 1.0
	DefaultPassMark    = 40.0
)

// Option applies a configuration option to the Calibrator.
type Option func(*Calibrator)

// WithFloorMargin sets how far above the baseline the calibrated score must
// land. Non-positive margins are ignored.
func WithFloorMargin(margin float64) Option {
	return func(c *Calibrator) {
		if margin > 0 && !math.IsInf(margin, 0) {
			c.floorMargin = margin
		}
	}
}

// WithPassMark sets the minimum calibrated score counted as a pass.
func WithPassMark(mark float64) Option {
	return func(c *Calibrator) {
		if !math.IsNaN(mark) && !math.IsInf(mark, 0) {
			c.passMark = mark
		}
	}
}

// Calibrator is stateless after construction.
type Calibrator struct {
	floorMargin float64
	passMark    float64
}

// New creates a calibrator with the default rules.
func New(opts ...Option) *Calibrator {
	c := &Calibrator{
		floorMargin: DefaultFloorMargin,
		passMark:    DefaultPassMark,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FloorMargin returns the configured margin.
func (c *Calibrator) FloorMargin() float64 { return c.floorMargin }

// PassMark returns the configured pass mark.
func (c *Calibrator) PassMark() float64 { return c.passMark }

// Calibrate raises raw to at least baseline + margin and derives the impact
// and pass decision from the result.
func (c *Calibrator) Calibrate(raw, baseline float64) model.Prediction {
	floor := c.floor(baseline)
	calibrated := math.Max(raw, floor)
	return model.Prediction{
		RawScore:        raw,
		CalibratedScore: calibrated,
		BaselineScore:   baseline,
		Impact:          calibrated - baseline,
		Passed:          calibrated >= c.passMark,
		Clamped:         raw < floor,
	}
}

// maxFloorSteps bounds the ulp nudges floor takes before giving up.
const maxFloorSteps = 8

// floor returns the smallest float f found from baseline + margin upward
// with f - baseline >= margin. Subtraction rounds monotonically, so every
// score at or above f keeps an impact of at least the margin.
func (c *Calibrator) floor(baseline float64) float64 {
	f := baseline + c.floorMargin
	for i := 0; i < maxFloorSteps && f-baseline < c.floorMargin; i++ {
		f = math.Nextafter(f, math.Inf(1))
	}
	return f
}
