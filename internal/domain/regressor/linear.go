package regressor

import "fmt"

// Linear is an intercept plus one coefficient per feature.
type Linear struct {
	intercept    float64
	coefficients []float64
}

// NewLinear builds a linear model.
func NewLinear(intercept float64, coefficients []float64) (*Linear, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("%w: no coefficients", ErrInvalidModel)
	}
	if !finite(intercept) {
		return nil, fmt.Errorf("%w: non-finite intercept", ErrInvalidModel)
	}
	for i, c := range coefficients {
		if !finite(c) {
			return nil, fmt.Errorf("%w: non-finite coefficient %d", ErrInvalidModel, i)
		}
	}
	cp := make([]float64, len(coefficients))
	copy(cp, coefficients)
	return &Linear{intercept: intercept, coefficients: cp}, nil
}

// NumFeatures returns the number of coefficients.
func (l *Linear) NumFeatures() int { return len(l.coefficients) }

// Predict returns the intercept plus the dot product of x and the coefficients.
func (l *Linear) Predict(x []float64) (float64, error) {
	if err := checkWidth(x, len(l.coefficients)); err != nil {
		return 0, err
	}
	y := l.intercept
	for i, c := range l.coefficients {
		y += c * x[i]
	}
	return y, nil
}
