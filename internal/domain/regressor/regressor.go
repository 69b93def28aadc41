// Package regressor evaluates fitted regression models on a feature row.
package regressor

import (
	"fmt"
	"math"
)

// Regressor maps one feature row to a raw score. Implementations are
// immutable after construction and safe for concurrent use.
type Regressor interface {
	Predict(x []float64) (float64, error)
	NumFeatures() int
}

// Closer is implemented by regressors holding native resources.
type Closer interface {
	Close() error
}

// Close releases r when it holds native resources.
func Close(r Regressor) error {
	if c, ok := r.(Closer); ok {
		return c.Close()
	}
	return nil
}

func checkWidth(x []float64, n int) error {
	if len(x) != n {
		return fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(x), n)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
