// Package inference runs the regressor on assembled feature vectors.
package inference

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/examcast/internal/domain/features"
	"github.com/okian/examcast/internal/domain/regressor"
)

// Engine wraps one bundle's regressor.
type Engine struct {
	model regressor.Regressor
}

// New binds a regressor. A nil regressor yields an engine that always
// reports the model as unavailable.
func New(model regressor.Regressor) *Engine {
	return &Engine{model: model}
}

// Predict returns the raw score for vec. It never retries.
func (e *Engine) Predict(ctx context.Context, vec features.Vector) (float64, error) {
	if e == nil || e.model == nil {
		return 0, &ModelUnavailableError{}
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context cancelled: %w", err)
	}
	if n := e.model.NumFeatures(); n != features.Width {
		return 0, &ModelUnavailableError{Cause: fmt.Errorf("%w: model expects %d features", regressor.ErrFeatureCount, n)}
	}
	y, err := e.model.Predict(vec.Slice())
	if err != nil {
		return 0, &ModelUnavailableError{Cause: err}
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, &ModelUnavailableError{Cause: fmt.Errorf("non-finite output %v", y)}
	}
	return y, nil
}
