package service

import (
	"errors"
	"net/http"

	"github.com/okian/examcast/internal/domain/category"
	"github.com/okian/examcast/internal/domain/features"
	"github.com/okian/examcast/internal/domain/inference"
	"github.com/okian/examcast/internal/domain/model"
	"github.com/okian/examcast/pkg/metrics"
)

// FailureKind classifies a failed prediction.
type FailureKind string

// Failure kinds.
const (
	KindInvalidInput     FailureKind = "invalid_input"
	KindModelUnavailable FailureKind = "model_unavailable"
	KindEncodingError    FailureKind = "encoding_error"
	KindInternalError    FailureKind = "internal_error"
)

const internalErrorMessage = "internal error"

// Failure is the boundary form of an error: a kind, an HTTP status and a
// message safe to return to the caller.
type Failure struct {
	Kind    FailureKind
	Status  int
	Message string
}

// Outcome is exactly one of a prediction or a failure.
type Outcome struct {
	Prediction model.Prediction
	Failure    *Failure
}

// OK reports whether the outcome carries a prediction.
func (o Outcome) OK() bool { return o.Failure == nil }

// Classify maps an error from the prediction pipeline to a Failure.
func Classify(err error) *Failure {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, features.ErrInvalidInput):
		return &Failure{Kind: KindInvalidInput, Status: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, inference.ErrModelUnavailable):
		return &Failure{Kind: KindModelUnavailable, Status: http.StatusInternalServerError, Message: err.Error()}
	case errors.Is(err, category.ErrEncoding):
		return &Failure{Kind: KindEncodingError, Status: http.StatusInternalServerError, Message: err.Error()}
	default:
		return &Failure{Kind: KindInternalError, Status: http.StatusInternalServerError, Message: internalErrorMessage}
	}
}

func (k FailureKind) outcome() string {
	switch k {
	case KindInvalidInput:
		return metrics.OutcomeInvalidInput
	case KindModelUnavailable:
		return metrics.OutcomeModelUnavailable
	case KindEncodingError:
		return metrics.OutcomeEncodingError
	default:
		return metrics.OutcomeInternalError
	}
}
