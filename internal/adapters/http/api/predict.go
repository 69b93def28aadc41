package api

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/shopspring/decimal"

	service "github.com/okian/examcast/internal/app"
	"github.com/okian/examcast/pkg/logger"
)

// PredictionResponse is the envelope for POST /predict.
type PredictionResponse struct {
	Success     bool         `json:"success"`
	Predictions *Predictions `json:"predictions,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Predictions carries the rounded scores of a successful prediction.
type Predictions struct {
	FinalScoreWithAI float64 `json:"final_score_with_ai"`
	LastExamScore    float64 `json:"last_exam_score"`
	AIImpact         float64 `json:"ai_impact"`
	PassedWithAI     string  `json:"passed_with_ai"`
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps         Dependencies
	maxBodyBytes int64
}

// NewPredictHandler creates a new prediction handler.
func NewPredictHandler(deps Dependencies, maxBodyBytes int64) *PredictHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &PredictHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, http.StatusRequestEntityTooLarge,
				fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit).Error())
			return
		}
		writeFailure(w, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrReadBody, err).Error())
		return
	}

	out := h.deps.HandlePrediction(r.Context(), body)
	if !out.OK() {
		logger.Get().Debug(r.Context(), "prediction rejected",
			logger.String("requestId", RequestIDFromContext(r.Context())),
			logger.String("kind", string(out.Failure.Kind)),
		)
		writeFailure(w, out.Failure.Status, out.Failure.Message)
		return
	}
	env := Envelope(out)
	if !env.Success {
		logger.Get().Error(r.Context(), "prediction not representable",
			logger.String("requestId", RequestIDFromContext(r.Context())),
			logger.Float64("calibrated", out.Prediction.CalibratedScore),
			logger.Float64("impact", out.Prediction.Impact),
		)
		writeJSON(w, http.StatusInternalServerError, env)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// Envelope shapes an outcome the way POST /predict returns it. A prediction
// carrying a non-finite score becomes an internal-error envelope.
func Envelope(out service.Outcome) PredictionResponse {
	if !out.OK() {
		return PredictionResponse{Success: false, Error: out.Failure.Message}
	}
	p := out.Prediction
	if !finite(p.CalibratedScore) || !finite(p.BaselineScore) || !finite(p.Impact) {
		return PredictionResponse{Success: false, Error: errInternal}
	}
	passed := "No"
	if p.Passed {
		passed = "Yes"
	}
	return PredictionResponse{
		Success: true,
		Predictions: &Predictions{
			FinalScoreWithAI: round2(p.CalibratedScore),
			LastExamScore:    round2(p.BaselineScore),
			AIImpact:         round2(p.Impact),
			PassedWithAI:     passed,
		},
	}
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, PredictionResponse{Success: false, Error: msg})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// round2 rounds half away from zero on the decimal representation.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
