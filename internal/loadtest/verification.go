package loadtest

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// ErrViolation marks a response that breaks a serving guarantee.
var ErrViolation = errors.New("response violates serving guarantees")

// verifyResponse checks one response against what the case expects.
func verifyResponse(cfg *Config, tc Case, status int, body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: undecodable body (status %d): %v", ErrViolation, status, err)
	}

	if tc.Invalid {
		if status != http.StatusBadRequest || env.Success || env.Error == "" {
			return fmt.Errorf("%w: invalid request got status %d success=%t", ErrViolation, status, env.Success)
		}
		return nil
	}

	if status != http.StatusOK || !env.Success || env.Predictions == nil {
		return fmt.Errorf("%w: valid request got status %d: %s", ErrViolation, status, env.Error)
	}
	p := env.Predictions

	baseline := round2(tc.LastExam)
	switch {
	case p.LastExamScore != baseline:
		return fmt.Errorf("%w: last_exam_score %.2f, sent %.2f", ErrViolation, p.LastExamScore, baseline)
	case p.FinalScoreWithAI < baseline+cfg.FloorMargin-roundingTolerance:
		return fmt.Errorf("%w: final %.2f below floor %.2f", ErrViolation, p.FinalScoreWithAI, baseline+cfg.FloorMargin)
	case p.AIImpact < cfg.FloorMargin-roundingTolerance:
		return fmt.Errorf("%w: impact %.2f below margin %.2f", ErrViolation, p.AIImpact, cfg.FloorMargin)
	case math.Abs(p.FinalScoreWithAI-baseline-p.AIImpact) > 2*roundingTolerance:
		return fmt.Errorf("%w: impact %.2f is not final minus baseline", ErrViolation, p.AIImpact)
	}

	// a score within rounding of the pass mark may fall either way
	if math.Abs(p.FinalScoreWithAI-cfg.PassMark) > roundingTolerance {
		want := "No"
		if p.FinalScoreWithAI >= cfg.PassMark {
			want = "Yes"
		}
		if p.PassedWithAI != want {
			return fmt.Errorf("%w: passed_with_ai %q for %.2f", ErrViolation, p.PassedWithAI, p.FinalScoreWithAI)
		}
	}
	return nil
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
