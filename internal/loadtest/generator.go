package loadtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okian/examcast/pkg/logger"
)

const randomFloatDivisor = 1000000

// Labels the generator draws from. The unseen ones exercise the fallback
// to code 0.
var (
	knownTools     = []string{"ChatGPT", "Claude", "Copilot", "Gemini", "None", "Other"}
	knownPurposes  = []string{"Coding", "Essay", "Homework", "Research", "None"}
	unseenTools    = []string{"Perplexity", "NotebookLM", "StudyBuddy"}
	unseenPurposes = []string{"Gaming", "Translation", "Brainstorming"}
)

// numeric field ranges as [min, max).
var numericRanges = []struct {
	key      string
	min, max float64
}{
	{"ai_dependency_score", 1, 10},
	{"ai_generated_content_percentage", 0, 100},
	{"last_exam_score", 0, 100},
	{"ai_usage_hours", 0, 6},
	{"study_consistency_index", 1, 10},
	{"sleep_hours", 4, 10},
}

// invalid bodies, one picked per invalid case.
var invalidBodies = []string{
	`{"last_exam_score": "abc"}`,
	`{"sleep_hours": true}`,
	`{"ai_usage_hours": null}`,
	`{"ai_dependency_score": [5]}`,
	`{"study_consistency_index": "NaN"}`,
	`{"last_exam_score": 1e17}`,
	`[1, 2, 3]`,
	`not json`,
}

// getRandomFloat returns a random float64 in [0, 1) using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func randomIndex(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

func pick(values []string) string { return values[randomIndex(len(values))] }

// generateCases creates cfg.NumRequests cases.
func generateCases(ctx context.Context, cfg *Config, stats *Stats) ([]Case, error) {
	logger.Get().Info(ctx, "generating requests", logger.Int("numRequests", cfg.NumRequests))

	cases := make([]Case, cfg.NumRequests)
	for i := range cases {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		c, err := generateCase(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to generate request %d: %w", i, err)
		}
		cases[i] = c
	}

	stats.Generated = len(cases)
	logger.Get().Info(ctx, "generated requests", logger.Int("count", len(cases)))
	return cases, nil
}

func generateCase(cfg *Config) (Case, error) {
	id := uuid.NewString()
	if getRandomFloat() < cfg.InvalidRatio {
		return Case{ID: id, Body: pick(invalidBodies), Invalid: true}, nil
	}

	body := map[string]interface{}{}
	if getRandomFloat() < cfg.UnseenRatio {
		body["ai_tools_used"] = pick(unseenTools)
		body["ai_usage_purpose"] = pick(unseenPurposes)
	} else {
		body["ai_tools_used"] = pick(knownTools)
		body["ai_usage_purpose"] = pick(knownPurposes)
	}

	c := Case{ID: id, LastExam: 50}
	for _, r := range numericRanges {
		// an absent key takes the server default
		if getRandomFloat() < 0.05 {
			continue
		}
		v := decimal.NewFromFloat(r.min + getRandomFloat()*(r.max-r.min)).Round(1).InexactFloat64()
		if r.key == "last_exam_score" {
			c.LastExam = v
		}
		// numeric strings must be coerced
		if getRandomFloat() < 0.2 {
			body[r.key] = strconv.FormatFloat(v, 'f', -1, 64)
		} else {
			body[r.key] = v
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return Case{}, err
	}
	c.Body = string(data)
	return c, nil
}
