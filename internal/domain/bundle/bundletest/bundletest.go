// Package bundletest provides a small, hand-computable bundle for tests.
//
// The forest has two stumps: one splits last_exam_score at 50 (45 left, 70
// right), the other splits the tool code at 0.5 (55 left, 65 right). A
// default request therefore predicts 55, and last_exam_score 90 with tool
// "None" predicts 67.5.
package bundletest

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/okian/examcast/internal/domain/bundle"
	"github.com/okian/examcast/internal/domain/features"
	"github.com/okian/examcast/internal/domain/regressor"
)

// Fitted vocabularies of the fixture.
var (
	Tools    = []string{"ChatGPT", "None", "Other"}
	Purposes = []string{"Homework", "Research", "None"}
)

func stump(feature int, threshold, left, right float64) regressor.Tree {
	return regressor.Tree{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{feature, -2, -2},
		Threshold:     []float64{threshold, -2, -2},
		Value:         []float64{0, left, right},
	}
}

// Artifact returns a fresh copy of the fixture artifact.
func Artifact() bundle.Artifact {
	return bundle.Artifact{
		FormatVersion:  bundle.FormatVersion,
		SchemaVersion:  features.SchemaV1.Version,
		FeatureCols:    features.SchemaV1.Names(),
		ToolsClasses:   append([]string(nil), Tools...),
		PurposeClasses: append([]string(nil), Purposes...),
		Model: bundle.ModelSpec{
			Kind:      bundle.KindForest,
			NFeatures: features.Width,
			Trees: []regressor.Tree{
				stump(features.ColLastExam, 50, 45, 70),
				stump(features.ColTool, 0.5, 55, 65),
			},
		},
	}
}

// LinearArtifact returns an artifact whose model predicts
// 10 + 0.8 * last_exam_score.
func LinearArtifact() bundle.Artifact {
	art := Artifact()
	coef := make([]float64, features.Width)
	coef[features.ColLastExam] = 0.8
	art.Model = bundle.ModelSpec{Kind: bundle.KindLinear, Intercept: 10, Coefficients: coef}
	return art
}

// New builds the fixture bundle in memory.
func New(t testing.TB) *bundle.Bundle {
	t.Helper()
	b, err := bundle.Build(Artifact(), bundle.Meta{Source: "bundletest"}, "")
	if err != nil {
		t.Fatalf("build fixture bundle: %v", err)
	}
	return b
}

// WriteJSON writes art as JSON to dir/name and returns the path.
func WriteJSON(t testing.TB, dir, name string, art bundle.Artifact) string {
	t.Helper()
	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return write(t, dir, name, data)
}

// WriteYAML writes art as YAML to dir/name and returns the path.
func WriteYAML(t testing.TB, dir, name string, art bundle.Artifact) string {
	t.Helper()
	data, err := yaml.Marshal(art)
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return write(t, dir, name, data)
}

// WriteRaw writes arbitrary bytes to dir/name and returns the path.
func WriteRaw(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	return write(t, dir, name, data)
}

func write(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
