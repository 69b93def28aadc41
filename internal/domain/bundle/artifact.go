package bundle

import (
	"github.com/okian/examcast/internal/domain/regressor"
)

// FormatVersion is the artifact layout this package reads.
const FormatVersion = 1

// Model kinds.
const (
	KindForest = "forest"
	KindLinear = "linear"
	KindONNX   = "onnx"
)

// Artifact is the on-disk form of a bundle, written by the training job.
type Artifact struct {
	FormatVersion  int       `json:"format_version" yaml:"format_version"`
	SchemaVersion  string    `json:"schema_version,omitempty" yaml:"schema_version,omitempty"`
	FeatureCols    []string  `json:"feature_cols" yaml:"feature_cols"`
	ToolsClasses   []string  `json:"tools_classes" yaml:"tools_classes"`
	PurposeClasses []string  `json:"purpose_classes" yaml:"purpose_classes"`
	Model          ModelSpec `json:"model" yaml:"model"`
}

// ModelSpec describes the regressor. Which fields apply depends on Kind.
type ModelSpec struct {
	Kind      string `json:"kind" yaml:"kind"`
	NFeatures int    `json:"n_features,omitempty" yaml:"n_features,omitempty"`

	// forest
	Trees []regressor.Tree `json:"trees,omitempty" yaml:"trees,omitempty"`

	// linear
	Intercept    float64   `json:"intercept,omitempty" yaml:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty" yaml:"coefficients,omitempty"`

	// onnx; Path is relative to the artifact's directory
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Input  string `json:"input,omitempty" yaml:"input,omitempty"`
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}
