// Package features turns prediction requests into the fixed-order numeric
// vector the regressor was fitted on.
package features

import (
	"fmt"
	"strings"
)

// Width is the number of columns the regressor consumes.
const Width = 8

// Column indices in the fitted order.
const (
	ColTool = iota
	ColPurpose
	ColDependency
	ColContentPct
	ColLastExam
	ColUsageHours
	ColStudyConsistency
	ColSleep
)

// Vector is one row of model input in schema order.
type Vector [Width]float64

// Slice returns the row as the slice regressors consume.
func (v Vector) Slice() []float64 {
	return v[:]
}

// Kind separates encoded categorical columns from plain numeric ones.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

// Column declares one model input: the name it had when the model was fit,
// the request key that feeds it, and the value used when the key is absent.
type Column struct {
	Name         string
	RequestKey   string
	Kind         Kind
	Default      float64
	DefaultLabel string
}

// Schema is the versioned feature declaration shared by the artifact
// loader and the assembler.
type Schema struct {
	Version string
	Columns [Width]Column
}

// SchemaV1 is the column order the current model family was fitted with.
var SchemaV1 = Schema{
	Version: "v1",
	Columns: [Width]Column{
		ColTool:             {Name: "ai_tools_used_encoded", RequestKey: "ai_tools_used", Kind: Categorical, DefaultLabel: "None"},
		ColPurpose:          {Name: "ai_usage_purpose_encoded", RequestKey: "ai_usage_purpose", Kind: Categorical, DefaultLabel: "None"},
		ColDependency:       {Name: "ai_dependency_score", RequestKey: "ai_dependency_score", Default: 5},
		ColContentPct:       {Name: "ai_generated_content_percentage", RequestKey: "ai_generated_content_percentage", Default: 50},
		ColLastExam:         {Name: "last_exam_score", RequestKey: "last_exam_score", Default: 50},
		ColUsageHours:       {Name: "ai_usage_time_hours", RequestKey: "ai_usage_hours", Default: 1.0},
		ColStudyConsistency: {Name: "study_consistency_index", RequestKey: "study_consistency_index", Default: 5},
		ColSleep:            {Name: "sleep_hours", RequestKey: "sleep_hours", Default: 7},
	},
}

// Names returns the fitted column names in order.
func (s Schema) Names() []string {
	out := make([]string, Width)
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Verify checks an artifact's recorded column order against the schema.
func (s Schema) Verify(version string, names []string) error {
	if version != "" && version != s.Version {
		return fmt.Errorf("%w: artifact schema %q, serving %q", ErrSchemaMismatch, version, s.Version)
	}
	if len(names) != Width {
		return fmt.Errorf("%w: artifact has %d columns, serving %d", ErrSchemaMismatch, len(names), Width)
	}
	for i, c := range s.Columns {
		if names[i] != c.Name {
			return fmt.Errorf("%w: column %d is %q, expected %q (artifact order: %s)",
				ErrSchemaMismatch, i, names[i], c.Name, strings.Join(names, ","))
		}
	}
	return nil
}
