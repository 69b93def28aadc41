package features

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// MaxMagnitude bounds every numeric field. Larger values lose the unit
// precision the score floor is computed in.
const MaxMagnitude = 1e15

// Request is the typed prediction input after coercion.
type Request struct {
	Tool             string  `json:"ai_tools_used"`
	Purpose          string  `json:"ai_usage_purpose"`
	DependencyScore  float64 `json:"ai_dependency_score"`
	ContentPct       float64 `json:"ai_generated_content_percentage"`
	LastExamScore    float64 `json:"last_exam_score"`
	UsageHours       float64 `json:"ai_usage_hours"`
	StudyConsistency float64 `json:"study_consistency_index"`
	SleepHours       float64 `json:"sleep_hours"`
}

// DefaultRequest returns the values used for absent fields.
func DefaultRequest() Request {
	c := SchemaV1.Columns
	return Request{
		Tool:             c[ColTool].DefaultLabel,
		Purpose:          c[ColPurpose].DefaultLabel,
		DependencyScore:  c[ColDependency].Default,
		ContentPct:       c[ColContentPct].Default,
		LastExamScore:    c[ColLastExam].Default,
		UsageHours:       c[ColUsageHours].Default,
		StudyConsistency: c[ColStudyConsistency].Default,
		SleepHours:       c[ColSleep].Default,
	}
}

// ParseRequest coerces a JSON object into a Request. Absent keys take their
// defaults. Numeric fields accept JSON numbers and numeric strings; any other
// representation fails with *InvalidInputError naming the field.
func ParseRequest(body []byte) (Request, error) {
	if !gjson.ValidBytes(body) {
		return Request{}, &InvalidInputError{Field: "body", Value: preview(body), Reason: "not valid JSON"}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return Request{}, &InvalidInputError{Field: "body", Value: preview(body), Reason: "expected a JSON object"}
	}

	req := DefaultRequest()
	c := SchemaV1.Columns

	req.Tool = label(root, c[ColTool])
	req.Purpose = label(root, c[ColPurpose])

	numerics := []struct {
		col Column
		dst *float64
	}{
		{c[ColDependency], &req.DependencyScore},
		{c[ColContentPct], &req.ContentPct},
		{c[ColLastExam], &req.LastExamScore},
		{c[ColUsageHours], &req.UsageHours},
		{c[ColStudyConsistency], &req.StudyConsistency},
		{c[ColSleep], &req.SleepHours},
	}
	for _, n := range numerics {
		v, err := number(root, n.col)
		if err != nil {
			return Request{}, err
		}
		*n.dst = v
	}
	return req, nil
}

// label reads a categorical field. Absent or null keys take the default
// label; non-string values are kept as their JSON text.
func label(root gjson.Result, col Column) string {
	v := root.Get(gjson.Escape(col.RequestKey))
	switch v.Type {
	case gjson.Null:
		return col.DefaultLabel
	case gjson.String:
		return v.Str
	default:
		return v.Raw
	}
}

func number(root gjson.Result, col Column) (float64, error) {
	v := root.Get(gjson.Escape(col.RequestKey))
	if !v.Exists() {
		return col.Default, nil
	}

	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, &InvalidInputError{Field: col.RequestKey, Value: v.Str, Reason: "could not convert string to float"}
		}
		f = parsed
	default:
		return 0, &InvalidInputError{Field: col.RequestKey, Value: v.Raw, Reason: "expected a number"}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &InvalidInputError{Field: col.RequestKey, Value: v.Raw, Reason: "must be finite"}
	}
	if math.Abs(f) > MaxMagnitude {
		return 0, &InvalidInputError{Field: col.RequestKey, Value: v.Raw, Reason: "magnitude too large"}
	}
	return f, nil
}

// preview truncates a raw body for error messages.
func preview(body []byte) string {
	const maxPreview = 64
	s := strings.TrimSpace(string(body))
	if len(s) > maxPreview {
		return s[:maxPreview] + "..."
	}
	return s
}
