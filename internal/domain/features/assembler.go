package features

import (
	"github.com/okian/examcast/internal/domain/category"
)

// Assembly is an assembled vector plus the encoders that fell back to their
// first class for an unseen label.
type Assembly struct {
	Vector    Vector
	Fallbacks []string
}

// Assembler builds model input from typed requests using one bundle's
// encoders.
type Assembler struct {
	schema   Schema
	tools    *category.Encoder
	purposes *category.Encoder
}

// NewAssembler binds the two fitted encoders to the serving schema.
func NewAssembler(tools, purposes *category.Encoder) *Assembler {
	return &Assembler{schema: SchemaV1, tools: tools, purposes: purposes}
}

// Schema returns the schema the assembler fills.
func (a *Assembler) Schema() Schema { return a.schema }

// Assemble encodes the categorical fields and lays out every field in schema
// order. Unseen labels never fail; they are reported in Fallbacks.
func (a *Assembler) Assemble(req Request) (Assembly, error) {
	var out Assembly

	toolCode, err := encode(a.tools, a.schema.Columns[ColTool], req.Tool, &out.Fallbacks)
	if err != nil {
		return Assembly{}, err
	}
	purposeCode, err := encode(a.purposes, a.schema.Columns[ColPurpose], req.Purpose, &out.Fallbacks)
	if err != nil {
		return Assembly{}, err
	}

	out.Vector[ColTool] = float64(toolCode)
	out.Vector[ColPurpose] = float64(purposeCode)
	out.Vector[ColDependency] = req.DependencyScore
	out.Vector[ColContentPct] = req.ContentPct
	out.Vector[ColLastExam] = req.LastExamScore
	out.Vector[ColUsageHours] = req.UsageHours
	out.Vector[ColStudyConsistency] = req.StudyConsistency
	out.Vector[ColSleep] = req.SleepHours
	return out, nil
}

func encode(enc *category.Encoder, col Column, label string, fallbacks *[]string) (int, error) {
	if enc.Len() == 0 {
		return 0, &category.EncodingError{Encoder: col.RequestKey, Reason: "no fitted vocabulary"}
	}
	code, known := enc.Lookup(label)
	if !known {
		*fallbacks = append(*fallbacks, enc.Name())
	}
	return code, nil
}
