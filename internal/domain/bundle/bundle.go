// Package bundle loads and publishes the trained model bundle: the regressor
// and the two fitted category encoders that must be used together.
package bundle

import (
	"fmt"
	"time"

	"github.com/okian/examcast/internal/domain/category"
	"github.com/okian/examcast/internal/domain/features"
	"github.com/okian/examcast/internal/domain/inference"
	"github.com/okian/examcast/internal/domain/regressor"
	"github.com/okian/examcast/internal/domain/types"
)

// Bundle is immutable once built. Requests take one snapshot so the encoders
// and the model always come from the same artifact.
type Bundle struct {
	Model         regressor.Regressor
	Tools         *category.Encoder
	Purposes      *category.Encoder
	SchemaVersion string
	Kind          string
	Source        string
	Checksum      string
	LoadedAt      time.Time

	assembler *features.Assembler
	engine    *inference.Engine
}

// Meta describes where a bundle came from.
type Meta struct {
	SchemaVersion string
	Kind          string
	Source        string
	Checksum      string
	LoadedAt      time.Time
}

// New assembles a bundle from already-built parts.
func New(model regressor.Regressor, tools, purposes *category.Encoder, meta Meta) (*Bundle, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: no model", ErrMalformed)
	}
	if tools.Len() == 0 || purposes.Len() == 0 {
		return nil, fmt.Errorf("%w: missing encoder", ErrMalformed)
	}
	if n := model.NumFeatures(); n != features.Width {
		return nil, fmt.Errorf("%w: model expects %d features, schema has %d", ErrMalformed, n, features.Width)
	}
	if meta.SchemaVersion == "" {
		meta.SchemaVersion = features.SchemaV1.Version
	}
	if meta.LoadedAt.IsZero() {
		meta.LoadedAt = time.Now()
	}
	return &Bundle{
		Model:         model,
		Tools:         tools,
		Purposes:      purposes,
		SchemaVersion: meta.SchemaVersion,
		Kind:          meta.Kind,
		Source:        meta.Source,
		Checksum:      meta.Checksum,
		LoadedAt:      meta.LoadedAt,
		assembler:     features.NewAssembler(tools, purposes),
		engine:        inference.New(model),
	}, nil
}

// Assembler returns the feature assembler bound to this bundle's encoders.
func (b *Bundle) Assembler() *features.Assembler { return b.assembler }

// Engine returns the inference engine bound to this bundle's model.
func (b *Bundle) Engine() *inference.Engine { return b.engine }

// Categories returns both vocabularies in fitted order.
func (b *Bundle) Categories() types.Categories {
	if b == nil {
		return types.Empty()
	}
	return types.Categories{Tools: b.Tools.Classes(), Purposes: b.Purposes.Classes()}
}

// Close releases native resources held by the model.
func (b *Bundle) Close() error {
	if b == nil {
		return nil
	}
	return regressor.Close(b.Model)
}
