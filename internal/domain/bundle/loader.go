package bundle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/okian/examcast/internal/domain/category"
	"github.com/okian/examcast/internal/domain/features"
	"github.com/okian/examcast/internal/domain/regressor"
)

// Encoder names used in logs and metrics.
const (
	ToolsEncoder    = "tools"
	PurposesEncoder = "purposes"
)

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	onnxLibrary string
	now         func() time.Time
}

// WithONNXLibrary sets the onnxruntime shared library used for onnx models.
func WithONNXLibrary(path string) LoadOption {
	return func(c *loadConfig) {
		c.onnxLibrary = path
	}
}

// WithClock overrides the load timestamp source.
func WithClock(now func() time.Time) LoadOption {
	return func(c *loadConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// Load reads, validates and builds the bundle at path. A missing file fails
// with ErrMissing; anything else wrong with the artifact with ErrMalformed.
func Load(ctx context.Context, path string, opts ...LoadOption) (*Bundle, error) {
	cfg := &loadConfig{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load cancelled: %w", err)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrMissing)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("read bundle %s: %w", path, err)
	}

	art, err := Decode(path, data)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	return Build(art, Meta{
		Source:   path,
		Checksum: hex.EncodeToString(sum[:]),
		LoadedAt: cfg.now(),
	}, cfg.onnxLibrary)
}

// Decode parses artifact bytes, choosing the format from the file extension.
func Decode(path string, data []byte) (Artifact, error) {
	var art Artifact
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &art); err != nil {
			return Artifact{}, fmt.Errorf("%w: decode yaml: %v", ErrMalformed, err)
		}
	default:
		if err := json.Unmarshal(data, &art); err != nil {
			return Artifact{}, fmt.Errorf("%w: decode json: %v", ErrMalformed, err)
		}
	}
	return art, nil
}

// Build validates a decoded artifact and constructs its bundle. Relative onnx
// paths resolve against the directory of meta.Source.
func Build(art Artifact, meta Meta, onnxLibrary string) (*Bundle, error) {
	if art.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format_version %d", ErrMalformed, art.FormatVersion)
	}
	if err := features.SchemaV1.Verify(art.SchemaVersion, art.FeatureCols); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	tools, err := category.New(ToolsEncoder, art.ToolsClasses)
	if err != nil {
		return nil, fmt.Errorf("%w: tools_classes: %v", ErrMalformed, err)
	}
	purposes, err := category.New(PurposesEncoder, art.PurposeClasses)
	if err != nil {
		return nil, fmt.Errorf("%w: purpose_classes: %v", ErrMalformed, err)
	}

	model, err := buildModel(art.Model, filepath.Dir(meta.Source), onnxLibrary)
	if err != nil {
		return nil, fmt.Errorf("%w: model: %v", ErrMalformed, err)
	}

	meta.SchemaVersion = art.SchemaVersion
	meta.Kind = art.Model.Kind
	b, err := New(model, tools, purposes, meta)
	if err != nil {
		_ = regressor.Close(model)
		return nil, err
	}
	return b, nil
}

func buildModel(spec ModelSpec, baseDir, onnxLibrary string) (regressor.Regressor, error) {
	n := spec.NFeatures
	if n == 0 {
		n = features.Width
	}
	switch spec.Kind {
	case KindForest:
		return regressor.NewForest(n, spec.Trees)
	case KindLinear:
		return regressor.NewLinear(spec.Intercept, spec.Coefficients)
	case KindONNX:
		path := spec.Path
		if path != "" && !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		return regressor.NewONNX(regressor.ONNXConfig{
			ModelPath:   path,
			LibraryPath: onnxLibrary,
			Input:       spec.Input,
			Output:      spec.Output,
			NumFeatures: n,
		})
	case "":
		return nil, errors.New("missing kind")
	default:
		return nil, fmt.Errorf("unknown kind %q", spec.Kind)
	}
}
