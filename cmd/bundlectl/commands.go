package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/okian/examcast/internal/adapters/http/api"
	service "github.com/okian/examcast/internal/app"
	"github.com/okian/examcast/internal/domain/bundle"
	"github.com/okian/examcast/internal/domain/features"
	"github.com/okian/examcast/internal/domain/regressor"
	"github.com/okian/examcast/pkg/logger"
)

var (
	errBundleArg        = errors.New("bundle path argument is required")
	errUnknownFormat    = errors.New("unknown output format")
	errPredictionFailed = errors.New("prediction failed")
)

// report is what inspect prints.
type report struct {
	Source         string    `json:"source" yaml:"source"`
	Checksum       string    `json:"checksum" yaml:"checksum"`
	SchemaVersion  string    `json:"schema_version" yaml:"schema_version"`
	Kind           string    `json:"kind" yaml:"kind"`
	Trees          int       `json:"trees,omitempty" yaml:"trees,omitempty"`
	FeatureCols    []string  `json:"feature_cols" yaml:"feature_cols"`
	ToolsClasses   []string  `json:"tools_classes" yaml:"tools_classes"`
	PurposeClasses []string  `json:"purpose_classes" yaml:"purpose_classes"`
	LoadedAt       time.Time `json:"loaded_at" yaml:"loaded_at"`
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the schema, classes and model kind of a bundle",
		ArgsUsage: "<bundle>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "json",
				Usage:   "Output format (json, yaml)",
			},
		},
		Action: runInspect,
	}
}

func runInspect(c *cli.Context) error {
	b, err := loadArg(c)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	r := report{
		Source:         b.Source,
		Checksum:       b.Checksum,
		SchemaVersion:  b.SchemaVersion,
		Kind:           b.Kind,
		FeatureCols:    features.SchemaV1.Names(),
		ToolsClasses:   b.Tools.Classes(),
		PurposeClasses: b.Purposes.Classes(),
		LoadedAt:       b.LoadedAt.UTC(),
	}
	if f, ok := b.Model.(*regressor.Forest); ok {
		r.Trees = f.NumTrees()
	}
	return render(c.App.Writer, c.String("format"), r)
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Load a bundle and fail if it cannot serve",
		ArgsUsage: "<bundle>",
		Action: func(c *cli.Context) error {
			b, err := loadArg(c)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			// one prediction on the default request proves the model runs
			asm, err := b.Assembler().Assemble(features.DefaultRequest())
			if err != nil {
				return err
			}
			raw, err := b.Engine().Predict(c.Context, asm.Vector)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "ok %s kind=%s checksum=%s default_raw=%.4f\n",
				b.Source, b.Kind, b.Checksum, raw)
			return nil
		},
	}
}

func predictCommand() *cli.Command {
	return &cli.Command{
		Name:      "predict",
		Usage:     "Run one prediction through the serving pipeline",
		ArgsUsage: "<bundle> [json-body]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Read the request body from a file ('-' for stdin)",
			},
			&cli.Float64Flag{
				Name:  "pass-mark",
				Value: 40,
				Usage: "Calibrated score counted as a pass",
			},
			&cli.Float64Flag{
				Name:  "floor-margin",
				Value: 1,
				Usage: "Minimum improvement over the last exam score",
			},
		},
		Action: runPredict,
	}
}

func runPredict(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errBundleArg
	}
	body, err := readBody(c)
	if err != nil {
		return err
	}

	svc := service.New(
		service.WithLogger(logger.Get()),
		service.WithBundlePath(path),
		service.WithONNXLibrary(c.String("onnx-library")),
		service.WithPassMark(c.Float64("pass-mark")),
		service.WithFloorMargin(c.Float64("floor-margin")),
	)
	if err := svc.Start(c.Context); err != nil {
		return err
	}
	defer svc.Stop()

	out := svc.HandlePrediction(c.Context, body)
	env := api.Envelope(out)
	if err := render(c.App.Writer, "json", env); err != nil {
		return err
	}
	switch {
	case !out.OK():
		return fmt.Errorf("%w: %s", errPredictionFailed, out.Failure.Kind)
	case !env.Success:
		return fmt.Errorf("%w: %s", errPredictionFailed, env.Error)
	}
	return nil
}

func readBody(c *cli.Context) ([]byte, error) {
	switch file := c.String("file"); {
	case file == "-":
		return io.ReadAll(os.Stdin)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return data, nil
	case c.Args().Len() > 1:
		return []byte(c.Args().Get(1)), nil
	default:
		return []byte(`{}`), nil
	}
}

func loadArg(c *cli.Context) (*bundle.Bundle, error) {
	path := c.Args().First()
	if path == "" {
		return nil, errBundleArg
	}
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return bundle.Load(ctx, path, bundle.WithONNXLibrary(c.String("onnx-library")))
}

func render(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
}
