// bundlectl inspects, verifies and exercises model bundles offline.
//
// Usage:
//
//	bundlectl inspect model.json --format yaml
//	bundlectl verify model.json
//	bundlectl predict model.json '{"last_exam_score": 62}'
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/okian/examcast/pkg/logger"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "bundlectl",
		Usage:     "Inspect, verify and run exam score model bundles",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"EXAMCAST_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "onnx-library",
				Usage:   "Path to the onnxruntime shared library (onnx bundles only)",
				EnvVars: []string{"EXAMCAST_ONNX_LIBRARY_PATH"},
			},
		},
		Before: func(c *cli.Context) error {
			if err := logger.Init(logger.WithOutput(c.App.ErrWriter)); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			return logger.SetLevelString(c.String("log-level"))
		},
		Commands: []*cli.Command{
			inspectCommand(),
			verifyCommand(),
			predictCommand(),
		},
	}
}
