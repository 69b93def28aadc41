package loadtest

import (
	"fmt"
	"os"

	"github.com/okian/examcast/pkg/logger"
)

// Log rotation limits for the run log.
const (
	logMaxSizeMB  = 50
	logMaxBackups = 3
	logMaxAgeDays = 7
)

// SetupLogging logs to stdout and, when logFile is set, to a rotated file.
func SetupLogging(logFile string, verbose bool) error {
	var opts []logger.Option
	if logFile != "" {
		opts = append(opts, logger.WithFile(logFile, logMaxSizeMB, logMaxBackups, logMaxAgeDays))
	}
	if err := logger.Init(opts...); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the load tool.
func ShowHelp() {
	os.Stdout.WriteString(`examcast prediction load tool
=============================

Submits random prediction requests concurrently and checks every response:
calibrated scores never fall below last exam + floor margin, the pass flag
matches the pass mark, and malformed requests are rejected with 400.

Usage:
  go run ./cmd/load-predictions [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -requests int
        Number of requests to generate and submit (default 5000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -invalid float
        Share of deliberately invalid requests (default 0.1)
  -unseen float
        Share of requests with unseen categories (default 0.1)
  -pass-mark float
        Pass mark the server uses (default 40)
  -floor-margin float
        Floor margin the server uses (default 1)
  -output string
        Write the generated requests to this file
  -log string
        Also write logs to this file
  -verbose
        Log every violation
  -help
        Show this help message

Examples:
  go run ./cmd/load-predictions -requests 20000 -workers 32
  go run ./cmd/load-predictions -url http://localhost:8080 -invalid 0.3 -verbose
`)
}
