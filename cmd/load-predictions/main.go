package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/examcast/internal/loadtest"
)

// Default configuration constants.
const (
	defaultNumRequests = 5000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numRequests = flag.Int("requests", defaultNumRequests, "Number of requests to generate and submit")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		invalid     = flag.Float64("invalid", loadtest.DefaultInvalidRatio, "Share of deliberately invalid requests")
		unseen      = flag.Float64("unseen", loadtest.DefaultUnseenRatio, "Share of requests with unseen categories")
		passMark    = flag.Float64("pass-mark", loadtest.DefaultPassMark, "Pass mark the server uses")
		floorMargin = flag.Float64("floor-margin", loadtest.DefaultFloorMargin, "Floor margin the server uses")
		outputFile  = flag.String("output", "", "Write the generated requests to this file")
		logFile     = flag.String("log", "", "Also write logs to this file")
		verbose     = flag.Bool("verbose", false, "Log every violation")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	if err := loadtest.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &loadtest.Config{
		BaseURL:      *baseURL,
		NumRequests:  *numRequests,
		Workers:      *workers,
		Timeout:      *timeout,
		InvalidRatio: *invalid,
		UnseenRatio:  *unseen,
		PassMark:     *passMark,
		FloorMargin:  *floorMargin,
		OutputFile:   *outputFile,
		Verbose:      *verbose,
	}

	if _, err := loadtest.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
