package loadtest

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/okian/examcast/pkg/logger"
)

const directoryPermission = 0o750

// Run executes a complete load run and returns its statistics. It fails when
// any response violates the serving guarantees.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	applyDefaults(cfg)
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting prediction load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.NumRequests),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.Float64("invalidRatio", cfg.InvalidRatio),
		logger.Float64("unseenRatio", cfg.UnseenRatio))

	if err := checkServiceReady(ctx, cfg); err != nil {
		return stats, fmt.Errorf("service readiness check failed: %w", err)
	}

	cases, err := generateCases(ctx, cfg, stats)
	if err != nil {
		return stats, fmt.Errorf("request generation failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := saveCases(ctx, cfg.OutputFile, cases); err != nil {
			logger.Get().Warn(ctx, "failed to save requests to file", logger.Error(err))
		}
	}

	if err := submitCases(ctx, cfg, cases, stats); err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.Violations > 0 {
		return stats, fmt.Errorf("%w: %d of %d responses", ErrViolation, stats.Violations, stats.Submitted)
	}
	logger.Get().Info(ctx, "load run completed successfully")
	return stats, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.InvalidRatio < 0 {
		cfg.InvalidRatio = DefaultInvalidRatio
	}
	if cfg.UnseenRatio < 0 {
		cfg.UnseenRatio = DefaultUnseenRatio
	}
	if cfg.PassMark <= 0 {
		cfg.PassMark = DefaultPassMark
	}
	if cfg.FloorMargin <= 0 {
		cfg.FloorMargin = DefaultFloorMargin
	}
}

// checkServiceReady requires the bundle to be loaded already.
func checkServiceReady(ctx context.Context, cfg *Config) error {
	client := newHTTPClient(cfg.Timeout)
	resp, err := client.Get(ctx, cfg.BaseURL+"/readyz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service not ready, status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is ready")
	return nil
}

// submitCases posts every case with cfg.Workers concurrent requests and
// verifies each response.
func submitCases(ctx context.Context, cfg *Config, cases []Case, stats *Stats) error {
	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/predict"

	var submitted, succeeded, rejected, failed, violations atomic.Int64
	var lastReport atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for _, tc := range cases {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			status, body, err := client.PostPrediction(gctx, url, tc)
			submitted.Add(1)
			if err != nil {
				failed.Add(1)
				if cfg.Verbose {
					logger.Get().Warn(gctx, "request failed", logger.String("id", tc.ID), logger.Error(err))
				}
				return nil
			}

			switch {
			case status == http.StatusOK:
				succeeded.Add(1)
			case status == http.StatusBadRequest:
				rejected.Add(1)
			default:
				failed.Add(1)
			}

			if err := verifyResponse(cfg, tc, status, body); err != nil {
				violations.Add(1)
				if cfg.Verbose {
					logger.Get().Warn(gctx, "violation",
						logger.String("id", tc.ID),
						logger.String("body", tc.Body),
						logger.Error(err))
				}
			}

			now := time.Now().UnixNano()
			last := lastReport.Load()
			if now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
				logger.Get().Info(gctx, "progress",
					logger.Int("submitted", int(submitted.Load())),
					logger.Int("total", len(cases)))
			}
			return nil
		})
	}
	err := g.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Succeeded = int(succeeded.Load())
	stats.Rejected = int(rejected.Load())
	stats.Failed = int(failed.Load())
	stats.Violations = int(violations.Load())

	if err != nil {
		return err
	}
	return ctx.Err()
}

// saveCases writes the generated cases as a JSON array.
func saveCases(ctx context.Context, filename string, cases []Case) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal requests: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "requests saved to file", logger.String("filename", filename))
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, requestsPerSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Submitted-stats.Violations) / float64(stats.Submitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("violations", stats.Violations),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("verifiedRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
