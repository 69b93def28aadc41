// Package service provides the serving facade that owns the model bundle and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/examcast/internal/domain/bundle"
	"github.com/okian/examcast/internal/domain/calibration"
	"github.com/okian/examcast/internal/domain/features"
	"github.com/okian/examcast/internal/domain/inference"
	"github.com/okian/examcast/internal/domain/model"
	"github.com/okian/examcast/internal/domain/types"
	"github.com/okian/examcast/pkg/logger"
	"github.com/okian/examcast/pkg/metrics"
)

// Service answers prediction requests from the currently loaded bundle.
type Service struct {
	mu sync.RWMutex

	// Core components
	holder     *bundle.Holder
	calibrator *calibration.Calibrator

	// Configuration
	bundlePath     string
	onnxLibrary    string
	watch          bool
	reloadDebounce time.Duration
	passMark       float64
	floorMargin    float64
	preloaded      *bundle.Bundle

	// State
	started     bool
	stopWatch   context.CancelFunc
	watchDone   chan struct{}
	predictions atomic.Int64
	failures    atomic.Int64
	fallbacks   atomic.Int64
	reloads     atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBundlePath sets the artifact loaded on Start and on every reload.
func WithBundlePath(path string) Option {
	return func(s *Service) {
		s.bundlePath = path
	}
}

// WithBundle starts the service with an already-built bundle instead of
// loading one. Reload still reads the bundle path when one is set.
func WithBundle(b *bundle.Bundle) Option {
	return func(s *Service) {
		s.preloaded = b
	}
}

// WithWatch enables reloading when the artifact file changes.
func WithWatch(enabled bool) Option {
	return func(s *Service) {
		s.watch = enabled
	}
}

// WithReloadDebounce sets how long file events settle before a reload.
func WithReloadDebounce(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.reloadDebounce = d
		}
	}
}

// WithONNXLibrary sets the onnxruntime shared library path.
func WithONNXLibrary(path string) Option {
	return func(s *Service) {
		s.onnxLibrary = path
	}
}

// WithPassMark sets the pass mark used by calibration.
func WithPassMark(mark float64) Option {
	return func(s *Service) {
		s.passMark = mark
	}
}

// WithFloorMargin sets the floor margin used by calibration.
func WithFloorMargin(margin float64) Option {
	return func(s *Service) {
		s.floorMargin = margin
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		reloadDebounce: 250 * time.Millisecond,
		passMark:       calibration.DefaultPassMark,
		floorMargin:    calibration.DefaultFloorMargin,
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.calibrator = calibration.New(
		calibration.WithFloorMargin(s.floorMargin),
		calibration.WithPassMark(s.passMark),
	)
	s.holder = bundle.NewHolder(s.bundlePath,
		bundle.WithLoadOptions(bundle.WithONNXLibrary(s.onnxLibrary)),
	)
	return s
}

// Start loads the bundle. A load failure is logged and leaves the service
// degraded; Start itself only fails when the watcher cannot be set up.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting prediction service...",
		logger.String("bundle", s.bundlePath),
		logger.Float64("passMark", s.calibrator.PassMark()),
		logger.Float64("floorMargin", s.calibrator.FloorMargin()),
	)

	if s.preloaded != nil {
		s.holder.Store(s.preloaded)
		metrics.UpdateBundleLoaded(true)
		s.logBundle(ctx, s.preloaded)
	} else {
		// degraded start is not an error
		_ = s.reload(ctx)
	}

	if s.watch && s.bundlePath != "" {
		watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		w := bundle.NewWatcher(s.bundlePath, s.reloadDebounce,
			func(ctx context.Context) {
				s.log().Info(ctx, "bundle changed on disk, reloading")
				_ = s.reload(ctx)
			},
			func(err error) {
				s.log().Warn(watchCtx, "bundle watcher error", logger.Error(err))
			},
		)
		done := make(chan struct{})
		errCh := make(chan error, 1)
		go func() {
			defer close(done)
			errCh <- w.Run(watchCtx)
		}()
		// surface immediate setup failures (missing directory and the like)
		select {
		case err := <-errCh:
			cancel()
			if err != nil {
				return fmt.Errorf("watch bundle: %w", err)
			}
		case <-time.After(50 * time.Millisecond):
		}
		s.stopWatch = cancel
		s.watchDone = done
	}

	s.started = true
	s.logger.Info(ctx, "prediction service started", logger.Bool("ready", s.holder.Current() != nil))
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping prediction service...")

	if s.stopWatch != nil {
		s.stopWatch()
		<-s.watchDone
		s.stopWatch = nil
		s.watchDone = nil
	}
	if err := s.holder.Close(); err != nil {
		s.logger.Warn(context.Background(), "failed to release bundle", logger.Error(err))
	}
	metrics.UpdateBundleLoaded(false)

	s.started = false
	s.logger.Info(context.Background(), "prediction service stopped")
}

// Reload re-reads the artifact. On failure the current bundle stays.
func (s *Service) Reload(ctx context.Context) error {
	return s.reload(ctx)
}

func (s *Service) reload(ctx context.Context) error {
	start := time.Now()
	b, err := s.holder.Reload(ctx)
	elapsed := float64(time.Since(start).Nanoseconds()) / 1e6
	if err != nil {
		metrics.RecordBundleLoad(metrics.LoadFailed, elapsed, 0)
		metrics.RecordErrorByComponent("bundle", errorKind(err))
		metrics.UpdateBundleLoaded(s.holder.Current() != nil)
		s.log().Error(ctx, "failed to load model bundle",
			logger.String("path", s.bundlePath),
			logger.Bool("keptPrevious", s.holder.Current() != nil),
			logger.Error(err),
		)
		return err
	}
	s.reloads.Add(1)
	metrics.RecordBundleLoad(metrics.LoadSucceeded, elapsed, b.LoadedAt.Unix())
	metrics.UpdateBundleLoaded(true)
	s.logBundle(ctx, b)
	return nil
}

func (s *Service) logBundle(ctx context.Context, b *bundle.Bundle) {
	s.log().Info(ctx, "model bundle loaded",
		logger.String("source", b.Source),
		logger.String("kind", b.Kind),
		logger.String("schema", b.SchemaVersion),
		logger.String("checksum", b.Checksum),
		logger.Strings("toolClasses", b.Tools.Classes()),
		logger.Strings("purposeClasses", b.Purposes.Classes()),
	)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, bundle.ErrMissing):
		return "missing"
	case errors.Is(err, bundle.ErrMalformed):
		return "malformed"
	default:
		return "io"
	}
}

// Ready reports whether a bundle is loaded.
func (s *Service) Ready() bool {
	return s.holder.Current() != nil
}

// Categories returns both fitted vocabularies, or empty lists when degraded.
func (s *Service) Categories(_ context.Context) types.Categories {
	return s.holder.Current().Categories()
}

// Predict runs a typed request through the pipeline on one bundle snapshot.
func (s *Service) Predict(ctx context.Context, req features.Request) (model.Prediction, error) {
	b := s.holder.Current()
	if b == nil {
		return model.Prediction{}, &inference.ModelUnavailableError{}
	}
	return s.predictWith(ctx, b, req)
}

func (s *Service) predictWith(ctx context.Context, b *bundle.Bundle, req features.Request) (model.Prediction, error) {
	asm, err := b.Assembler().Assemble(req)
	if err != nil {
		return model.Prediction{}, err
	}
	for _, enc := range asm.Fallbacks {
		s.fallbacks.Add(1)
		metrics.RecordCategoryFallback(enc)
	}
	if len(asm.Fallbacks) > 0 {
		s.log().Debug(ctx, "unseen category mapped to first class",
			logger.Strings("encoders", asm.Fallbacks),
			logger.String("tool", req.Tool),
			logger.String("purpose", req.Purpose),
		)
	}

	raw, err := b.Engine().Predict(ctx, asm.Vector)
	if err != nil {
		metrics.RecordInferenceError()
		return model.Prediction{}, err
	}

	p := s.calibrator.Calibrate(raw, req.LastExamScore)
	if p.Clamped {
		metrics.RecordCalibrationClamp()
	}
	if !representable(p, s.calibrator.FloorMargin()) {
		return model.Prediction{}, fmt.Errorf("%w: calibrated=%v impact=%v",
			ErrUnrepresentable, p.CalibratedScore, p.Impact)
	}
	return p, nil
}

func representable(p model.Prediction, margin float64) bool {
	for _, v := range []float64{p.RawScore, p.CalibratedScore, p.BaselineScore, p.Impact} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p.Impact >= margin
}

// HandlePrediction is the request boundary: it parses body, predicts and
// converts every failure, including a panic, into an Outcome.
func (s *Service) HandlePrediction(ctx context.Context, body []byte) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log().Error(ctx, "prediction panicked", logger.Any("panic", r))
			out = Outcome{Failure: Classify(fmt.Errorf("panic: %v", r))}
		}
		s.record(ctx, out, start)
	}()

	b := s.holder.Current()
	if b == nil {
		return Outcome{Failure: Classify(&inference.ModelUnavailableError{})}
	}

	req, err := features.ParseRequest(body)
	if err != nil {
		return Outcome{Failure: Classify(err)}
	}
	s.log().Debug(ctx, "prediction request", logger.Any("request", req))

	p, err := s.predictWith(ctx, b, req)
	if err != nil {
		return Outcome{Failure: Classify(err)}
	}
	return Outcome{Prediction: p}
}

func (s *Service) record(ctx context.Context, out Outcome, start time.Time) {
	latency := float64(time.Since(start).Nanoseconds()) / 1e6
	metrics.RecordPredictionLatency(latency)
	s.predictions.Add(1)

	if out.OK() {
		metrics.RecordPrediction(metrics.OutcomeSuccess)
		metrics.RecordCalibratedScore(out.Prediction.CalibratedScore)
		return
	}
	s.failures.Add(1)
	kind := string(out.Failure.Kind)
	metrics.RecordPrediction(out.Failure.Kind.outcome())
	metrics.RecordErrorByComponent("facade", kind)
	metrics.RecordErrorLatency("facade", kind, latency)
	s.log().Debug(ctx, "prediction failed",
		logger.String("kind", kind),
		logger.Int("status", out.Failure.Status),
		logger.String("message", out.Failure.Message),
	)
}

// log returns the logger resolved in New. It is never reassigned.
func (s *Service) log() logger.Logger {
	return s.logger
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"ready":             false,
		"bundlePath":        s.bundlePath,
		"passMark":          s.calibrator.PassMark(),
		"floorMargin":       s.calibrator.FloorMargin(),
		"predictions":       s.predictions.Load(),
		"failures":          s.failures.Load(),
		"categoryFallbacks": s.fallbacks.Load(),
		"reloads":           s.reloads.Load(),
	}

	if b := s.holder.Current(); b != nil {
		stats["ready"] = true
		stats["bundle"] = map[string]interface{}{
			"kind":          b.Kind,
			"schemaVersion": b.SchemaVersion,
			"checksum":      b.Checksum,
			"source":        b.Source,
			"loadedAt":      b.LoadedAt.UTC().Format(time.RFC3339),
			"tools":         b.Tools.Len(),
			"purposes":      b.Purposes.Len(),
		}
	}
	return stats
}
