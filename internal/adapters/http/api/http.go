// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"

	service "github.com/okian/examcast/internal/app"
	"github.com/okian/examcast/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// HandlePrediction parses and answers one raw POST /predict body.
	HandlePrediction(ctx context.Context, body []byte) service.Outcome

	// Categories lists the fitted vocabularies; empty when degraded.
	Categories(ctx context.Context) types.Categories

	// Ready reports whether a model bundle is loaded.
	Ready() bool
}

// Defaults for server options.
const (
	defaultMaxBodyBytes = 1 << 20
	defaultCORSOrigin   = "*"
)

// Option configures a Server.
type Option func(*Server)

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithCORSOrigin sets the Access-Control-Allow-Origin value.
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.corsOrigin = origin
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	predictHandler    *PredictHandler
	categoriesHandler *CategoriesHandler
	statusHandler     *StatusHandler

	maxBodyBytes int64
	corsOrigin   string
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxBodyBytes: defaultMaxBodyBytes,
		corsOrigin:   defaultCORSOrigin,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.predictHandler = NewPredictHandler(deps, s.maxBodyBytes)
	s.categoriesHandler = NewCategoriesHandler(deps)
	s.statusHandler = NewStatusHandler(deps, statsProvider)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/predict", s.wrap(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/categories", s.wrap(s.categoriesHandler.HandleCategories, "categories"))
	mux.HandleFunc("/readyz", s.wrap(s.statusHandler.HandleReady, "readyz"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.statusHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", s.wrap(s.statusHandler.HandleStats, "stats"))
}

// wrap applies the middleware chain shared by JSON endpoints.
func (s *Server) wrap(h http.HandlerFunc, endpoint string) http.HandlerFunc {
	return MetricsMiddleware(RequestIDMiddleware(CORSMiddleware(h, s.corsOrigin)), endpoint)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
