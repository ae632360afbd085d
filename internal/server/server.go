package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HerbHall/shopfront/internal/version"
)

// RouteRegistrar mounts a component's routes on the server mux.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Option configures a Server.
type Option func(*Server)

// WithRoutes mounts each registrar's routes.
func WithRoutes(rs ...RouteRegistrar) Option {
	return func(s *Server) { s.routes = append(s.routes, rs...) }
}

// WithMetricsHandler serves h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithCORSOrigins sets the allowed browser origins. Empty disables CORS.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithRateLimit caps inbound API requests per second across all clients.
// Zero or negative disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// Server is the shopfront HTTP server.
type Server struct {
	httpServer  *http.Server
	logger      *zap.Logger
	mux         *http.ServeMux
	routes      []RouteRegistrar
	metrics     http.Handler
	corsOrigins []string
	limiter     *rate.Limiter
}

// New creates a new Server listening on addr.
func New(addr string, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		logger: logger.Named("server"),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerCoreRoutes()
	for _, r := range s.routes {
		r.RegisterRoutes(s.mux)
	}

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays zero: the favorites websocket is long-lived.
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("/api/", s.handleUnknownAPI)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
}

// Handler returns the mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.rateLimit(h)
	h = versionHeader(h)
	h = corsHandler(s.corsOrigins, h)
	h = s.recoverer(h)
	h = s.accessLog(h)
	h = requestID(h)
	return h
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth returns the server health status.
//
//	@Summary		Health check
//	@Tags			system
//	@Produce		json
//	@Success		200 {object} map[string]any
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"service": "shopfront",
		"version": version.Map(),
	})
}

func (s *Server) handleUnknownAPI(w http.ResponseWriter, r *http.Request) {
	NotFound(w, "no route for "+r.Method+" "+r.URL.Path, r.URL.Path)
}
