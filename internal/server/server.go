// Package server exposes the search engine over HTTP for `trovo serve`.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
	"github.com/Aman-CERP/trovo/internal/metrics"
	"github.com/Aman-CERP/trovo/internal/search"
)

// Defaults for a Server.
const (
	DefaultLimit           = 10
	DefaultShutdownTimeout = 5 * time.Second
)

// Result is one ranked path in a search response.
type Result struct {
	Path  string `json:"path"`
	Score int    `json:"score"`
}

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	Query   string   `json:"query"`
	K       int      `json:"k"`
	Results []Result `json:"results"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status     string `json:"status"`
	Documents  int    `json:"documents"`
	K          int    `json:"k"`
	Generation uint64 `json:"generation"`
}

// Server serves search, health and metrics endpoints.
type Server struct {
	engine          *search.Engine
	registry        *prometheus.Registry
	metrics         *metrics.Metrics
	rebuilder       *Rebuilder
	defaultLimit    int
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics instruments every request.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithDefaultLimit sets the result count used when a request has no limit.
func WithDefaultLimit(n int) Option {
	return func(s *Server) { s.defaultLimit = n }
}

// WithRebuilder enables POST /rebuild.
func WithRebuilder(r *Rebuilder) Option {
	return func(s *Server) { s.rebuilder = r }
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdownTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server. reg may be nil, in which case /metrics is not
// served.
func New(engine *search.Engine, reg *prometheus.Registry, opts ...Option) *Server {
	s := &Server{
		engine:          engine,
		registry:        reg,
		defaultLimit:    DefaultLimit,
		shutdownTimeout: DefaultShutdownTimeout,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.rebuilder != nil {
		mux.HandleFunc("POST /rebuild", s.handleRebuild)
	}
	if s.registry != nil {
		mux.Handle("GET /metrics", metrics.Handler(s.registry))
	}

	var h http.Handler = mux
	if s.metrics != nil {
		h = instrument(s.metrics, h)
	}
	return h
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return trovoerrors.New(trovoerrors.ErrCodeInternal, fmt.Sprintf("failed to listen on %s", addr), err).
			WithSuggestion("Choose another address with --addr")
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server_listening", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server_stopped")
	return nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, trovoerrors.New(trovoerrors.ErrCodeQueryEmpty, "query parameter 'q' is required", nil))
		return
	}

	limit := s.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, trovoerrors.InvalidArgument(fmt.Sprintf("limit must be a non-negative integer, got %q", raw)))
			return
		}
		limit = n
	}

	var k int
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, trovoerrors.InvalidArgument(fmt.Sprintf("k must be an integer, got %q", raw)))
			return
		}
		k = n
	}

	results, err := s.engine.Search(r.Context(), query, search.SearchOptions{Limit: limit, K: k})
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := SearchResponse{Query: query, Results: make([]Result, len(results))}
	if idx := s.engine.Index(); idx != nil {
		resp.K = idx.K()
	}
	for i, res := range results {
		resp.Results[i] = Result{Path: res.ID, Score: res.Score}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok", Generation: s.engine.Generation()}
	idx := s.engine.Index()
	if idx == nil {
		resp.Status = "empty"
		s.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Documents = idx.Len()
	resp.K = idx.K()
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if err := s.rebuilder.Rebuild(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.handleHealth(w, r)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("response_write_failed", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	body, encErr := trovoerrors.FormatJSON(err)
	if encErr != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request_failed", trovoerrors.LogAttrs(err)...)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// statusFor maps an error code onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case trovoerrors.HasCode(err, trovoerrors.ErrCodeLockHeld):
		return http.StatusConflict
	case trovoerrors.HasCode(err, trovoerrors.ErrCodeSearchFailed):
		return http.StatusServiceUnavailable
	case trovoerrors.GetCategory(err) == trovoerrors.CategoryValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
