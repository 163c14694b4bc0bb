package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readHeaderTimeout = 5 * time.Second
	healthTimeout     = 2 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// HealthChecker reports whether the broker connection is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Logger is the subset of logging used by the server.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Server exposes /metrics and /healthz over HTTP.
type Server struct {
	srv     *http.Server
	ln      net.Listener
	metrics *Metrics
	health  HealthChecker
	logger  Logger
}

// Listen binds addr and prepares the routes. Serving starts with Serve.
//
// Binding happens here so an unusable address is reported at startup.
//
// Parameters:
//   - addr: Listen address, e.g. ":9100" or "127.0.0.1:0"
//   - m: Metrics whose registry is exported
//   - health: Checked by /healthz
//   - logger: Receives server lifecycle messages
func Listen(addr string, m *Metrics, health HealthChecker, logger Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen on %s: %w", addr, err)
	}

	s := &Server{
		ln:      ln,
		metrics: m,
		health:  health,
		logger:  logger,
	}
	s.srv = &http.Server{Handler: s.buildRouter(), ReadHeaderTimeout: readHeaderTimeout}
	return s, nil
}

// buildRouter creates the HTTP router.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoveryMiddleware)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", s.handleHealth)

	return r
}

// handleHealth answers 200 while the broker connection is open.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := s.health.HealthCheck(ctx); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// recoveryMiddleware catches panics in handlers and returns a 500 response.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered in HTTP handler",
					"error", err,
					"path", r.URL.Path,
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve handles requests until ctx is done, then shuts the server down.
func (s *Server) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("metrics server starting", "addr", s.Addr().String())
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("metrics server error", "error", err)
	}
}
