// Package debugserver exposes a route table over HTTP for inspection:
// resolving and computing paths, driving a server-side navigator, serving
// Prometheus metrics, and attaching real browsers over a WebSocket.
package debugserver

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/navroute/internal/config"
	"github.com/vango-dev/navroute/internal/errors"
	"github.com/vango-dev/navroute/pkg/host"
	"github.com/vango-dev/navroute/pkg/middleware"
	"github.com/vango-dev/navroute/pkg/navigator"
	"github.com/vango-dev/navroute/pkg/router"
	"github.com/vango-dev/navroute/pkg/routepath"
)

// Server serves the debug endpoints for one route configuration.
type Server struct {
	cfg      *config.Config
	table    *router.Table
	mem      *host.Memory
	nav      *navigator.Navigator
	observer navigator.Observer
	logger   *slog.Logger
	router   chi.Router

	navigateTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithObserver replaces the default observers (Prometheus and
// OpenTelemetry).
func WithObserver(o navigator.Observer) Option {
	return func(s *Server) {
		s.observer = o
	}
}

// WithNavigateTimeout bounds how long POST /navigate waits.
func WithNavigateTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.navigateTimeout = d
	}
}

// New validates cfg and builds the server. Its own navigator runs against
// an in-memory host starting at "/".
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:             cfg,
		logger:          slog.Default(),
		navigateTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.observer == nil {
		s.observer = middleware.Chain(
			middleware.Prometheus(middleware.WithNamespace(cfg.Server.MetricsNamespace)),
			middleware.OpenTelemetry(),
		)
	}

	table, err := cfg.Table(nil, router.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.table = table

	s.mem = host.NewMemory(initialURL(cfg.ModeValue()))
	s.nav, err = navigator.New(table, s.mem,
		navigator.WithMode(cfg.ModeValue()),
		navigator.WithLogger(s.logger.With("navigator", "debug")),
		navigator.WithObserver(s.observer),
	)
	if err != nil {
		return nil, err
	}

	s.router = s.routes()
	return s, nil
}

func initialURL(mode host.Mode) string {
	if mode == host.ModeFragment {
		return "/#/"
	}
	return "/"
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/resolve", s.handleResolve)
	r.Get("/compute", s.handleCompute)
	r.Get("/routes", s.handleRoutes)
	r.Get("/state", s.handleState)
	r.Post("/navigate", s.handleNavigate)
	r.Post("/back", s.handleBack)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/ws", s.handleWebSocket)
	r.Get("/", s.handleIndex)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Navigator returns the server's own navigator.
func (s *Server) Navigator() *navigator.Navigator {
	return s.nav
}

// ListenAndServe serves on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("debug server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.Close()
		return err
	}
}

// Close stops the server's navigator.
func (s *Server) Close() {
	s.nav.Close()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}

// StateResponse is the JSON form of a navigator state.
type StateResponse struct {
	Path     string            `json:"path"`
	Pattern  string            `json:"pattern"`
	Name     string            `json:"name,omitempty"`
	Params   map[string]string `json:"params"`
	Fallback bool              `json:"fallback,omitempty"`
}

// ErrorResponse is the JSON form of a failed request.
type ErrorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func stateResponse(st navigator.State) StateResponse {
	resp := StateResponse{Path: st.Path, Pattern: st.Pattern(), Params: st.Params}
	if st.Route != nil {
		resp.Name = st.Route.Name
	}
	if resp.Params == nil {
		resp.Params = map[string]string{}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	ne := errors.FromError(err, "N003")
	status := http.StatusInternalServerError
	switch {
	case stderrors.Is(err, routepath.ErrInvalidPath), stderrors.Is(err, routepath.ErrMalformedEscape):
		status = http.StatusBadRequest
	case stderrors.Is(err, router.ErrRouteNotFound):
		status = http.StatusNotFound
	case stderrors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case stderrors.Is(err, navigator.ErrClosed), stderrors.Is(err, navigator.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	}

	msg := err.Error()
	if ne.Wrapped != nil {
		msg = ne.Wrapped.Error()
	}
	writeJSON(w, status, ErrorResponse{Code: ne.Code, Message: msg, Detail: ne.Detail})
}
