package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/sliderbind/pkg/binding"
	"github.com/vango-dev/sliderbind/pkg/binding/slider"
	"github.com/vango-dev/sliderbind/pkg/ratelimit"
	"github.com/vango-dev/sliderbind/pkg/render"
	"github.com/vango-dev/sliderbind/pkg/snapshot"
)

// Server serves pages and their WebSocket sessions.
type Server struct {
	config   *Config
	logger   *slog.Logger
	registry *binding.Registry
	pages    map[string]Page
	handlers []InputHandler

	sessions  *SessionManager
	metrics   *metrics
	tracer    trace.Tracer
	renderer  *render.Renderer
	snapshots snapshot.Store
	clock     ratelimit.Clock

	metricsOpts []MetricsOption
	upgrader    websocket.Upgrader
	router      chi.Router

	mu         sync.Mutex
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPage registers a page. A later page with the same name replaces an
// earlier one.
func WithPage(p Page) Option {
	return func(s *Server) {
		s.pages[p.Name] = p
	}
}

// WithBindings sets the input binding registry. Default: a registry with
// the slider binding.
func WithBindings(reg *binding.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithMetrics configures the Prometheus metrics.
func WithMetrics(opts ...MetricsOption) Option {
	return func(s *Server) {
		s.metricsOpts = append(s.metricsOpts, opts...)
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Default: the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracer = tp.Tracer(defaultTracerName)
	}
}

// WithSnapshotStore enables snapshots. Sessions are saved to store when
// they close; identical consecutive snapshots are written once.
func WithSnapshotStore(store snapshot.Store) Option {
	return func(s *Server) {
		if store != nil {
			s.snapshots = snapshot.Dedup(store)
		}
	}
}

// WithClock sets the clock input rate limiters run on.
func WithClock(c ratelimit.Clock) Option {
	return func(s *Server) {
		s.clock = c
	}
}

// OnInput registers a handler for relayed input values.
func OnInput(h InputHandler) Option {
	return func(s *Server) {
		s.handlers = append(s.handlers, h)
	}
}

// New creates a Server. Unset config fields take their defaults.
func New(config *Config, opts ...Option) (*Server, error) {
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config:   config,
		logger:   slog.Default(),
		pages:    make(map[string]Page),
		renderer: render.NewRenderer(render.RendererConfig{}),
		clock:    ratelimit.RealClock,
		tracer:   defaultTracer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")

	if s.registry == nil {
		s.registry = binding.NewRegistry()
		if err := slider.Register(s.registry, s.logger); err != nil {
			return nil, fmt.Errorf("server: register slider binding: %w", err)
		}
	}
	s.metrics = newMetrics(s.metricsOpts...)
	s.sessions = newSessionManager(config, s.logger, s.sessionClosed)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     config.CheckOrigin,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Config returns the effective configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Pages returns the registered page names, sorted.
func (s *Server) Pages() []string {
	names := make([]string, 0, len(s.pages))
	for name := range s.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) page(name string) (Page, bool) {
	p, ok := s.pages[name]
	return p, ok
}

// SendInputMessage pushes msg to an input of a live session.
func (s *Server) SendInputMessage(sessionID, inputID string, msg binding.Message) error {
	sess := s.sessions.Get(sessionID)
	if sess == nil {
		return NewSessionError(sessionID, "send input message", ErrSessionNotFound)
	}
	return sess.SendInputMessage(inputID, msg)
}

// SaveSnapshot writes a snapshot of a live session and returns its key.
func (s *Server) SaveSnapshot(ctx context.Context, sessionID string) (string, error) {
	if s.snapshots == nil {
		return "", ErrNoSnapshotStore
	}
	sess := s.sessions.Get(sessionID)
	if sess == nil {
		return "", NewSessionError(sessionID, "save snapshot", ErrSessionNotFound)
	}
	return s.snapshots.Save(ctx, sess.Snapshot())
}

func (s *Server) sessionClosed(sess *Session) {
	s.metrics.activeSessions.Dec()
	if s.snapshots == nil || sess.Page() == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	key, err := s.snapshots.Save(ctx, sess.Snapshot())
	if err != nil {
		s.logger.Error("save snapshot", "session_id", sess.ID, "error", err)
		return
	}
	s.logger.Info("snapshot saved", "session_id", sess.ID, "key", key)
}

// Run serves on the configured address until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = hs
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String(), "pages", s.Pages())
		errCh <- hs.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.sessions.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	s.mu.Lock()
	hs := s.httpServer
	s.mu.Unlock()
	if hs != nil {
		if err := hs.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			errs = append(errs, err)
		}
	}

	s.logger.Info("server shutdown complete")
	return errors.Join(errs...)
}
