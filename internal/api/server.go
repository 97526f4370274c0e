package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/netwatch-io/netwatch/internal/bus"
	"github.com/netwatch-io/netwatch/internal/config"
	"github.com/netwatch-io/netwatch/internal/engine"
)

// DefaultAddress is the HTTP bind address when none is configured.
const DefaultAddress = "0.0.0.0:3000"

// ServerOptions configures the HTTP server. Zero values select defaults.
// WriteTimeout is intentionally absent: SSE responses are long-lived.
type ServerOptions struct {
	Addr              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	KeepAliveInterval time.Duration
	Logger            *zap.Logger
}

// Server hosts the HTTP API.
type Server struct {
	http     *http.Server
	engine   *engine.Engine
	cfgBus   *bus.Config
	stream   *bus.Stream
	store    *config.Store
	shutdown <-chan struct{}
	logger   *zap.Logger
	opts     ServerOptions
}

// NewServer wires the API onto the engine, the snapshot bus, and the config
// store. The shutdown channel terminates open SSE streams when closed; the
// server itself does not start listening until Start is called.
func NewServer(eng *engine.Engine, cfgBus *bus.Config, stream *bus.Stream, store *config.Store, shutdown <-chan struct{}, opts ServerOptions) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddress
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 2 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.KeepAliveInterval == 0 {
		opts.KeepAliveInterval = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Server{
		engine:   eng,
		cfgBus:   cfgBus,
		stream:   stream,
		store:    store,
		shutdown: shutdown,
		logger:   opts.Logger,
		opts:     opts,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/api/config", s.handleGetConfig)
	r.Post("/api/config", s.handleUpdateConfig)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/events", s.handleEvents)
	r.Handle("/metrics", promhttp.Handler())

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		IdleTimeout:       opts.IdleTimeout,
	}
	return s
}

// Start begins serving HTTP in a background goroutine. Use Stop for graceful
// shutdown.
func (s *Server) Start() {
	go func() {
		s.logger.Info("web server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", zap.Error(err))
		}
	}()
}

// ListenAndServe serves until the listener fails or Stop is called. It is
// the blocking alternative to Start for run-group wiring.
func (s *Server) ListenAndServe() error {
	s.logger.Info("web server listening", zap.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down, waiting up to ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	if t := s.opts.ShutdownTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	return s.http.Shutdown(ctx)
}

// logRequests records method, path, status, and duration per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
