// Package server exposes the map layers over HTTP and drives per-view UI state
// over a WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brusilov1916/brusilov-map/internal/cache"
	"github.com/brusilov1916/brusilov-map/internal/config"
	"github.com/brusilov1916/brusilov-map/internal/dispatcher"
	"github.com/brusilov1916/brusilov-map/internal/layers"
	"github.com/brusilov1916/brusilov-map/internal/session"
	ws "github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 5 * time.Second

// UsageRecorder receives anonymous usage events. influx.Manager implements it.
type UsageRecorder interface {
	PhaseSelected(phase string)
	LayersServed(phase string, crs int, bytes int, cached bool)
	SessionEvent(event string, active int)
}

type nopUsage struct{}

func (nopUsage) PhaseSelected(string)                {}
func (nopUsage) LayersServed(string, int, int, bool) {}
func (nopUsage) SessionEvent(string, int)            {}

// Config is what the server publishes to clients.
type Config struct {
	Listen   string
	Tiles    config.TilesConfig
	Map      config.MapConfig
	Contacts config.ContactsConfig
}

// Dependencies holds everything the server needs. Only Composer and Sessions
// are required.
type Dependencies struct {
	Composer *layers.Composer
	Sessions *session.Manager
	Cache    *cache.LayerCache
	Usage    UsageRecorder
	Meter    metric.Meter
	Logger   *slog.Logger
	Config   Config
}

// Server serves the REST API and the /ws endpoint.
type Server struct {
	cfg      Config
	composer *layers.Composer
	sessions *session.Manager
	cache    *cache.LayerCache
	usage    UsageRecorder
	logger   *slog.Logger
	metrics  *metrics
	messages *dispatcher.Dispatcher
	upgrader ws.Upgrader
	mux      *http.ServeMux
}

// New wires the routes and WebSocket message handlers.
func New(deps Dependencies) (*Server, error) {
	if deps.Composer == nil || deps.Sessions == nil {
		return nil, errors.New("server needs a composer and a session manager")
	}
	s := &Server{
		cfg:      deps.Config,
		composer: deps.Composer,
		sessions: deps.Sessions,
		cache:    deps.Cache,
		usage:    deps.Usage,
		logger:   deps.Logger,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// map clients may be served from a separate static host
			CheckOrigin: func(*http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	if s.cache == nil {
		s.cache = cache.NewLayerCache(256)
	}
	if s.usage == nil {
		s.usage = nopUsage{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	m := deps.Meter
	if m == nil {
		m = noop.Meter{}
	}

	var err error
	if s.metrics, err = newMetrics(m); err != nil {
		return nil, err
	}
	if s.messages, err = dispatcher.New(s.logger, m); err != nil {
		return nil, fmt.Errorf("creating message dispatcher: %w", err)
	}
	s.registerMessages()
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.handle("GET /healthcheck", s.handleHealthcheck)
	s.handle("GET /api/config", s.handleConfig)
	s.handle("GET /api/phases", s.handlePhases)
	s.handle("GET /api/layers", s.handleLayers)
	s.handle("GET /api/movements", s.handleMovements)
	s.handle("GET /api/frontlines", s.handleFrontLines)
	s.handle("GET /api/cities", s.handleCities)
	s.handle("GET /api/cities/{id}", s.handleCity)
	s.handle("GET /api/rivers", s.handleRivers)
	s.handle("GET /api/gallery", s.handleGallery)
	s.handle("POST /api/sessions", s.handleCreateSession)
	s.handle("GET /api/sessions/{id}", s.handleGetSession)
	s.handle("DELETE /api/sessions/{id}", s.handleEndSession)
	s.handle("PUT /api/sessions/{id}/tour", s.handleSetTour)
	s.handle("GET /ws", s.handleWS)
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.metrics.instrument(pattern, h))
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down gracefully
// and ends every session.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Map server listening", "addr", s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	s.logger.Info("Map server stopped")
	return err
}

// Close ends all sessions and drains the message queues.
func (s *Server) Close() {
	if err := s.sessions.Close(); err != nil {
		s.logger.Error("Failed to save sessions", "error", err)
	}
	s.messages.Close()
}
