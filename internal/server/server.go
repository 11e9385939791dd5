package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/teemow/gcalauth/internal/auth"
	"github.com/teemow/gcalauth/internal/calendar"
	"github.com/teemow/gcalauth/internal/config"
	"github.com/teemow/gcalauth/internal/instrumentation"
)

const (
	// DefaultAddr is the default address of the API listener.
	DefaultAddr = ":8080"

	defaultReadHeaderTimeout = 10 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
)

// Config holds the dependencies of a Server.
type Config struct {
	Settings config.Settings
	Logger   *slog.Logger

	// Provider supplies metrics and audit logging. Optional.
	Provider *instrumentation.Provider

	// AuthOptions and CalendarOptions are appended to the options of every
	// controller the server builds.
	AuthOptions     []auth.Option
	CalendarOptions []calendar.Option
}

// Server serves the auth and calendar controllers over HTTP.
type Server struct {
	settings     config.Settings
	logger       *slog.Logger
	metrics      *instrumentation.Metrics
	audit        *instrumentation.AuditLogger
	authOpts     []auth.Option
	calendarOpts []calendar.Option

	health     *HealthChecker
	httpServer *http.Server
	shutdown   atomic.Bool
}

// New creates a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Settings == nil {
		return nil, errors.New("settings are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		settings:     cfg.Settings,
		logger:       cfg.Logger,
		authOpts:     cfg.AuthOptions,
		calendarOpts: cfg.CalendarOptions,
	}
	if cfg.Provider != nil {
		s.metrics = cfg.Provider.Metrics()
		s.audit = cfg.Provider.AuditLogger(cfg.Logger)
	}
	s.health = NewHealthChecker(s, cfg.Settings)
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
	return s, nil
}

// IsShutdown reports whether Shutdown has been called.
func (s *Server) IsShutdown() bool {
	return s.shutdown.Load()
}

// Health returns the server's health checker.
func (s *Server) Health() *HealthChecker {
	return s.health
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "GET /auth/url", s.handleAuthURL)
	s.handle(mux, "GET /auth/callback", s.handleAuthCallback)
	s.handle(mux, "POST /auth/callback", s.handleAuthCallback)
	s.handle(mux, "POST /auth/refresh", s.handleAuthRefresh)

	s.handle(mux, "GET /calendars", s.handleCalendarList)
	s.handle(mux, "GET /calendars/{calendarID}", s.handleCalendar)
	s.handle(mux, "GET /calendars/{calendarID}/events", s.handleEvents)
	s.handle(mux, "GET /calendars/{calendarID}/events/{eventID}", s.handleEvent)

	s.health.RegisterHealthEndpoints(mux)
	return mux
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, h))
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("starting API server", slog.String("addr", l.Addr().String()))
	return s.httpServer.Serve(l)
}

// Start listens on addr and serves until Shutdown is called.
func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Shutdown marks the server as not ready and gracefully stops it.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Store(true)
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) authController() *auth.Controller {
	opts := []auth.Option{auth.WithLogger(s.logger), auth.WithMetrics(s.metrics)}
	return auth.NewController(s.settings, append(opts, s.authOpts...)...)
}

func (s *Server) calendarController() *calendar.Controller {
	opts := []calendar.Option{
		calendar.WithLogger(s.logger),
		calendar.WithMetrics(s.metrics),
		calendar.WithAuditLogger(s.audit),
	}
	return calendar.NewController(s.settings, append(opts, s.calendarOpts...)...)
}
