package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/gcalauth/internal/config"
	"github.com/teemow/gcalauth/internal/instrumentation"
	"github.com/teemow/gcalauth/internal/server"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		httpAddr       string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server exposing the OAuth flow and read access to Google
Calendar for web applications.

Endpoints:
  GET  /auth/url                 authorization URL (offline access, random state)
  GET  /auth/callback            exchanges the code sent to GOOGLE_REDIRECT_URI
  POST /auth/refresh             exchanges a refresh token
  GET  /calendars[/{id}[/events[/{eventId}]]]
                                 calendar data, authorized with "Authorization: Bearer"

Prometheus metrics are served on a dedicated port (--metrics-addr).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}
			loadServeEnvVars(cmd, &httpAddr, &metricsConfig)
			return runServe(cmd.Context(), httpAddr, metricsConfig)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", server.DefaultAddr, "HTTP server address. Can also use HTTP_ADDR env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadServeEnvVars applies environment variables to flags that were not
// set explicitly.
func loadServeEnvVars(cmd *cobra.Command, httpAddr *string, metrics *MetricsConfig) {
	if !cmd.Flags().Changed("http-addr") {
		if addr := os.Getenv("HTTP_ADDR"); addr != "" {
			*httpAddr = addr
		}
	}
	if !cmd.Flags().Changed("metrics-enabled") {
		if v := os.Getenv("METRICS_ENABLED"); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				metrics.Enabled = enabled
			}
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metrics.Addr = addr
		}
	}
}

func runServe(ctx context.Context, httpAddr string, metricsConfig MetricsConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	redirectURI, err := settings.Setting(config.KeyRedirectURI)
	if err != nil {
		return err
	}
	if err := server.ValidateRedirectURI(redirectURI); err != nil {
		return err
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error("instrumentation shutdown failed", slog.Any("error", err))
		}
	}()

	errCh := make(chan error, 2)

	var metricsServer *server.MetricsServer
	if metricsConfig.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	apiServer, err := server.New(server.Config{
		Settings: settings,
		Logger:   logger,
		Provider: provider,
	})
	if err != nil {
		return err
	}
	go func() {
		if err := apiServer.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("API server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server stopped", slog.Any("error", runErr))
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancelShutdown()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
	if err := apiServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down API server: %w", err)
	}
	return runErr
}
