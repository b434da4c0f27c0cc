package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/bobarin/voicebridge/internal/api"
	"github.com/bobarin/voicebridge/internal/config"
	"github.com/bobarin/voicebridge/internal/logging"
	"github.com/bobarin/voicebridge/internal/mcp"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the REST API, MCP over HTTP, health and metrics",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "8080", "HTTP listen port")
	serveCmd.Flags().String("api-key", "", "API key required on /v1 and /mcp (empty = no auth)")
	serveCmd.Flags().String("cors-origins", "", "Comma-separated allowed CORS origins (empty = *)")

	bindFlags(viper.GetViper(), serveCmd, []flagBinding{
		{config.KeyAPIPort, "port"},
		{config.KeyBackendAPIKey, "api-key"},
		{config.KeyCorsAllowedOrigins, "cors-origins"},
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info().
		Str("port", cfg.APIPort).
		Str("resemble", cfg.Resemble.APIURL).
		Str("version", Version).
		Msg("Starting voicebridge API...")

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := api.NewHandler(a.registry, Version, logger)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
		MCP:                mcp.NewServer(a.registry, Version, logger),
		Metrics:            a.metrics.Handler(),
	}, logger)

	if cfg.BackendAPIKey != "" {
		logger.Info().Msg("API key authentication enabled")
	} else {
		logger.Warn().Msg("No BACKEND_API_KEY set, API is unprotected (dev mode)")
	}

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Synthesis can take as long as the upstream timeout
		WriteTimeout: cfg.Resemble.Timeout + 10*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("API server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Msg("Server exited")
	return nil
}
