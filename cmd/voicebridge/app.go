package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bobarin/voicebridge/internal/config"
	"github.com/bobarin/voicebridge/internal/db"
	"github.com/bobarin/voicebridge/internal/metrics"
	"github.com/bobarin/voicebridge/internal/queue"
	"github.com/bobarin/voicebridge/internal/services"
	"github.com/bobarin/voicebridge/internal/tools"
)

var (
	_ tools.CallRecorder = (*db.DB)(nil)
	_ tools.CallRecorder = (*queue.Queue)(nil)
)

// app is everything a surface needs: the tool registry plus the sinks it
// writes to, which must be closed on exit.
type app struct {
	registry *tools.Registry
	metrics  *metrics.Metrics
	closers  []func() error
}

func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{metrics: metrics.New()}

	recorder, err := a.openRecorders(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	client := services.NewResembleClient(&cfg.Resemble, logger)
	handler := tools.NewHandler(client, logger)
	a.registry = tools.NewRegistry(handler, a.metrics, recorder, logger)

	return a, nil
}

// openRecorders connects the optional call log sinks. Both unset means no
// call log at all.
func (a *app) openRecorders(cfg *config.Config, logger zerolog.Logger) (tools.CallRecorder, error) {
	var recorders tools.MultiRecorder

	if cfg.DatabaseURL != "" {
		database, err := db.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, database.Close)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := database.EnsureSchema(ctx); err != nil {
			return nil, err
		}

		recorders = append(recorders, database)
		logger.Info().Msg("Call log: Postgres enabled")
	}

	if cfg.RedisURL != "" {
		q, err := queue.New(cfg.RedisURL, cfg.CallLogMaxLen)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, q.Close)

		recorders = append(recorders, q)
		logger.Info().Int64("max_len", cfg.CallLogMaxLen).Msg("Call log: Redis enabled")
	}

	switch len(recorders) {
	case 0:
		return nil, nil
	case 1:
		return recorders[0], nil
	default:
		return recorders, nil
	}
}

func (a *app) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close: %w", err)
		}
	}
	return firstErr
}
