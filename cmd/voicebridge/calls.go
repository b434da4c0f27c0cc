package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobarin/voicebridge/internal/db"
	"github.com/bobarin/voicebridge/internal/logging"
	"github.com/bobarin/voicebridge/internal/models"
	"github.com/bobarin/voicebridge/internal/queue"
)

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Print the most recent tool calls from the call log",
	Long: `Print recent tool calls, newest first, one JSON object per line.

Reads from Redis when REDIS_URL is set, otherwise from Postgres.
--failed keeps only the unsuccessful calls among the most recent --limit.
--count prints the number of entries the call log holds instead.`,
	RunE: runCalls,
}

func init() {
	callsCmd.Flags().Int("limit", 20, "Number of calls to print")
	callsCmd.Flags().Bool("failed", false, "Print only calls that did not succeed")
	callsCmd.Flags().Bool("count", false, "Print the number of logged calls and exit")
}

type callLogReader interface {
	RecentCalls(ctx context.Context, limit int) ([]models.ToolCall, error)
	Len(ctx context.Context) (int64, error)
}

func runCalls(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	failedOnly, err := cmd.Flags().GetBool("failed")
	if err != nil {
		return err
	}
	countOnly, err := cmd.Flags().GetBool("count")
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	var reader callLogReader
	switch {
	case cfg.RedisURL != "":
		q, err := queue.New(cfg.RedisURL, cfg.CallLogMaxLen)
		if err != nil {
			return err
		}
		defer q.Close()
		reader = q
	case cfg.DatabaseURL != "":
		database, err := db.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
		reader = database
	default:
		return fmt.Errorf("no call log configured: set REDIS_URL or DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	if countOnly {
		n, err := reader.Len(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	}

	calls, err := reader.RecentCalls(ctx, limit)
	if err != nil {
		return err
	}
	logger.Debug().Int("count", len(calls)).Bool("failed_only", failedOnly).Msg("read call log")

	return printCalls(cmd, calls, failedOnly)
}

func printCalls(cmd *cobra.Command, calls []models.ToolCall, failedOnly bool) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	for i := range calls {
		if failedOnly && calls[i].Succeeded() {
			continue
		}
		if err := enc.Encode(&calls[i]); err != nil {
			return err
		}
	}
	return nil
}
