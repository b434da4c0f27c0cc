package db

import (
	"context"
	"fmt"

	"github.com/bobarin/voicebridge/internal/models"
)

func (db *DB) RecordCall(ctx context.Context, call *models.ToolCall) error {
	query := `
		INSERT INTO tool_calls (id, tool, outcome, error, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := db.ExecContext(ctx, query,
		call.ID, call.Tool, call.Outcome, call.Error, call.DurationMs, call.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record tool call: %w", err)
	}
	return nil
}

// RecentCalls returns up to limit call log entries, newest first.
func (db *DB) RecentCalls(ctx context.Context, limit int) ([]models.ToolCall, error) {
	query := `
		SELECT id, tool, outcome, error, duration_ms, created_at
		FROM tool_calls
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tool calls: %w", err)
	}
	defer rows.Close()

	calls := []models.ToolCall{}
	for rows.Next() {
		var call models.ToolCall
		if err := rows.Scan(
			&call.ID, &call.Tool, &call.Outcome, &call.Error, &call.DurationMs, &call.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tool call: %w", err)
		}
		calls = append(calls, call)
	}

	return calls, rows.Err()
}

// Len reports how many entries the call log holds.
func (db *DB) Len(ctx context.Context) (int64, error) {
	var n int64
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM tool_calls`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tool calls: %w", err)
	}
	return n, nil
}
