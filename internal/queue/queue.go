package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/bobarin/voicebridge/internal/models"
)

// CallLogKey is the Redis list holding recent tool calls, oldest first.
const CallLogKey = "voicebridge:calls"

// Queue keeps a bounded, rolling log of tool calls in a Redis list.
type Queue struct {
	client *redis.Client
	maxLen int64
}

func New(redisURL string, maxLen int64) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newQueue(client, maxLen), nil
}

func newQueue(client *redis.Client, maxLen int64) *Queue {
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &Queue{client: client, maxLen: maxLen}
}

func (q *Queue) Close() error {
	return q.client.Close()
}

// RecordCall appends call and trims the list to the newest maxLen entries.
func (q *Queue) RecordCall(ctx context.Context, call *models.ToolCall) error {
	data, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("failed to marshal tool call: %w", err)
	}

	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, CallLogKey, data)
		pipe.LTrim(ctx, CallLogKey, -q.maxLen, -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record tool call: %w", err)
	}
	return nil
}

// RecentCalls returns up to limit entries, newest first.
func (q *Queue) RecentCalls(ctx context.Context, limit int) ([]models.ToolCall, error) {
	if limit <= 0 {
		return []models.ToolCall{}, nil
	}

	raw, err := q.client.LRange(ctx, CallLogKey, -int64(limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read call log: %w", err)
	}

	calls := make([]models.ToolCall, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var call models.ToolCall
		if err := json.Unmarshal([]byte(raw[i]), &call); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tool call: %w", err)
		}
		calls = append(calls, call)
	}
	return calls, nil
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, CallLogKey).Result()
}
