package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobarin/voicebridge/internal/models"
	"github.com/bobarin/voicebridge/internal/queue"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("RESEMBLE_API_KEY", "env-key")
	t.Setenv("API_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Resemble.APIKey)
	assert.Equal(t, "9090", cfg.APIPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 90*time.Second, cfg.Resemble.Timeout)
}

func TestLoadConfigMissingKey(t *testing.T) {
	t.Setenv("RESEMBLE_API_KEY", "")

	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESEMBLE_API_KEY is required")
}

func TestStdioCommand(t *testing.T) {
	t.Setenv("RESEMBLE_API_KEY", "test-key")
	t.Setenv("REDIS_URL", "")
	t.Setenv("DATABASE_URL", "")

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}, "\n") + "\n"

	out, err := execute(t, in, "stdio")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"protocolVersion":"2024-11-05"`)
	for _, name := range []string{"list_available_voices", "list_projects", "create_project", "generate_voice"} {
		assert.Contains(t, lines[1], `"`+name+`"`)
	}
}

func TestCallsCommand(t *testing.T) {
	mr := miniredis.RunT(t)
	redisURL := fmt.Sprintf("redis://%s/0", mr.Addr())

	t.Setenv("RESEMBLE_API_KEY", "test-key")
	t.Setenv("REDIS_URL", redisURL)
	t.Setenv("DATABASE_URL", "")

	q, err := queue.New(redisURL, 100)
	require.NoError(t, err)
	defer q.Close()

	older := &models.ToolCall{ID: uuid.New(), Tool: "list_projects", Outcome: models.CallOutcomeSuccess, CreatedAt: time.Now().UTC()}
	newer := &models.ToolCall{ID: uuid.New(), Tool: "generate_voice", Outcome: models.CallOutcomeSuccess, CreatedAt: time.Now().UTC()}
	require.NoError(t, q.RecordCall(context.Background(), older))
	require.NoError(t, q.RecordCall(context.Background(), newer))

	out, err := execute(t, "", "calls", "--limit", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)

	var got models.ToolCall
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, newer.ID, got.ID)
	assert.Equal(t, "generate_voice", got.Tool)
}

func TestCallsCommandFailedAndCount(t *testing.T) {
	mr := miniredis.RunT(t)
	redisURL := fmt.Sprintf("redis://%s/0", mr.Addr())

	t.Setenv("RESEMBLE_API_KEY", "test-key")
	t.Setenv("REDIS_URL", redisURL)
	t.Setenv("DATABASE_URL", "")
	t.Cleanup(func() {
		callsCmd.Flags().Set("failed", "false")
		callsCmd.Flags().Set("count", "false")
		callsCmd.Flags().Set("limit", "20")
	})

	q, err := queue.New(redisURL, 100)
	require.NoError(t, err)
	defer q.Close()

	msg := "API request failed: boom"
	ok := &models.ToolCall{ID: uuid.New(), Tool: "list_projects", Outcome: models.CallOutcomeSuccess, CreatedAt: time.Now().UTC()}
	failed := &models.ToolCall{ID: uuid.New(), Tool: "generate_voice", Outcome: models.CallOutcomeRemoteError, Error: &msg, CreatedAt: time.Now().UTC()}
	require.NoError(t, q.RecordCall(context.Background(), ok))
	require.NoError(t, q.RecordCall(context.Background(), failed))

	out, err := execute(t, "", "calls", "--limit", "20", "--failed")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	var got models.ToolCall
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, failed.ID, got.ID)
	assert.False(t, got.Succeeded())

	out, err = execute(t, "", "calls", "--failed=false", "--count")
	require.NoError(t, err)
	assert.Equal(t, "2", strings.TrimSpace(out))
}

func TestCallsCommandWithoutSink(t *testing.T) {
	t.Setenv("RESEMBLE_API_KEY", "test-key")
	t.Setenv("REDIS_URL", "")
	t.Setenv("DATABASE_URL", "")

	_, err := execute(t, "", "calls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no call log configured")
}
