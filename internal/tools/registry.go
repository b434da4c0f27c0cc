package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bobarin/voicebridge/internal/metrics"
	"github.com/bobarin/voicebridge/internal/models"
)

// Tool names as exposed to callers.
const (
	ToolListVoices    = "list_available_voices"
	ToolListProjects  = "list_projects"
	ToolCreateProject = "create_project"
	ToolGenerateVoice = "generate_voice"
)

const recordTimeout = 2 * time.Second

var ErrUnknownTool = errors.New("unknown tool")

// Tool describes one callable operation. InputSchema is JSON Schema.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`

	invoke func(ctx context.Context, h *Handler, args json.RawMessage) models.Envelope
}

// Registry maps tool names to Handler operations and instruments every call.
type Registry struct {
	handler  *Handler
	tools    []Tool
	byName   map[string]int
	metrics  *metrics.Metrics // Optional
	recorder CallRecorder     // Optional
	logger   zerolog.Logger
}

func NewRegistry(h *Handler, m *metrics.Metrics, recorder CallRecorder, logger zerolog.Logger) *Registry {
	r := &Registry{
		handler:  h,
		tools:    definitions(),
		byName:   make(map[string]int),
		metrics:  m,
		recorder: recorder,
		logger:   logger,
	}
	for i, t := range r.tools {
		r.byName[t.Name] = i
	}
	return r
}

// Tools returns the tool definitions in a stable order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Handler exposes the typed operations for surfaces that parse their own input.
func (r *Registry) Handler() *Handler {
	return r.handler
}

// Call decodes args for the named tool and runs it. The only error is
// ErrUnknownTool; everything else comes back inside the envelope.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (models.Envelope, error) {
	i, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	tool := r.tools[i]

	return r.Observe(ctx, name, func(ctx context.Context) models.Envelope {
		return tool.invoke(ctx, r.handler, args)
	}), nil
}

// Observe runs fn, then records metrics and a call log entry for it.
func (r *Registry) Observe(ctx context.Context, name string, fn func(ctx context.Context) models.Envelope) models.Envelope {
	start := time.Now()
	env := fn(ctx)
	elapsed := time.Since(start)

	outcome := env.FailureKind().Outcome()

	if r.metrics != nil {
		r.metrics.ObserveCall(name, outcome, elapsed)
		if audio, ok := env.(models.Result[models.GeneratedAudio]); ok && audio.Success {
			r.metrics.AddAudioBytes(audio.Data.SizeBytes)
		}
	}

	var event *zerolog.Event
	if env.IsSuccess() {
		event = r.logger.Info()
	} else {
		event = r.logger.Warn().Str("error", env.ErrorMessage())
	}
	event.Str("tool", name).Str("outcome", string(outcome)).Dur("duration", elapsed).Msg("tool call")

	if r.recorder != nil {
		call := &models.ToolCall{
			ID:         uuid.New(),
			Tool:       name,
			Outcome:    outcome,
			DurationMs: elapsed.Milliseconds(),
			CreatedAt:  start.UTC(),
		}
		if msg := env.ErrorMessage(); msg != "" {
			call.Error = &msg
		}

		// A cancelled caller should still leave a trace in the call log.
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		if err := r.recorder.RecordCall(recCtx, call); err != nil {
			r.logger.Error().Err(err).Str("tool", name).Msg("failed to record tool call")
		}
		cancel()
	}

	return env
}

// bind adapts a typed Handler method to the raw-argument form used by Call.
func bind[Req any, Resp any](op func(*Handler, context.Context, Req) models.Result[Resp]) func(context.Context, *Handler, json.RawMessage) models.Envelope {
	return func(ctx context.Context, h *Handler, args json.RawMessage) models.Envelope {
		var req Req
		if err := decodeArgs(args, &req); err != nil {
			return models.Invalid[Resp](fmt.Sprintf("invalid arguments: %v", err))
		}
		return op(h, ctx, req)
	}
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.Unmarshal(trimmed, v)
}

func definitions() []Tool {
	pagination := func(what string) map[string]interface{} {
		return map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"page": map[string]interface{}{
					"type":        "integer",
					"minimum":     1,
					"default":     models.DefaultPage,
					"description": "Page number for pagination",
				},
				"page_size": map[string]interface{}{
					"type":        "integer",
					"minimum":     1,
					"default":     models.DefaultPageSize,
					"description": "Number of " + what + " per page",
				},
			},
		}
	}

	precisions := make([]string, len(models.Precisions))
	for i, p := range models.Precisions {
		precisions[i] = string(p)
	}

	return []Tool{
		{
			Name:        ToolListVoices,
			Description: "List voices available to the Resemble AI account.",
			InputSchema: pagination("voices"),
			invoke:      bind((*Handler).ListAvailableVoices),
		},
		{
			Name:        ToolListProjects,
			Description: "List Resemble AI projects.",
			InputSchema: pagination("projects"),
			invoke:      bind((*Handler).ListProjects),
		},
		{
			Name:        ToolCreateProject,
			Description: "Create a new Resemble AI project.",
			InputSchema: map[string]interface{}{
				"type":     "object",
				"required": []string{"name"},
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"minLength":   1,
						"description": "Name of the project to create",
					},
					"description": map[string]interface{}{
						"type":        "string",
						"default":     models.DefaultProjectDescription,
						"description": "Project description",
					},
				},
			},
			invoke: bind((*Handler).CreateProject),
		},
		{
			Name:        ToolGenerateVoice,
			Description: "Generate a voice clip with Resemble AI. Returns base64-encoded WAV audio.",
			InputSchema: map[string]interface{}{
				"type":     "object",
				"required": []string{"text", "voice_uuid", "project_uuid"},
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"minLength":   1,
						"description": "The text to convert to speech",
					},
					"voice_uuid": map[string]interface{}{
						"type":        "string",
						"minLength":   1,
						"description": "UUID of the voice to use",
					},
					"project_uuid": map[string]interface{}{
						"type":        "string",
						"minLength":   1,
						"description": "UUID of the project",
					},
					"sample_rate": map[string]interface{}{
						"type":        "integer",
						"minimum":     1,
						"default":     models.DefaultSampleRate,
						"description": "Audio sample rate in Hz",
					},
					"precision": map[string]interface{}{
						"type":        "string",
						"enum":        precisions,
						"default":     string(models.DefaultPrecision),
						"description": "Audio sample encoding",
					},
					"api_token": map[string]interface{}{
						"type":        "string",
						"description": "Optional API token; defaults to the server's configured key",
					},
				},
			},
			invoke: bind((*Handler).GenerateVoice),
		},
	}
}
