package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/bobarin/voicebridge/internal/models"
	"github.com/bobarin/voicebridge/internal/tools"
)

type Handler struct {
	registry *tools.Registry
	version  string
	logger   zerolog.Logger
}

func NewHandler(registry *tools.Registry, version string, logger zerolog.Logger) *Handler {
	return &Handler{
		registry: registry,
		version:  version,
		logger:   logger,
	}
}

// ListVoices handles GET /v1/voices
func (h *Handler) ListVoices(w http.ResponseWriter, r *http.Request) {
	p, parseErr := parsePagination(r)

	env := h.registry.Observe(r.Context(), tools.ToolListVoices, func(ctx context.Context) models.Envelope {
		if parseErr != nil {
			return models.Invalid[models.VoiceList](parseErr.Error())
		}
		return h.registry.Handler().ListAvailableVoices(ctx, models.VoiceListRequest{Pagination: p})
	})

	respondEnvelope(w, r, env)
}

// ListProjects handles GET /v1/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	p, parseErr := parsePagination(r)

	env := h.registry.Observe(r.Context(), tools.ToolListProjects, func(ctx context.Context) models.Envelope {
		if parseErr != nil {
			return models.Invalid[models.ProjectList](parseErr.Error())
		}
		return h.registry.Handler().ListProjects(ctx, models.ProjectListRequest{Pagination: p})
	})

	respondEnvelope(w, r, env)
}

// CreateProject handles POST /v1/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req models.ProjectCreateRequest
	parseErr := parseBody(w, r, &req)
	if h.rejectBody(w, r, parseErr) {
		return
	}

	env := h.registry.Observe(r.Context(), tools.ToolCreateProject, func(ctx context.Context) models.Envelope {
		if parseErr != nil {
			return models.Invalid[models.ProjectCreated](parseErr.Error())
		}
		return h.registry.Handler().CreateProject(ctx, req)
	})

	respondEnvelope(w, r, env)
}

// GenerateVoice handles POST /v1/voices/generate
func (h *Handler) GenerateVoice(w http.ResponseWriter, r *http.Request) {
	var req models.VoiceGenerateRequest
	parseErr := parseBody(w, r, &req)
	if h.rejectBody(w, r, parseErr) {
		return
	}

	env := h.registry.Observe(r.Context(), tools.ToolGenerateVoice, func(ctx context.Context) models.Envelope {
		if parseErr != nil {
			return models.Invalid[models.GeneratedAudio](parseErr.Error())
		}
		return h.registry.Handler().GenerateVoice(ctx, req)
	})

	respondEnvelope(w, r, env)
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// rejectBody answers requests whose body never decoded into tool arguments
// because of its media type or size. Malformed bodies are left to the tool
// envelope.
func (h *Handler) rejectBody(w http.ResponseWriter, r *http.Request, err error) bool {
	httpErr, ok := IsHTTPError(err)
	if !ok {
		return false
	}
	h.logger.Warn().Int("status", httpErr.Status).Str("path", r.URL.Path).Msg("rejected request body")
	respondError(w, httpErr.Status, httpErr.Message)
	return true
}
