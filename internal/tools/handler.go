package tools

import (
	"context"
	"encoding/base64"

	"github.com/rs/zerolog"

	"github.com/bobarin/voicebridge/internal/models"
	"github.com/bobarin/voicebridge/internal/services"
)

// Handler runs the four voice operations: validate locally, make one remote
// call, normalize the outcome into a Result. No error escapes a Handler method.
type Handler struct {
	api    services.VoiceAPI
	logger zerolog.Logger
}

func NewHandler(api services.VoiceAPI, logger zerolog.Logger) *Handler {
	return &Handler{
		api:    api,
		logger: logger,
	}
}

// ListAvailableVoices handles list_available_voices
func (h *Handler) ListAvailableVoices(ctx context.Context, req models.VoiceListRequest) models.Result[models.VoiceList] {
	if err := req.Validate(); err != nil {
		return models.Invalid[models.VoiceList](err.Error())
	}
	p := req.WithDefaults()

	page, err := h.api.ListVoices(ctx, p.Page, p.PageSize)
	if err != nil {
		h.remoteFailure(err).Int("page", p.Page).Msg("list voices failed")
		return models.RemoteFailure[models.VoiceList](err)
	}

	return models.Success(models.VoiceList{
		Voices:   page.Items,
		Page:     page.Page,
		NumPages: page.NumPages,
		PageSize: page.PageSize,
	})
}

// ListProjects handles list_projects
func (h *Handler) ListProjects(ctx context.Context, req models.ProjectListRequest) models.Result[models.ProjectList] {
	if err := req.Validate(); err != nil {
		return models.Invalid[models.ProjectList](err.Error())
	}
	p := req.WithDefaults()

	page, err := h.api.ListProjects(ctx, p.Page, p.PageSize)
	if err != nil {
		h.remoteFailure(err).Int("page", p.Page).Msg("list projects failed")
		return models.RemoteFailure[models.ProjectList](err)
	}

	return models.Success(models.ProjectList{
		Projects: page.Items,
		Page:     page.Page,
		NumPages: page.NumPages,
		PageSize: page.PageSize,
	})
}

// CreateProject handles create_project
func (h *Handler) CreateProject(ctx context.Context, req models.ProjectCreateRequest) models.Result[models.ProjectCreated] {
	if err := req.Validate(); err != nil {
		return models.Invalid[models.ProjectCreated](err.Error())
	}
	req = req.WithDefaults()

	project, err := h.api.CreateProject(ctx, req.Name, req.Description)
	if err != nil {
		h.remoteFailure(err).Msg("create project failed")
		return models.RemoteFailure[models.ProjectCreated](err)
	}

	return models.Success(models.ProjectCreated{Project: *project})
}

// GenerateVoice handles generate_voice
func (h *Handler) GenerateVoice(ctx context.Context, req models.VoiceGenerateRequest) models.Result[models.GeneratedAudio] {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return models.Invalid[models.GeneratedAudio](err.Error())
	}

	audio, err := h.api.Synthesize(ctx, services.SynthesisRequest{
		Text:        req.Text,
		VoiceUUID:   req.VoiceUUID,
		ProjectUUID: req.ProjectUUID,
		SampleRate:  req.SampleRate,
		Precision:   req.Precision,
		APIToken:    req.APIToken,
	})
	if err != nil {
		h.remoteFailure(err).Str("voice_uuid", req.VoiceUUID).Msg("generate voice failed")
		return models.RemoteFailure[models.GeneratedAudio](err)
	}

	return models.Success(models.GeneratedAudio{
		AudioDataBase64: base64.StdEncoding.EncodeToString(audio),
		ContentType:     models.WAVContentType,
		SampleRate:      req.SampleRate,
		Precision:       req.Precision,
		SizeBytes:       len(audio),
	})
}

// remoteFailure starts a warning for a failed remote call, tagged with the
// remote status when there is one.
func (h *Handler) remoteFailure(err error) *zerolog.Event {
	event := h.logger.Warn().Err(err)
	if status := services.StatusCode(err); status != 0 {
		event = event.Int("remote_status", status)
	}
	return event
}
