package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/bobarin/voicebridge/internal/models"
	"github.com/bobarin/voicebridge/internal/services"
)

// fakeAPI records every call and answers from its function fields.
type fakeAPI struct {
	listVoicesFn    func(ctx context.Context, page, pageSize int) (*models.Page[models.Voice], error)
	listProjectsFn  func(ctx context.Context, page, pageSize int) (*models.Page[models.Project], error)
	createProjectFn func(ctx context.Context, name, description string) (*models.Project, error)
	synthesizeFn    func(ctx context.Context, req services.SynthesisRequest) ([]byte, error)

	calls     int
	lastPage  int
	lastSize  int
	lastName  string
	lastDesc  string
	lastSynth services.SynthesisRequest
}

var _ services.VoiceAPI = (*fakeAPI)(nil)

func (f *fakeAPI) ListVoices(ctx context.Context, page, pageSize int) (*models.Page[models.Voice], error) {
	f.calls++
	f.lastPage, f.lastSize = page, pageSize
	if f.listVoicesFn != nil {
		return f.listVoicesFn(ctx, page, pageSize)
	}
	return &models.Page[models.Voice]{Items: []models.Voice{}, Page: page, PageSize: pageSize}, nil
}

func (f *fakeAPI) ListProjects(ctx context.Context, page, pageSize int) (*models.Page[models.Project], error) {
	f.calls++
	f.lastPage, f.lastSize = page, pageSize
	if f.listProjectsFn != nil {
		return f.listProjectsFn(ctx, page, pageSize)
	}
	return &models.Page[models.Project]{Items: []models.Project{}, Page: page, PageSize: pageSize}, nil
}

func (f *fakeAPI) CreateProject(ctx context.Context, name, description string) (*models.Project, error) {
	f.calls++
	f.lastName, f.lastDesc = name, description
	if f.createProjectFn != nil {
		return f.createProjectFn(ctx, name, description)
	}
	return &models.Project{UUID: "generated", Name: name}, nil
}

func (f *fakeAPI) Synthesize(ctx context.Context, req services.SynthesisRequest) ([]byte, error) {
	f.calls++
	f.lastSynth = req
	if f.synthesizeFn != nil {
		return f.synthesizeFn(ctx, req)
	}
	return []byte("RIFF"), nil
}

func newTestHandler(api *fakeAPI) *Handler {
	return NewHandler(api, zerolog.Nop())
}

func TestListAvailableVoices_Defaults(t *testing.T) {
	api := &fakeAPI{}
	res := newTestHandler(api).ListAvailableVoices(context.Background(), models.VoiceListRequest{})

	require.True(t, res.Success)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, 1, api.lastPage)
	assert.Equal(t, 10, api.lastSize)
}

func TestListAvailableVoices_PassesThroughVoices(t *testing.T) {
	voices := []models.Voice{{UUID: "v1", Name: "Lucy"}, {UUID: "v2", Name: "Aaron", Status: "finished"}}
	api := &fakeAPI{
		listVoicesFn: func(ctx context.Context, page, pageSize int) (*models.Page[models.Voice], error) {
			return &models.Page[models.Voice]{Items: voices, Page: page, NumPages: 3, PageSize: pageSize}, nil
		},
	}

	req := models.VoiceListRequest{Pagination: models.Pagination{Page: 2, PageSize: 5}}
	res := newTestHandler(api).ListAvailableVoices(context.Background(), req)

	require.True(t, res.Success)
	assert.Equal(t, voices, res.Data.Voices)
	assert.Equal(t, 2, res.Data.Page)
	assert.Equal(t, 3, res.Data.NumPages)
	assert.Equal(t, 5, res.Data.PageSize)
}

func TestListProjects_Defaults(t *testing.T) {
	api := &fakeAPI{}
	res := newTestHandler(api).ListProjects(context.Background(), models.ProjectListRequest{})

	require.True(t, res.Success)
	assert.Equal(t, 1, api.lastPage)
	assert.Equal(t, 10, api.lastSize)
	assert.NotNil(t, res.Data.Projects)
}

func TestCreateProject_EmptyName(t *testing.T) {
	api := &fakeAPI{}
	res := newTestHandler(api).CreateProject(context.Background(), models.ProjectCreateRequest{Name: ""})

	assert.False(t, res.Success)
	assert.Equal(t, "name is required", res.Error)
	assert.Equal(t, models.FailureValidation, res.Cause)
	assert.Zero(t, api.calls)
}

func TestCreateProject_ReturnsDescriptor(t *testing.T) {
	api := &fakeAPI{
		createProjectFn: func(ctx context.Context, name, description string) (*models.Project, error) {
			return &models.Project{UUID: "abc", Name: "My Project"}, nil
		},
	}

	res := newTestHandler(api).CreateProject(context.Background(), models.ProjectCreateRequest{Name: "My Project"})

	require.True(t, res.Success)
	assert.Equal(t, models.Project{UUID: "abc", Name: "My Project"}, res.Data.Project)
	assert.Equal(t, "My Project", api.lastName)
	assert.Equal(t, "Created via API", api.lastDesc)
}

func TestGenerateVoice_EncodesAudio(t *testing.T) {
	audio := []byte("RIFF....")
	api := &fakeAPI{
		synthesizeFn: func(ctx context.Context, req services.SynthesisRequest) ([]byte, error) {
			return audio, nil
		},
	}

	res := newTestHandler(api).GenerateVoice(context.Background(), models.VoiceGenerateRequest{
		Text:        "Hello world",
		VoiceUUID:   "v1",
		ProjectUUID: "p1",
	})

	require.True(t, res.Success)
	assert.Equal(t, base64.StdEncoding.EncodeToString(audio), res.Data.AudioDataBase64)
	assert.Equal(t, 22050, res.Data.SampleRate)
	assert.Equal(t, models.PrecisionPCM16, res.Data.Precision)
	assert.Equal(t, "audio/wav", res.Data.ContentType)
	assert.Equal(t, len(audio), res.Data.SizeBytes)

	assert.Equal(t, services.SynthesisRequest{
		Text:        "Hello world",
		VoiceUUID:   "v1",
		ProjectUUID: "p1",
		SampleRate:  22050,
		Precision:   models.PrecisionPCM16,
	}, api.lastSynth)
}

func TestGenerateVoice_KeepsExplicitSettings(t *testing.T) {
	api := &fakeAPI{}
	res := newTestHandler(api).GenerateVoice(context.Background(), models.VoiceGenerateRequest{
		Text: "Hi", VoiceUUID: "v1", ProjectUUID: "p1",
		SampleRate: 44100, Precision: models.PrecisionPCM24, APIToken: "override",
	})

	require.True(t, res.Success)
	assert.Equal(t, 44100, res.Data.SampleRate)
	assert.Equal(t, models.PrecisionPCM24, res.Data.Precision)
	assert.Equal(t, "override", api.lastSynth.APIToken)
}

func TestValidationFailuresSkipRemote(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		call    func(h *Handler) models.Envelope
		wantErr string
	}{
		{"voices negative page", func(h *Handler) models.Envelope {
			return h.ListAvailableVoices(ctx, models.VoiceListRequest{Pagination: models.Pagination{Page: -1}})
		}, "page must be a positive integer"},
		{"projects negative page size", func(h *Handler) models.Envelope {
			return h.ListProjects(ctx, models.ProjectListRequest{Pagination: models.Pagination{PageSize: -3}})
		}, "page_size must be a positive integer"},
		{"blank project name", func(h *Handler) models.Envelope {
			return h.CreateProject(ctx, models.ProjectCreateRequest{Name: "   "})
		}, "name is required"},
		{"missing text", func(h *Handler) models.Envelope {
			return h.GenerateVoice(ctx, models.VoiceGenerateRequest{VoiceUUID: "v1", ProjectUUID: "p1"})
		}, "text is required"},
		{"missing voice uuid", func(h *Handler) models.Envelope {
			return h.GenerateVoice(ctx, models.VoiceGenerateRequest{Text: "Hi", ProjectUUID: "p1"})
		}, "voice_uuid is required"},
		{"missing project uuid", func(h *Handler) models.Envelope {
			return h.GenerateVoice(ctx, models.VoiceGenerateRequest{Text: "Hi", VoiceUUID: "v1"})
		}, "project_uuid is required"},
		{"negative sample rate", func(h *Handler) models.Envelope {
			return h.GenerateVoice(ctx, models.VoiceGenerateRequest{Text: "Hi", VoiceUUID: "v1", ProjectUUID: "p1", SampleRate: -1})
		}, "sample_rate must be a positive integer"},
		{"unsupported precision", func(h *Handler) models.Envelope {
			return h.GenerateVoice(ctx, models.VoiceGenerateRequest{Text: "Hi", VoiceUUID: "v1", ProjectUUID: "p1", Precision: "PCM_8"})
		}, "precision must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			env := tt.call(newTestHandler(api))

			assert.False(t, env.IsSuccess())
			assert.Equal(t, models.FailureValidation, env.FailureKind())
			assert.Contains(t, env.ErrorMessage(), tt.wantErr)
			assert.Zero(t, api.calls, "remote client must not be called")
		})
	}
}

func TestRemoteErrorsBecomeFailures(t *testing.T) {
	remoteErr := errors.New("quota exceeded for account")
	api := &fakeAPI{
		listVoicesFn: func(ctx context.Context, page, pageSize int) (*models.Page[models.Voice], error) {
			return nil, remoteErr
		},
		listProjectsFn: func(ctx context.Context, page, pageSize int) (*models.Page[models.Project], error) {
			return nil, remoteErr
		},
		createProjectFn: func(ctx context.Context, name, description string) (*models.Project, error) {
			return nil, remoteErr
		},
		synthesizeFn: func(ctx context.Context, req services.SynthesisRequest) ([]byte, error) {
			return nil, remoteErr
		},
	}
	h := newTestHandler(api)
	ctx := context.Background()

	envelopes := map[string]models.Envelope{
		ToolListVoices:    h.ListAvailableVoices(ctx, models.VoiceListRequest{}),
		ToolListProjects:  h.ListProjects(ctx, models.ProjectListRequest{}),
		ToolCreateProject: h.CreateProject(ctx, models.ProjectCreateRequest{Name: "x"}),
		ToolGenerateVoice: h.GenerateVoice(ctx, models.VoiceGenerateRequest{Text: "Hi", VoiceUUID: "v1", ProjectUUID: "p1"}),
	}

	for name, env := range envelopes {
		assert.False(t, env.IsSuccess(), name)
		assert.Equal(t, models.FailureRemote, env.FailureKind(), name)
		assert.Contains(t, env.ErrorMessage(), "quota exceeded for account", name)
	}
	assert.Equal(t, 4, api.calls)
}

func TestRemoteFailureLogsRemoteStatus(t *testing.T) {
	var buf bytes.Buffer
	api := &fakeAPI{
		createProjectFn: func(ctx context.Context, name, description string) (*models.Project, error) {
			return nil, &services.APIError{StatusCode: 409, Message: "Project name already taken"}
		},
	}

	res := NewHandler(api, zerolog.New(&buf)).CreateProject(context.Background(), models.ProjectCreateRequest{Name: "Demo"})
	require.False(t, res.Success)
	assert.Contains(t, res.Error, "Project name already taken")

	assert.Contains(t, buf.String(), `"remote_status":409`)
	assert.Contains(t, buf.String(), `"message":"create project failed"`)
}

func TestUnauthorizedMessageSurfaces(t *testing.T) {
	api := &fakeAPI{
		listProjectsFn: func(ctx context.Context, page, pageSize int) (*models.Page[models.Project], error) {
			return nil, services.ErrUnauthorized
		},
	}

	res := newTestHandler(api).ListProjects(context.Background(), models.ProjectListRequest{})
	require.False(t, res.Success)
	assert.Contains(t, res.Error, "Authentication failed. Please check your API key.")
}

func TestGenerateVoice_Base64Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		audio := rapid.SliceOfN(rapid.Byte(), 1, 4096).Draw(t, "audio")
		api := &fakeAPI{
			synthesizeFn: func(ctx context.Context, req services.SynthesisRequest) ([]byte, error) {
				return audio, nil
			},
		}

		res := newTestHandler(api).GenerateVoice(context.Background(), models.VoiceGenerateRequest{
			Text: "text", VoiceUUID: "v", ProjectUUID: "p",
		})
		if !res.Success {
			t.Fatalf("expected success, got %q", res.Error)
		}

		decoded, err := base64.StdEncoding.DecodeString(res.Data.AudioDataBase64)
		if err != nil {
			t.Fatalf("invalid base64: %v", err)
		}
		if string(decoded) != string(audio) {
			t.Fatalf("decoded audio differs from synthesized bytes")
		}
		if res.Data.SizeBytes != len(audio) {
			t.Fatalf("size_bytes = %d, want %d", res.Data.SizeBytes, len(audio))
		}
	})
}
