package services

import (
	"context"

	"github.com/bobarin/voicebridge/internal/models"
)

// ---------------------------------------------------------------------------
// VoiceAPI: the remote text-to-speech collaborator
// ResembleClient implements it against the live REST API; tests substitute
// a fake so the tool handler can be exercised without the network.
// ---------------------------------------------------------------------------

// SynthesisRequest is what the synthesis endpoint needs for one clip.
type SynthesisRequest struct {
	Text        string
	VoiceUUID   string
	ProjectUUID string
	SampleRate  int
	Precision   models.Precision
	APIToken    string // Optional per-call credential; empty uses the client's key
}

// VoiceAPI is the interface any remote voice provider must implement.
type VoiceAPI interface {
	ListVoices(ctx context.Context, page, pageSize int) (*models.Page[models.Voice], error)
	ListProjects(ctx context.Context, page, pageSize int) (*models.Page[models.Project], error)
	CreateProject(ctx context.Context, name, description string) (*models.Project, error)
	// Synthesize returns the raw WAV bytes for req.
	Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error)
}
