package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Enums
type Precision string

const (
	PrecisionMulaw Precision = "MULAW"
	PrecisionPCM16 Precision = "PCM_16"
	PrecisionPCM24 Precision = "PCM_24"
	PrecisionPCM32 Precision = "PCM_32"
)

// Precisions lists every sample encoding the synthesis endpoint accepts.
var Precisions = []Precision{PrecisionMulaw, PrecisionPCM16, PrecisionPCM24, PrecisionPCM32}

func (p Precision) Valid() bool {
	for _, known := range Precisions {
		if p == known {
			return true
		}
	}
	return false
}

type CallOutcome string

const (
	CallOutcomeSuccess         CallOutcome = "success"
	CallOutcomeValidationError CallOutcome = "validation_error"
	CallOutcomeRemoteError     CallOutcome = "remote_error"
)

// Defaults applied when a request leaves a field at its zero value.
const (
	DefaultPage               = 1
	DefaultPageSize           = 10
	DefaultSampleRate         = 22050
	DefaultPrecision          = PrecisionPCM16
	DefaultProjectDescription = "Created via API"

	WAVContentType = "audio/wav"
)

// Requests

// Pagination is shared by the list operations. Zero means "use the default";
// negative values are rejected.
type Pagination struct {
	Page     int `json:"page,omitempty" msgpack:"page,omitempty"`
	PageSize int `json:"page_size,omitempty" msgpack:"page_size,omitempty"`
}

func (p Pagination) WithDefaults() Pagination {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	return p
}

func (p Pagination) Validate() error {
	if p.Page < 0 {
		return fmt.Errorf("page must be a positive integer")
	}
	if p.PageSize < 0 {
		return fmt.Errorf("page_size must be a positive integer")
	}
	return nil
}

type VoiceListRequest struct {
	Pagination
}

type ProjectListRequest struct {
	Pagination
}

type ProjectCreateRequest struct {
	Name        string `json:"name" msgpack:"name"`
	Description string `json:"description,omitempty" msgpack:"description,omitempty"` // Default: "Created via API"
}

func (r ProjectCreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

func (r ProjectCreateRequest) WithDefaults() ProjectCreateRequest {
	if r.Description == "" {
		r.Description = DefaultProjectDescription
	}
	return r
}

type VoiceGenerateRequest struct {
	Text        string    `json:"text" msgpack:"text"`
	VoiceUUID   string    `json:"voice_uuid" msgpack:"voice_uuid"`
	ProjectUUID string    `json:"project_uuid" msgpack:"project_uuid"`
	SampleRate  int       `json:"sample_rate,omitempty" msgpack:"sample_rate,omitempty"` // Default: 22050
	Precision   Precision `json:"precision,omitempty" msgpack:"precision,omitempty"`     // Default: PCM_16
	APIToken    string    `json:"api_token,omitempty" msgpack:"api_token,omitempty"`     // Overrides RESEMBLE_API_KEY for this call
}

func (r VoiceGenerateRequest) WithDefaults() VoiceGenerateRequest {
	if r.SampleRate == 0 {
		r.SampleRate = DefaultSampleRate
	}
	if r.Precision == "" {
		r.Precision = DefaultPrecision
	}
	return r
}

// Validate expects defaults to have been applied already.
func (r VoiceGenerateRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Text) == "":
		return fmt.Errorf("text is required")
	case strings.TrimSpace(r.VoiceUUID) == "":
		return fmt.Errorf("voice_uuid is required")
	case strings.TrimSpace(r.ProjectUUID) == "":
		return fmt.Errorf("project_uuid is required")
	case r.SampleRate <= 0:
		return fmt.Errorf("sample_rate must be a positive integer")
	case !r.Precision.Valid():
		return fmt.Errorf("precision must be one of MULAW, PCM_16, PCM_24, PCM_32 (got %q)", r.Precision)
	}
	return nil
}

// Page is one page of a remote listing.
type Page[T any] struct {
	Items    []T
	Page     int
	NumPages int
	PageSize int
}

// Payloads returned inside a successful Result

type VoiceList struct {
	Voices   []Voice `json:"voices" msgpack:"voices"`
	Page     int     `json:"page" msgpack:"page"`
	NumPages int     `json:"num_pages" msgpack:"num_pages"`
	PageSize int     `json:"page_size" msgpack:"page_size"`
}

type ProjectList struct {
	Projects []Project `json:"projects" msgpack:"projects"`
	Page     int       `json:"page" msgpack:"page"`
	NumPages int       `json:"num_pages" msgpack:"num_pages"`
	PageSize int       `json:"page_size" msgpack:"page_size"`
}

type ProjectCreated struct {
	Project Project `json:"project" msgpack:"project"`
}

type GeneratedAudio struct {
	AudioDataBase64 string    `json:"audio_data_base64" msgpack:"audio_data_base64"`
	ContentType     string    `json:"content_type" msgpack:"content_type"`
	SampleRate      int       `json:"sample_rate" msgpack:"sample_rate"`
	Precision       Precision `json:"precision" msgpack:"precision"`
	SizeBytes       int       `json:"size_bytes" msgpack:"size_bytes"`
}

// Call log

// ToolCall is one entry in the call log. It never carries request payloads.
type ToolCall struct {
	ID         uuid.UUID   `json:"id"`
	Tool       string      `json:"tool"`
	Outcome    CallOutcome `json:"outcome"`
	Error      *string     `json:"error,omitempty"`
	DurationMs int64       `json:"duration_ms"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (c *ToolCall) Succeeded() bool {
	return c.Outcome == CallOutcomeSuccess
}
