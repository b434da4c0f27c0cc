package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/bobarin/voicebridge/internal/config"
	"github.com/bobarin/voicebridge/internal/models"
)

// ---------------------------------------------------------------------------
// Resemble AI Service
// Voices and projects live on the v2 REST API; synthesis goes to the
// streaming cluster, which answers with a WAV body.
// ---------------------------------------------------------------------------

const (
	resembleVoicesPath   = "/api/v2/voices"
	resembleProjectsPath = "/api/v2/projects"
	resembleStreamPath   = "/stream"
)

// ResembleClient handles voice listing, project management and synthesis via Resemble AI.
type ResembleClient struct {
	apiKey        string
	apiURL        string
	synthURL      string
	maxAudioBytes int64
	client        *http.Client
	logger        zerolog.Logger
}

// Ensure ResembleClient implements VoiceAPI at compile time.
var _ VoiceAPI = (*ResembleClient)(nil)

// NewResembleClient creates a client from the resolved Resemble settings.
func NewResembleClient(cfg *config.ResembleConfig, logger zerolog.Logger) *ResembleClient {
	return &ResembleClient{
		apiKey:        cfg.APIKey,
		apiURL:        cfg.APIURL,
		synthURL:      cfg.SynthURL,
		maxAudioBytes: cfg.MaxAudioBytes,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger.With().Str("provider", "resemble").Logger(),
	}
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type resembleListResponse[T any] struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Page     int    `json:"page"`
	NumPages int    `json:"num_pages"`
	PageSize int    `json:"page_size"`
	Items    []T    `json:"items"`
}

type resembleCreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type resembleItemResponse struct {
	Success *bool           `json:"success"`
	Message string          `json:"message,omitempty"`
	Item    *models.Project `json:"item"`
}

type resembleStreamRequest struct {
	ProjectUUID string           `json:"project_uuid"`
	VoiceUUID   string           `json:"voice_uuid"`
	Data        string           `json:"data"`
	Precision   models.Precision `json:"precision"`
	SampleRate  int              `json:"sample_rate"`
}

type resembleErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// ListVoices fetches one page of voices available to the account.
func (c *ResembleClient) ListVoices(ctx context.Context, page, pageSize int) (*models.Page[models.Voice], error) {
	return listPage[models.Voice](ctx, c, resembleVoicesPath, page, pageSize)
}

// ListProjects fetches one page of projects.
func (c *ResembleClient) ListProjects(ctx context.Context, page, pageSize int) (*models.Page[models.Project], error) {
	return listPage[models.Project](ctx, c, resembleProjectsPath, page, pageSize)
}

// CreateProject creates a project and returns the descriptor the API assigned.
func (c *ResembleClient) CreateProject(ctx context.Context, name, description string) (*models.Project, error) {
	jsonData, err := json.Marshal(resembleCreateProjectRequest{Name: name, Description: description})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal create project request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+resembleProjectsPath, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result resembleItemResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	if (result.Success != nil && !*result.Success) || result.Item == nil || result.Item.UUID == "" {
		if result.Message != "" {
			return nil, fmt.Errorf("API request successful but returned no project: %s", result.Message)
		}
		return nil, fmt.Errorf("API request successful but returned no project")
	}

	c.logger.Info().Str("project_uuid", result.Item.UUID).Msg("Project created")

	return result.Item, nil
}

// Synthesize streams a clip from the synthesis cluster and returns the whole WAV body.
func (c *ResembleClient) Synthesize(ctx context.Context, sr SynthesisRequest) ([]byte, error) {
	jsonData, err := json.Marshal(resembleStreamRequest{
		ProjectUUID: sr.ProjectUUID,
		VoiceUUID:   sr.VoiceUUID,
		Data:        sr.Text,
		Precision:   sr.Precision,
		SampleRate:  sr.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.synthURL+resembleStreamPath, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().
		Str("voice_uuid", sr.VoiceUUID).
		Str("project_uuid", sr.ProjectUUID).
		Int("text_len", len(sr.Text)).
		Int("sample_rate", sr.SampleRate).
		Str("precision", string(sr.Precision)).
		Msg("Generating speech")

	resp, err := c.do(req, sr.APIToken)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Read one byte past the cap so an oversized body is detectable without buffering all of it.
	audioData, err := io.ReadAll(io.LimitReader(resp.Body, c.maxAudioBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}

	if int64(len(audioData)) > c.maxAudioBytes {
		return nil, fmt.Errorf("%w (>%d bytes)", ErrAudioTooLarge, c.maxAudioBytes)
	}

	if len(audioData) == 0 {
		return nil, fmt.Errorf("resemble returned empty audio")
	}

	c.logger.Debug().Int("bytes", len(audioData)).Msg("Speech generated")

	return audioData, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func listPage[T any](ctx context.Context, c *ResembleClient, path string, page, pageSize int) (*models.Page[T], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result resembleListResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	if !result.Success {
		if result.Message != "" {
			return nil, fmt.Errorf("API request successful but returned no data: %s", result.Message)
		}
		return nil, fmt.Errorf("API request successful but returned no data")
	}

	items := result.Items
	if items == nil {
		items = []T{}
	}

	return &models.Page[T]{
		Items:    items,
		Page:     result.Page,
		NumPages: result.NumPages,
		PageSize: result.PageSize,
	}, nil
}

// do authenticates and sends req, turning transport failures and non-2xx
// statuses into errors. On success the caller owns resp.Body.
func (c *ResembleClient) do(req *http.Request, token string) (*http.Response, error) {
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(req.Context().Err(), context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	c.logger.Warn().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Msg("Resemble request rejected")

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}

	return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
}

// errorMessage prefers the API's own message field and falls back to the raw body.
func errorMessage(body []byte) string {
	var parsed resembleErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return truncate(strings.TrimSpace(string(body)), 200)
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// truncate limits a string to at most maxLen bytes for error output,
// cutting on a rune boundary.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
