package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bobarin/voicebridge/internal/tools"
)

const (
	serverName = "voicebridge"

	// audioField is the envelope member carrying synthesized audio.
	audioField = "audio_data_base64"
)

// Server answers MCP requests from the tool registry. It holds no per-session
// state, so one Server can back any number of transports.
type Server struct {
	registry *tools.Registry
	version  string
	logger   zerolog.Logger
}

func NewServer(registry *tools.Registry, version string, logger zerolog.Logger) *Server {
	return &Server{
		registry: registry,
		version:  version,
		logger:   logger,
	}
}

// HandleBytes decodes one raw message and handles it. A nil reply means the
// message was a notification.
func (s *Server) HandleBytes(ctx context.Context, data []byte) *Message {
	var msg Message
	if err := json.Unmarshal(bytes.TrimSpace(data), &msg); err != nil {
		s.logger.Debug().Err(err).Msg("mcp: parse error")
		return newError(nil, CodeParseError, "parse error")
	}
	return s.Handle(ctx, &msg)
}

// Handle dispatches one decoded message.
func (s *Server) Handle(ctx context.Context, msg *Message) *Message {
	if msg.JSONRPC != jsonrpcVersion || msg.Method == "" {
		if msg.IsNotification() {
			return nil
		}
		return newError(msg.ID, CodeInvalidRequest, "invalid request")
	}

	if msg.IsNotification() {
		s.handleNotification(msg)
		return nil
	}

	s.logger.Debug().Str("method", msg.Method).RawJSON("id", msg.ID).Msg("mcp: request")

	switch msg.Method {
	case "initialize":
		return newResponse(msg.ID, initializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities: map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			ServerInfo: serverInfo{Name: serverName, Version: s.version},
		})

	case "ping":
		return newResponse(msg.ID, map[string]interface{}{})

	case "tools/list":
		return newResponse(msg.ID, toolsListResult{Tools: s.registry.Tools()})

	case "tools/call":
		return s.handleToolsCall(ctx, msg)

	default:
		return newError(msg.ID, CodeMethodNotFound, fmt.Sprintf("method not found: %s", msg.Method))
	}
}

func (s *Server) handleNotification(msg *Message) {
	switch msg.Method {
	case "notifications/initialized":
		s.logger.Info().Msg("mcp: client initialized")
	default:
		s.logger.Debug().Str("method", msg.Method).Msg("mcp: ignoring notification")
	}
}

func (s *Server) handleToolsCall(ctx context.Context, msg *Message) *Message {
	var params callToolParams
	if len(msg.Params) == 0 {
		return newError(msg.ID, CodeInvalidParams, "missing params")
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return newError(msg.ID, CodeInvalidParams, fmt.Sprintf("invalid params: %v", err))
	}
	if params.Name == "" {
		return newError(msg.ID, CodeInvalidParams, "tool name is required")
	}

	env, err := s.registry.Call(ctx, params.Name, params.Arguments)
	if errors.Is(err, tools.ErrUnknownTool) {
		return newError(msg.ID, CodeInvalidParams, err.Error())
	}
	if err != nil {
		return newError(msg.ID, CodeInternalError, err.Error())
	}

	text, err := json.Marshal(env)
	if err != nil {
		s.logger.Error().Err(err).Str("tool", params.Name).Msg("mcp: failed to encode result")
		return newError(msg.ID, CodeInternalError, "failed to encode result")
	}

	return newResponse(msg.ID, callToolResult{
		Content:           []textContent{{Type: "text", Text: textSummary(text)}},
		StructuredContent: json.RawMessage(text),
		IsError:           !env.IsSuccess(),
	})
}

// textSummary renders an envelope for the text content block. Audio stays in
// structuredContent only; the text keeps every other field.
func textSummary(envelope []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(envelope, &fields); err != nil {
		return string(envelope)
	}
	if _, ok := fields[audioField]; !ok {
		return string(envelope)
	}
	delete(fields, audioField)
	fields["audio"] = json.RawMessage(`"returned in structuredContent.` + audioField + `"`)

	summary, err := json.Marshal(fields)
	if err != nil {
		return string(envelope)
	}
	return string(summary)
}
