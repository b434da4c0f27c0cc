package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxMessageBytes bounds one inbound message. Long synthesis texts fit well
// inside it.
const maxMessageBytes = 4 << 20

// ServeStdio reads newline-delimited JSON-RPC messages from r and writes one
// reply line per request to w. It returns nil when r reaches EOF.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	type line struct {
		data []byte
		err  error
	}
	lines := make(chan line)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), maxMessageBytes)
		for scanner.Scan() {
			data := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line{data: data}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case lines <- line{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	enc := json.NewEncoder(w)
	s.logger.Info().Msg("mcp: serving on stdio")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				s.logger.Info().Msg("mcp: stdin closed")
				return nil
			}
			if l.err != nil {
				return fmt.Errorf("read stdin: %w", l.err)
			}
			if len(l.data) == 0 {
				continue
			}

			reply := s.HandleBytes(ctx, l.data)
			if reply == nil {
				continue
			}
			// Encoder terminates every value with a newline.
			if err := enc.Encode(reply); err != nil {
				return fmt.Errorf("write stdout: %w", err)
			}
		}
	}
}

// ServeHTTP takes one JSON-RPC message per POST. Notifications get 202.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "message too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	reply := s.HandleBytes(r.Context(), data)
	if reply == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		s.logger.Error().Err(err).Msg("mcp: failed to write response")
	}
}
