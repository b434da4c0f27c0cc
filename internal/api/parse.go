package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/bobarin/voicebridge/internal/models"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"

	maxBodyBytes = 4 << 20
)

// HTTPError is a request problem that never reaches a tool.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func IsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// parseBody decodes a JSON or msgpack body into v. A missing Content-Type is
// read as JSON. Unsupported media types and oversized bodies come back as
// *HTTPError; a body that does not decode comes back as an invalid arguments
// error.
func parseBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}

	switch strings.ToLower(mediaType) {
	case "", contentTypeJSON:
		err = json.NewDecoder(r.Body).Decode(v)
	case contentTypeMsgpack, "application/x-msgpack":
		err = msgpack.NewDecoder(r.Body).Decode(v)
	default:
		return &HTTPError{Status: http.StatusUnsupportedMediaType, Message: "Unsupported content type"}
	}

	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &HTTPError{Status: http.StatusRequestEntityTooLarge, Message: "Request body too large"}
		}
		return fmt.Errorf("invalid arguments: %v", err)
	}
	return nil
}

// parsePagination reads page and page_size from the query string. Absent
// values stay zero so the handler applies its defaults.
func parsePagination(r *http.Request) (models.Pagination, error) {
	var p models.Pagination
	var err error

	if p.Page, err = queryInt(r, "page"); err != nil {
		return p, err
	}
	if p.PageSize, err = queryInt(r, "page_size"); err != nil {
		return p, err
	}
	return p, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}
