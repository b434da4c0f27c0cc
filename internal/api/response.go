package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/bobarin/voicebridge/internal/models"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondEnvelope writes a tool result with the status its outcome maps to,
// as msgpack when the client asks for it.
func respondEnvelope(w http.ResponseWriter, r *http.Request, env models.Envelope) {
	status := statusFor(env.FailureKind())

	if wantsMsgpack(r) {
		data, err := msgpack.Marshal(env)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to encode response")
			return
		}
		w.Header().Set("Content-Type", contentTypeMsgpack)
		w.WriteHeader(status)
		w.Write(data)
		return
	}

	respondJSON(w, status, env)
}

func statusFor(kind models.FailureKind) int {
	switch kind {
	case models.FailureValidation:
		return http.StatusBadRequest
	case models.FailureRemote:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

func wantsMsgpack(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, contentTypeMsgpack) || strings.Contains(accept, "application/x-msgpack")
}
