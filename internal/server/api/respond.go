// Package api provides HTTP API handlers for the formcheck scoring service.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/formcheck/internal/posture"
)

// maxBodyBytes bounds request bodies; a full 17-point frame is well under 4 KiB.
const maxBodyBytes = 1 << 20

const timeLayout = "2006-01-02T15:04:05Z07:00"

// Controller is the live pipeline state the settings and profile handlers drive.
// *app.App satisfies it.
type Controller interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
	SetExercise(id string) error
	Exercise() posture.Exercise
	SetEngine(e *posture.Engine)
	Engine() *posture.Engine
	Last() (posture.Assessment, bool)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

// trimID returns the path segment after prefix, or "" for the collection itself.
func trimID(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}
