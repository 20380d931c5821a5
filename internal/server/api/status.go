package api

import (
	"net/http"

	"github.com/ayusman/formcheck/internal/posture"
)

// StatusHandler reports the live pipeline state.
type StatusHandler struct {
	controller Controller
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(controller Controller) *StatusHandler {
	return &StatusHandler{controller: controller}
}

type statusResponse struct {
	Enabled  bool                `json:"enabled"`
	Exercise string              `json:"exercise"`
	Last     *posture.Assessment `json:"last,omitempty"`
}

// ServeHTTP handles GET /api/status.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := statusResponse{
		Enabled:  h.controller.IsEnabled(),
		Exercise: h.controller.Exercise().Slug(),
	}
	if last, ok := h.controller.Last(); ok {
		resp.Last = &last
	}
	writeJSON(w, http.StatusOK, resp)
}
