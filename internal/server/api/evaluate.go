package api

import (
	"net/http"

	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/posture"
)

// EvaluateHandler scores one posted frame.
type EvaluateHandler struct {
	engine func() *posture.Engine
}

// NewEvaluateHandler creates an EvaluateHandler. engine is called per request so
// threshold changes made through the settings API apply immediately; nil uses defaults.
func NewEvaluateHandler(engine func() *posture.Engine) *EvaluateHandler {
	if engine == nil {
		e := posture.NewEngine(posture.DefaultConfig())
		engine = func() *posture.Engine { return e }
	}
	return &EvaluateHandler{engine: engine}
}

type evaluateRequest struct {
	Exercise  string         `json:"exercise"`
	Keypoints pose.Keypoints `json:"keypoints"`
}

// ServeHTTP handles POST /api/evaluate. An unknown exercise is not an error:
// the response carries the neutral default assessment.
func (h *EvaluateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	writeJSON(w, http.StatusOK, h.engine().AssessMode(req.Exercise, req.Keypoints))
}
