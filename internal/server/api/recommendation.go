package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/formcheck/internal/posture"
)

// RecommendationHandler maps a walking posture score to a corrective session.
type RecommendationHandler struct{}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler() *RecommendationHandler {
	return &RecommendationHandler{}
}

// ServeHTTP handles GET /api/recommendation?score=N.
func (h *RecommendationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := r.URL.Query().Get("score")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "score is required")
		return
	}
	score, err := strconv.Atoi(raw)
	if err != nil || score < 0 || score > 100 {
		writeError(w, http.StatusBadRequest, "score must be an integer between 0 and 100")
		return
	}

	writeJSON(w, http.StatusOK, posture.Recommend(score))
}
