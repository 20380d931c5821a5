package api

import (
	"math"
	"net/http"

	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/posture"
)

// ExercisesHandler serves the exercise registry.
type ExercisesHandler struct{}

// NewExercisesHandler creates a new ExercisesHandler.
func NewExercisesHandler() *ExercisesHandler {
	return &ExercisesHandler{}
}

type ruleResponse struct {
	Metric  posture.Metric `json:"metric"`
	Min     *float64       `json:"min"`
	Max     *float64       `json:"max"`
	Cue     string         `json:"cue"`
	Penalty int            `json:"penalty"`
}

type exerciseResponse struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Required []pose.Landmark  `json:"required"`
	Rules    []ruleResponse   `json:"rules"`
	Markers  []posture.Marker `json:"markers"`
}

type listExercisesResponse struct {
	Exercises []exerciseResponse `json:"exercises"`
}

// bound turns an open rule bound into a JSON null.
func bound(v float64) *float64 {
	if math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func toExerciseResponse(ex posture.Exercise) exerciseResponse {
	rules := ex.Rules()
	resp := exerciseResponse{
		ID:       ex.Slug(),
		Name:     ex.String(),
		Required: ex.Required(),
		Rules:    make([]ruleResponse, 0, len(rules)),
		Markers:  ex.Markers(),
	}
	for _, c := range rules {
		resp.Rules = append(resp.Rules, ruleResponse{
			Metric:  c.Metric,
			Min:     bound(c.Min),
			Max:     bound(c.Max),
			Cue:     c.Cue,
			Penalty: c.Penalty,
		})
	}
	return resp
}

// ServeHTTP handles GET /api/exercises and GET /api/exercises/{id}.
func (h *ExercisesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := trimID(r.URL.Path, "/api/exercises")
	if id != "" {
		ex, ok := posture.ParseExercise(id)
		if !ok {
			writeError(w, http.StatusNotFound, "Exercise not found")
			return
		}
		writeJSON(w, http.StatusOK, toExerciseResponse(ex))
		return
	}

	all := posture.Exercises()
	response := listExercisesResponse{Exercises: make([]exerciseResponse, 0, len(all))}
	for _, ex := range all {
		response.Exercises = append(response.Exercises, toExerciseResponse(ex))
	}
	writeJSON(w, http.StatusOK, response)
}
