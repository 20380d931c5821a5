package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ayusman/formcheck/internal/app"
	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/posture"
	"github.com/ayusman/formcheck/internal/store"
)

// ProfileHandler handles HTTP requests for profile resources.
type ProfileHandler struct {
	store      *store.Store
	controller Controller
}

// NewProfileHandler creates a new ProfileHandler. controller may be nil, in
// which case activating a profile only persists the choice.
func NewProfileHandler(s *store.Store, controller Controller) *ProfileHandler {
	return &ProfileHandler{store: s, controller: controller}
}

// ServeHTTP routes /api/profiles, /api/profiles/{id} and /api/profiles/{id}/activate.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := trimID(r.URL.Path, "/api/profiles")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/activate"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.activate(w, r, id)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type profileRequest struct {
	Name          string  `json:"name"`
	Exercise      string  `json:"exercise"`
	MinConfidence float64 `json:"min_confidence"`
	TooClosePx    float64 `json:"too_close_px"`
	CheckDistance bool    `json:"check_distance"`
}

type profileResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Exercise      string  `json:"exercise"`
	MinConfidence float64 `json:"min_confidence"`
	TooClosePx    float64 `json:"too_close_px"`
	CheckDistance bool    `json:"check_distance"`
	Active        bool    `json:"active"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

func toProfileResponse(p *store.Profile, activeID string) profileResponse {
	return profileResponse{
		ID:            p.ID,
		Name:          p.Name,
		Exercise:      p.Exercise,
		MinConfidence: p.MinConfidence,
		TooClosePx:    p.TooClosePx,
		CheckDistance: p.CheckDistance,
		Active:        p.ID == activeID,
		CreatedAt:     formatTime(p.CreatedAt),
		UpdatedAt:     formatTime(p.UpdatedAt),
	}
}

// validate normalizes req in place and returns a client-facing message on failure.
// Zero thresholds take the engine defaults.
func (req *profileRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "Name is required"
	}
	ex, ok := posture.ParseExercise(req.Exercise)
	if !ok {
		return "Unknown exercise"
	}
	req.Exercise = ex.Slug()

	if req.MinConfidence == 0 {
		req.MinConfidence = pose.DefaultMinConfidence
	}
	if req.MinConfidence < 0 || req.MinConfidence > 1 {
		return "min_confidence must be between 0 and 1"
	}
	if req.TooClosePx == 0 {
		req.TooClosePx = pose.DefaultTooClosePx
	}
	if req.TooClosePx < 0 {
		return "too_close_px must be positive"
	}
	return ""
}

// activeID returns the stored active profile id, or "" when none is set.
func (h *ProfileHandler) activeID() string {
	id, err := h.store.Settings().Get(store.KeyActiveProfile)
	if err != nil {
		return ""
	}
	return id
}

// list handles GET /api/profiles.
func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	active := h.activeID()
	response := listProfilesResponse{Profiles: make([]profileResponse, 0, len(profiles))}
	for _, p := range profiles {
		response.Profiles = append(response.Profiles, toProfileResponse(p, active))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/profiles/{id}.
func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(p, h.activeID()))
}

// nameTaken reports whether another profile already uses name.
func (h *ProfileHandler) nameTaken(name, exceptID string) (bool, error) {
	existing, err := h.store.Profiles().GetByName(name)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.ID != exceptID, nil
}

// create handles POST /api/profiles.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	taken, err := h.nameTaken(req.Name, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}
	if taken {
		writeError(w, http.StatusConflict, "Profile name already exists")
		return
	}

	p := &store.Profile{
		Name:          req.Name,
		Exercise:      req.Exercise,
		MinConfidence: req.MinConfidence,
		TooClosePx:    req.TooClosePx,
		CheckDistance: req.CheckDistance,
	}
	if err := h.store.Profiles().Create(p); err != nil {
		log.Printf("Create profile failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, toProfileResponse(p, ""))
}

// update handles PUT /api/profiles/{id}.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	taken, err := h.nameTaken(req.Name, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	if taken {
		writeError(w, http.StatusConflict, "Profile name already exists")
		return
	}

	p.Name = req.Name
	p.Exercise = req.Exercise
	p.MinConfidence = req.MinConfidence
	p.TooClosePx = req.TooClosePx
	p.CheckDistance = req.CheckDistance

	if err := h.store.Profiles().Update(p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	active := h.activeID()
	if p.ID == active {
		h.apply(p)
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p, active))
}

// delete handles DELETE /api/profiles/{id}. Deleting the active profile clears the selection.
func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}

	if h.activeID() == id {
		if err := h.store.Settings().Delete(store.KeyActiveProfile); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Printf("Failed to clear active profile: %v", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// activate handles POST /api/profiles/{id}/activate.
func (h *ProfileHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	if err := h.store.Settings().Set(store.KeyActiveProfile, p.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to activate profile")
		return
	}
	h.apply(p)

	writeJSON(w, http.StatusOK, toProfileResponse(p, p.ID))
}

// apply pushes a profile's exercise and thresholds into the live pipeline.
func (h *ProfileHandler) apply(p *store.Profile) {
	if h.controller == nil {
		return
	}
	h.controller.SetEngine(posture.NewEngine(app.ApplyProfile(h.controller.Engine().Config(), p)))
	if err := h.controller.SetExercise(p.Exercise); err != nil {
		log.Printf("Profile %q has an unusable exercise: %v", p.Name, err)
	}
}
