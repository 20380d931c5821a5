package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/ayusman/formcheck/internal/app"
	"github.com/ayusman/formcheck/internal/posture"
	"github.com/ayusman/formcheck/internal/store"
)

// SettingsHandler reads and updates persisted runtime settings.
type SettingsHandler struct {
	store      *store.Store
	controller Controller
}

// NewSettingsHandler creates a new SettingsHandler. With a nil controller the
// handler only reads and writes the store.
func NewSettingsHandler(s *store.Store, controller Controller) *SettingsHandler {
	return &SettingsHandler{store: s, controller: controller}
}

type settingsResponse struct {
	Enabled       bool    `json:"enabled"`
	Exercise      string  `json:"exercise"`
	MinConfidence float64 `json:"min_confidence"`
	TooClosePx    float64 `json:"too_close_px"`
	CheckDistance bool    `json:"check_distance"`
	ActiveProfile string  `json:"active_profile,omitempty"`
}

// updateSettingsRequest uses pointers so absent fields are left alone.
type updateSettingsRequest struct {
	Enabled       *bool    `json:"enabled"`
	Exercise      *string  `json:"exercise"`
	MinConfidence *float64 `json:"min_confidence"`
	TooClosePx    *float64 `json:"too_close_px"`
	CheckDistance *bool    `json:"check_distance"`
}

// ServeHTTP handles GET and PUT /api/settings.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// current reports live values from the controller, falling back to stored ones.
func (h *SettingsHandler) current() (settingsResponse, error) {
	stored, err := h.store.Settings().All()
	if err != nil {
		return settingsResponse{}, err
	}

	if h.controller != nil {
		cfg := h.controller.Engine().Config()
		return settingsResponse{
			Enabled:       h.controller.IsEnabled(),
			Exercise:      h.controller.Exercise().Slug(),
			MinConfidence: cfg.MinConfidence,
			TooClosePx:    cfg.TooClosePx,
			CheckDistance: cfg.CheckDistance,
			ActiveProfile: stored[store.KeyActiveProfile],
		}, nil
	}

	defaults := posture.DefaultConfig()
	resp := settingsResponse{
		Exercise:      posture.HipHinge.Slug(),
		MinConfidence: defaults.MinConfidence,
		TooClosePx:    defaults.TooClosePx,
		CheckDistance: defaults.CheckDistance,
		ActiveProfile: stored[store.KeyActiveProfile],
	}
	if v, err := strconv.ParseBool(stored[store.KeyEnabled]); err == nil {
		resp.Enabled = v
	}
	if ex, ok := posture.ParseExercise(stored[store.KeyExercise]); ok {
		resp.Exercise = ex.Slug()
	}
	if v, err := strconv.ParseFloat(stored[store.KeyMinConfidence], 64); err == nil {
		resp.MinConfidence = v
	}
	if v, err := strconv.ParseFloat(stored[store.KeyTooClosePx], 64); err == nil {
		resp.TooClosePx = v
	}
	if v, err := strconv.ParseBool(stored[store.KeyCheckDistance]); err == nil {
		resp.CheckDistance = v
	}
	return resp, nil
}

// get handles GET /api/settings.
func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.current()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// update handles PUT /api/settings. Changing the exercise or a threshold by hand
// detaches the active profile so the manual choice survives a restart.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	values := make(map[string]string)
	if req.Exercise != nil {
		ex, ok := posture.ParseExercise(*req.Exercise)
		if !ok {
			writeError(w, http.StatusBadRequest, "Unknown exercise")
			return
		}
		values[store.KeyExercise] = ex.Slug()
	}
	if req.MinConfidence != nil {
		if *req.MinConfidence <= 0 || *req.MinConfidence > 1 {
			writeError(w, http.StatusBadRequest, "min_confidence must be between 0 and 1")
			return
		}
		values[store.KeyMinConfidence] = strconv.FormatFloat(*req.MinConfidence, 'f', -1, 64)
	}
	if req.TooClosePx != nil {
		if *req.TooClosePx <= 0 {
			writeError(w, http.StatusBadRequest, "too_close_px must be positive")
			return
		}
		values[store.KeyTooClosePx] = strconv.FormatFloat(*req.TooClosePx, 'f', -1, 64)
	}
	if req.CheckDistance != nil {
		values[store.KeyCheckDistance] = strconv.FormatBool(*req.CheckDistance)
	}
	detach := len(values) > 0
	if detach {
		if err := h.fillDetached(values); err != nil {
			log.Printf("Load settings failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}
	if req.Enabled != nil {
		values[store.KeyEnabled] = strconv.FormatBool(*req.Enabled)
	}

	if len(values) > 0 {
		if err := h.store.Settings().SetMany(values); err != nil {
			log.Printf("Save settings failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}
	if detach {
		if err := h.store.Settings().Delete(store.KeyActiveProfile); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Printf("Failed to clear active profile: %v", err)
		}
	}

	h.apply(req)
	h.get(w, r)
}

// fillDetached completes values with the configuration in effect right now, so
// thresholds and the exercise a profile supplied are still stored once it is detached.
func (h *SettingsHandler) fillDetached(values map[string]string) error {
	cur, err := h.current()
	if err != nil {
		return err
	}
	cfg := posture.Config{
		MinConfidence: cur.MinConfidence,
		TooClosePx:    cur.TooClosePx,
		CheckDistance: cur.CheckDistance,
	}
	exercise := cur.Exercise

	// Without a live pipeline the profile is only in the store.
	if h.controller == nil && cur.ActiveProfile != "" {
		p, err := h.store.Profiles().GetByID(cur.ActiveProfile)
		switch {
		case err == nil:
			cfg = app.ApplyProfile(cfg, p)
			if ex, ok := posture.ParseExercise(p.Exercise); ok {
				exercise = ex.Slug()
			}
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
	}

	defaults := map[string]string{
		store.KeyExercise:      exercise,
		store.KeyMinConfidence: strconv.FormatFloat(cfg.MinConfidence, 'f', -1, 64),
		store.KeyTooClosePx:    strconv.FormatFloat(cfg.TooClosePx, 'f', -1, 64),
		store.KeyCheckDistance: strconv.FormatBool(cfg.CheckDistance),
	}
	for k, v := range defaults {
		if _, ok := values[k]; !ok {
			values[k] = v
		}
	}
	return nil
}

// apply pushes the accepted changes into the live pipeline.
func (h *SettingsHandler) apply(req updateSettingsRequest) {
	if h.controller == nil {
		return
	}

	if req.MinConfidence != nil || req.TooClosePx != nil || req.CheckDistance != nil {
		cfg := h.controller.Engine().Config()
		if req.MinConfidence != nil {
			cfg.MinConfidence = *req.MinConfidence
		}
		if req.TooClosePx != nil {
			cfg.TooClosePx = *req.TooClosePx
		}
		if req.CheckDistance != nil {
			cfg.CheckDistance = *req.CheckDistance
		}
		h.controller.SetEngine(posture.NewEngine(cfg))
	}
	if req.Exercise != nil {
		if err := h.controller.SetExercise(*req.Exercise); err != nil {
			log.Printf("Set exercise failed: %v", err)
		}
	}
	if req.Enabled != nil {
		h.controller.SetEnabled(*req.Enabled)
	}
}
