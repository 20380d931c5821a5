// Package server provides the HTTP server for the formcheck scoring service.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/formcheck/internal/posture"
	"github.com/ayusman/formcheck/internal/server/api"
	"github.com/ayusman/formcheck/internal/store"
)

// Config holds the server configuration. Every field is optional; routes whose
// collaborators are missing are not registered.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Controller api.Controller
	Stream     *StreamHandler
	Feed       *FeedHub
}

// Server represents the HTTP server for the formcheck application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	exercises := api.NewExercisesHandler()
	s.mux.Handle("/api/exercises", exercises)
	s.mux.Handle("/api/exercises/", exercises)
	s.mux.Handle("/api/recommendation", api.NewRecommendationHandler())

	// Scoring follows the live thresholds when a pipeline is attached.
	var engine func() *posture.Engine
	if s.config.Controller != nil {
		engine = s.config.Controller.Engine
		s.mux.Handle("/api/status", api.NewStatusHandler(s.config.Controller))
	}
	s.mux.Handle("/api/evaluate", api.NewEvaluateHandler(engine))

	if s.config.Store != nil {
		profiles := api.NewProfileHandler(s.config.Store, s.config.Controller)
		s.mux.Handle("/api/profiles", profiles)
		s.mux.Handle("/api/profiles/", profiles)
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.Store, s.config.Controller))
	}

	if s.config.Stream != nil {
		s.mux.Handle("/api/stream", s.config.Stream)
	}
	if s.config.Feed != nil {
		s.mux.Handle("/api/feed", s.config.Feed)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := healthResponse{
		Status:    "ok",
		Uptime:    time.Since(s.start).Round(time.Second).String(),
		Exercises: len(posture.Exercises()),
	}
	if c := s.config.Controller; c != nil {
		enabled := c.IsEnabled()
		resp.Scoring = &enabled
		resp.Exercise = c.Exercise().Slug()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Health encode failed: %v", err)
	}
}

// healthResponse reports liveness. Scoring and Exercise are set only when a pipeline is attached.
type healthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Exercises int    `json:"exercises"`
	Scoring   *bool  `json:"scoring,omitempty"`
	Exercise  string `json:"exercise,omitempty"`
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
