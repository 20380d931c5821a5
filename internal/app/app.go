// Package app runs the live formcheck pipeline: camera frames in, assessments out to sinks.
package app

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/formcheck/internal/capture"
	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/posture"
	"github.com/ayusman/formcheck/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while the subject holds still.
	IdleFPS = 5
	// ActiveFPS is the frame rate while the subject moves.
	ActiveFPS = 15
	// DefaultIdleTimeout is how long without motion before dropping back to IdleFPS.
	DefaultIdleTimeout = 2 * time.Second
)

// ErrUnknownExercise is returned when selecting an exercise that is not supported.
var ErrUnknownExercise = errors.New("unknown exercise")

// Config holds configuration options for the application.
type Config struct {
	Store    *store.Store
	Camera   capture.Camera
	Detector pose.Detector
	Engine   *posture.Engine

	// Sinks receive every assessment, in order, on the pipeline goroutine.
	Sinks []Sink

	Exercise     posture.Exercise
	MotionThresh float64
	IdleTimeout  time.Duration
}

// App owns the pipeline state. Exercise, engine and enabled flag may change while running.
type App struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector pose.Detector
	engine   *posture.Engine
	sinks    []Sink

	mu       sync.RWMutex
	enabled  bool
	exercise posture.Exercise
	last     *posture.Assessment
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a new App. Missing collaborators get defaults: the first webcam, the
// subprocess pose service (or a mock when it is not installed) and a default engine.
func New(config Config) *App {
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	if !config.Exercise.Valid() {
		config.Exercise = posture.HipHinge
	}

	a := &App{
		config:   config,
		camera:   config.Camera,
		motion:   capture.NewMotionDetector(config.MotionThresh),
		detector: config.Detector,
		engine:   config.Engine,
		sinks:    config.Sinks,
		exercise: config.Exercise,
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(capture.DefaultConfig())
	}
	if a.engine == nil {
		a.engine = posture.NewEngine(posture.DefaultConfig())
	}
	if a.detector == nil {
		if sd, err := pose.NewSubprocessDetector(pose.DefaultConfig()); err == nil {
			a.detector = sd
			log.Println("Using subprocess pose detection")
		} else {
			log.Printf("Pose service not available (%v), using mock detector", err)
			a.detector = pose.NewMockDetector()
		}
	}

	return a
}

// SetEnabled enables or disables scoring.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether scoring is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetExercise selects the exercise by display name or slug.
func (a *App) SetExercise(id string) error {
	ex, ok := posture.ParseExercise(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownExercise, id)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.exercise != ex {
		a.exercise = ex
		a.last = nil
		log.Printf("Exercise set to %s", ex)
	}
	return nil
}

// Exercise returns the selected exercise.
func (a *App) Exercise() posture.Exercise {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.exercise
}

// SetEngine swaps the scoring engine, e.g. after thresholds change.
func (a *App) SetEngine(e *posture.Engine) {
	if e == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.engine = e
}

// Engine returns the scoring engine.
func (a *App) Engine() *posture.Engine {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine
}

// SetDetector sets the pose detector implementation to use.
func (a *App) SetDetector(d pose.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the pose detector.
func (a *App) Detector() pose.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Camera returns the frame source.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Last returns the most recent assessment for the selected exercise.
func (a *App) Last() (posture.Assessment, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last == nil {
		return posture.Assessment{}, false
	}
	return *a.last, true
}

// LoadSettings restores the enabled flag, exercise and engine thresholds from the store.
// An active profile overrides the individual settings.
func (a *App) LoadSettings() error {
	if a.config.Store == nil {
		return nil
	}

	settings, err := a.config.Store.Settings().All()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	cfg := a.Engine().Config()
	if v, ok := settings[store.KeyMinConfidence]; ok {
		cfg.MinConfidence = parseFloat(v, cfg.MinConfidence)
	}
	if v, ok := settings[store.KeyTooClosePx]; ok {
		cfg.TooClosePx = parseFloat(v, cfg.TooClosePx)
	}
	if v, ok := settings[store.KeyCheckDistance]; ok {
		cfg.CheckDistance = parseBool(v, cfg.CheckDistance)
	}
	exercise := settings[store.KeyExercise]

	if id := settings[store.KeyActiveProfile]; id != "" {
		p, err := a.config.Store.Profiles().GetByID(id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			log.Printf("Active profile %s no longer exists, ignoring", id)
		case err != nil:
			return fmt.Errorf("load profile: %w", err)
		default:
			cfg = ApplyProfile(cfg, p)
			exercise = p.Exercise
			log.Printf("Loaded profile %q", p.Name)
		}
	}

	a.SetEngine(posture.NewEngine(cfg))
	if exercise != "" {
		if err := a.SetExercise(exercise); err != nil {
			log.Printf("Ignoring stored exercise: %v", err)
		}
	}
	if v, ok := settings[store.KeyEnabled]; ok {
		a.SetEnabled(parseBool(v, false))
	}

	return nil
}

// DetachProfile clears the active profile after storing the live exercise and thresholds,
// so the next LoadSettings restores what is running now.
func (a *App) DetachProfile() error {
	if a.config.Store == nil {
		return nil
	}

	cfg := a.Engine().Config()
	err := a.config.Store.Settings().SetMany(map[string]string{
		store.KeyExercise:      a.Exercise().Slug(),
		store.KeyMinConfidence: strconv.FormatFloat(cfg.MinConfidence, 'f', -1, 64),
		store.KeyTooClosePx:    strconv.FormatFloat(cfg.TooClosePx, 'f', -1, 64),
		store.KeyCheckDistance: strconv.FormatBool(cfg.CheckDistance),
	})
	if err != nil {
		return fmt.Errorf("detach profile: %w", err)
	}
	if err := a.config.Store.Settings().Delete(store.KeyActiveProfile); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("detach profile: %w", err)
	}
	return nil
}

// ApplyProfile overlays a profile's thresholds on cfg. Zero thresholds keep cfg's values.
func ApplyProfile(cfg posture.Config, p *store.Profile) posture.Config {
	if p.MinConfidence > 0 {
		cfg.MinConfidence = p.MinConfidence
	}
	if p.TooClosePx > 0 {
		cfg.TooClosePx = p.TooClosePx
	}
	cfg.CheckDistance = p.CheckDistance
	return cfg
}

func parseFloat(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("Invalid number %q in settings, using %v", s, fallback)
		return fallback
	}
	return v
}

func parseBool(s string, fallback bool) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		log.Printf("Invalid flag %q in settings, using %v", s, fallback)
		return fallback
	}
	return v
}

// Start opens the camera and begins the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Println("Scoring pipeline started")
	return nil
}

// Stop halts the pipeline and releases the camera, motion detector and pose detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	a.motion.Close()

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Scoring pipeline stopped")
}

// Running reports whether the pipeline goroutine is active.
func (a *App) Running() bool {
	done := a.Done()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Done is closed when the pipeline goroutine exits, either after Stop or at the end
// of a video file. It is nil before Start.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.doneCh == nil {
		return nil
	}
	return a.doneCh
}
