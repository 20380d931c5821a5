package posture

import (
	"github.com/ayusman/formcheck/internal/pose"
)

// Cues produced by the engine before any exercise rule runs.
const (
	NotVisibleCue = "Move so your whole body is visible."
	DistanceCue   = "Adjust your distance from the camera."
)

// Config holds the engine's frame-gating parameters.
type Config struct {
	// MinConfidence is the score a required landmark must exceed (0.0-1.0).
	MinConfidence float64

	// TooClosePx is the minimum shoulder-to-hip vertical span in pixels.
	TooClosePx float64

	// CheckDistance enables the too-close heuristic.
	CheckDistance bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinConfidence: pose.DefaultMinConfidence,
		TooClosePx:    pose.DefaultTooClosePx,
		CheckDistance: false,
	}
}

// Assessment is everything the engine concludes about one frame.
type Assessment struct {
	Exercise   Exercise        `json:"exercise"`
	Visibility pose.Visibility `json:"visibility"`
	TooClose   bool            `json:"too_close"`
	Result
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}

// Engine gates frames on visibility and distance, then scores them.
// It holds only immutable configuration and is safe for concurrent use.
type Engine struct {
	config Config
}

// NewEngine creates an Engine. Non-positive thresholds fall back to defaults.
func NewEngine(config Config) *Engine {
	defaults := DefaultConfig()
	if config.MinConfidence <= 0 {
		config.MinConfidence = defaults.MinConfidence
	}
	if config.TooClosePx <= 0 {
		config.TooClosePx = defaults.TooClosePx
	}
	return &Engine{config: config}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Assess scores one frame for ex.
func (e *Engine) Assess(ex Exercise, kps pose.Keypoints) Assessment {
	if !ex.Valid() {
		return Assessment{
			Exercise:   Unsupported,
			Visibility: pose.Visibility{Missing: []pose.Landmark{}},
			Result:     UnsupportedResult(),
		}
	}

	a := Assessment{
		Exercise:   ex,
		Visibility: pose.CheckVisibility(kps, ex.Required(), e.config.MinConfidence),
	}
	if e.config.CheckDistance && len(kps) > 0 {
		a.TooClose = pose.TooClose(kps, e.config.TooClosePx)
	}

	if !a.Visibility.AllVisible || a.TooClose {
		a.Result = Result{Score: 0, Cues: []string{}}
		if !a.Visibility.AllVisible {
			a.Cues = append(a.Cues, NotVisibleCue)
		}
		if a.TooClose {
			a.Cues = append(a.Cues, DistanceCue)
		}
		return a
	}

	a.Result = ex.Evaluate(kps)
	if ex == WalkingPosture {
		rec := Recommend(a.Score)
		a.Recommendation = &rec
	}
	return a
}

// AssessMode resolves id and scores the frame. Unknown ids yield the neutral default.
func (e *Engine) AssessMode(id string, kps pose.Keypoints) Assessment {
	ex, _ := ParseExercise(id)
	return e.Assess(ex, kps)
}
