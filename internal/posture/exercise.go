package posture

import (
	"strings"

	"github.com/ayusman/formcheck/internal/pose"
)

// Exercise identifies one supported exercise. The set is closed.
type Exercise int

const (
	// Unsupported is the zero value and never scores.
	Unsupported Exercise = iota
	HipHinge
	Plank
	BirdDog
	DeadBug
	WalkingPosture
)

// UnsupportedCue is the only cue produced for an unknown mode.
const UnsupportedCue = "Unsupported mode"

type definition struct {
	slug     string
	name     string
	required []pose.Landmark
	rules    []Check
}

var withLeftArm = append(append([]pose.Landmark{}, pose.FullBody...), pose.LeftElbow, pose.LeftWrist)

var definitions = map[Exercise]definition{
	HipHinge:       {"hip-hinge", "Hip Hinge", pose.FullBody, hipHingeRules},
	Plank:          {"plank", "Plank", pose.FullBody, plankRules},
	BirdDog:        {"bird-dog", "Bird Dog", withLeftArm, birdDogRules},
	DeadBug:        {"dead-bug", "Dead Bug", withLeftArm, deadBugRules},
	WalkingPosture: {"walking-posture", "Walking Posture", append(append([]pose.Landmark{}, pose.FullBody...), pose.LeftEar, pose.RightEar), walkingRules},
}

// Exercises returns every supported exercise in display order.
func Exercises() []Exercise {
	return []Exercise{HipHinge, Plank, BirdDog, DeadBug, WalkingPosture}
}

// ParseExercise resolves a display name ("Hip Hinge") or slug ("hip-hinge"), ignoring case.
func ParseExercise(id string) (Exercise, bool) {
	id = strings.TrimSpace(id)
	for _, ex := range Exercises() {
		def := definitions[ex]
		if strings.EqualFold(id, def.slug) || strings.EqualFold(id, def.name) {
			return ex, true
		}
	}
	return Unsupported, false
}

// Valid reports whether e is a supported exercise.
func (e Exercise) Valid() bool {
	_, ok := definitions[e]
	return ok
}

// Slug returns the URL-safe identifier, or "unsupported".
func (e Exercise) Slug() string {
	if def, ok := definitions[e]; ok {
		return def.slug
	}
	return "unsupported"
}

// String returns the display name.
func (e Exercise) String() string {
	if def, ok := definitions[e]; ok {
		return def.name
	}
	return "Unsupported"
}

// MarshalText encodes the exercise as its slug.
func (e Exercise) MarshalText() ([]byte, error) {
	return []byte(e.Slug()), nil
}

// UnmarshalText decodes a slug or display name. Unknown values decode to Unsupported.
func (e *Exercise) UnmarshalText(text []byte) error {
	*e, _ = ParseExercise(string(text))
	return nil
}

// Required returns the landmarks that must be visible before scoring.
func (e Exercise) Required() []pose.Landmark {
	return append([]pose.Landmark(nil), definitions[e].required...)
}

// Rules returns a copy of the exercise's rule table.
func (e Exercise) Rules() []Check {
	return append([]Check(nil), definitions[e].rules...)
}

// Markers returns the optimal-range markers derived from the rule table.
func (e Exercise) Markers() []Marker {
	return markers(definitions[e].rules)
}

// Evaluate dispatches to the exercise's evaluator.
// Unsupported exercises yield the neutral default.
func (e Exercise) Evaluate(kps pose.Keypoints) Result {
	switch e {
	case HipHinge:
		return EvaluateHipHinge(kps)
	case Plank:
		return EvaluatePlank(kps)
	case BirdDog:
		return EvaluateBirdDog(kps)
	case DeadBug:
		return EvaluateDeadBug(kps)
	case WalkingPosture:
		return EvaluateWalking(kps)
	default:
		return UnsupportedResult()
	}
}

// UnsupportedResult is the neutral default for unknown modes.
func UnsupportedResult() Result {
	return Result{Score: 0, Cues: []string{UnsupportedCue}}
}

// Evaluate scores kps for the exercise named by id. Unknown ids never error;
// they produce UnsupportedResult.
func Evaluate(id string, kps pose.Keypoints) Result {
	ex, _ := ParseExercise(id)
	return ex.Evaluate(kps)
}
