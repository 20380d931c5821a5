package pose

import "math"

// Default visibility parameters.
const (
	// DefaultMinConfidence is the score a required landmark must exceed.
	DefaultMinConfidence = 0.5
	// DefaultTooClosePx is the minimum shoulder-to-hip vertical span in pixels.
	DefaultTooClosePx = 80.0
)

// FullBody is the default required landmark list: shoulders, hips, knees and ankles.
var FullBody = []Landmark{
	LeftShoulder, RightShoulder,
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
}

// Visibility reports whether a frame carries enough trusted landmarks to score.
type Visibility struct {
	AllVisible bool       `json:"all_visible"`
	Missing    []Landmark `json:"missing_joints"`
}

// CheckVisibility tests every required landmark for presence with a score above threshold.
// Missing landmarks are listed in the order of required. An empty frame is never visible.
func CheckVisibility(kps Keypoints, required []Landmark, threshold float64) Visibility {
	v := Visibility{Missing: []Landmark{}}
	for _, name := range required {
		if !present(kps, name, threshold) {
			v.Missing = append(v.Missing, name)
		}
	}
	v.AllVisible = len(kps) > 0 && len(v.Missing) == 0
	return v
}

func present(kps Keypoints, name Landmark, threshold float64) bool {
	for _, kp := range kps {
		if kp.Name == name {
			return kp.Score > threshold
		}
	}
	return false
}

// TooClose reports whether the vertical span between the mean shoulder point and the
// mean hip point is below thresholdPx. It is a distance heuristic only and is
// independent of landmark confidence.
func TooClose(kps Keypoints, thresholdPx float64) bool {
	shoulders := kps.Midpoint(LeftShoulder, RightShoulder)
	hips := kps.Midpoint(LeftHip, RightHip)
	return math.Abs(hips.Y-shoulders.Y) < thresholdPx
}
