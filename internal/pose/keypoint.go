// Package pose provides body keypoint types, joint geometry and pose source adapters.
package pose

// Landmark names a body point reported by the pose model.
// The vocabulary follows the 17-point COCO/MoveNet convention.
type Landmark string

const (
	Nose          Landmark = "nose"
	LeftEye       Landmark = "left_eye"
	RightEye      Landmark = "right_eye"
	LeftEar       Landmark = "left_ear"
	RightEar      Landmark = "right_ear"
	LeftShoulder  Landmark = "left_shoulder"
	RightShoulder Landmark = "right_shoulder"
	LeftElbow     Landmark = "left_elbow"
	RightElbow    Landmark = "right_elbow"
	LeftWrist     Landmark = "left_wrist"
	RightWrist    Landmark = "right_wrist"
	LeftHip       Landmark = "left_hip"
	RightHip      Landmark = "right_hip"
	LeftKnee      Landmark = "left_knee"
	RightKnee     Landmark = "right_knee"
	LeftAnkle     Landmark = "left_ankle"
	RightAnkle    Landmark = "right_ankle"
)

// Landmarks lists every known landmark in model output order.
var Landmarks = []Landmark{
	Nose, LeftEye, RightEye, LeftEar, RightEar,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist, RightWrist,
	LeftHip, RightHip, LeftKnee, RightKnee, LeftAnkle, RightAnkle,
}

// Valid reports whether l belongs to the known vocabulary.
func (l Landmark) Valid() bool {
	for _, known := range Landmarks {
		if l == known {
			return true
		}
	}
	return false
}

// Keypoint is one estimated 2-D landmark position in pixels.
type Keypoint struct {
	Name  Landmark `json:"name,omitempty"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Score float64  `json:"score,omitempty"` // confidence in [0,1], 0 when not reported
}

// Keypoints holds one subject's keypoints for a single frame.
type Keypoints []Keypoint

// Find returns the first keypoint with the given name.
// A missing landmark yields a zero-confidence placeholder at the origin; it says
// nothing about visibility, use CheckVisibility for that.
func (k Keypoints) Find(name Landmark) Keypoint {
	for _, kp := range k {
		if kp.Name == name {
			return kp
		}
	}
	return Keypoint{Name: name}
}

// Midpoint averages the positions of two landmarks, typically a left/right pair.
// The score of the result is the lower of the two.
func (k Keypoints) Midpoint(left, right Landmark) Keypoint {
	l := k.Find(left)
	r := k.Find(right)
	return Keypoint{
		X:     (l.X + r.X) / 2,
		Y:     (l.Y + r.Y) / 2,
		Score: min(l.Score, r.Score),
	}
}
