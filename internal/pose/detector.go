package pose

import "gocv.io/x/gocv"

// Detector defines the interface for pose estimation implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the keypoints of at most one subject.
	// Returns an empty slice if nobody is detected.
	Detect(frame *gocv.Mat) (Keypoints, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// Model selects the pose model the service loads ("movenet-lightning", "movenet-thunder").
	Model string

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// ScriptPath overrides the pose service script location.
	ScriptPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Model:         "movenet-lightning",
		MinConfidence: 0.3,
	}
}
