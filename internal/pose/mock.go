package pose

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	kps   Keypoints
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPose sets the keypoints that will be returned by Detect.
func (m *MockDetector) SetPose(kps Keypoints) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kps = kps
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured keypoints or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Keypoints, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.kps, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// side-view skeleton builder used by the presets below; all scores are 0.95.
func skeleton(points map[Landmark][2]float64) Keypoints {
	kps := make(Keypoints, 0, len(points))
	for _, name := range Landmarks {
		p, ok := points[name]
		if !ok {
			continue
		}
		kps = append(kps, Keypoint{Name: name, X: p[0], Y: p[1], Score: 0.95})
	}
	return kps
}

// StandingPose returns a front-facing upright subject in a 640x480 frame.
// Ears, shoulders, hips, knees and ankles are vertically stacked on each side.
func StandingPose() Keypoints {
	return skeleton(map[Landmark][2]float64{
		Nose:          {320, 40},
		LeftEye:       {330, 32},
		RightEye:      {310, 32},
		LeftEar:       {340, 40},
		RightEar:      {300, 40},
		LeftShoulder:  {340, 100},
		RightShoulder: {300, 100},
		LeftElbow:     {350, 170},
		RightElbow:    {290, 170},
		LeftWrist:     {352, 230},
		RightWrist:    {288, 230},
		LeftHip:       {340, 240},
		RightHip:      {300, 240},
		LeftKnee:      {340, 330},
		RightKnee:     {300, 330},
		LeftAnkle:     {340, 420},
		RightAnkle:    {300, 420},
	})
}

// PlankPose returns a side-view straight-body plank facing left.
func PlankPose() Keypoints {
	return skeleton(map[Landmark][2]float64{
		Nose:          {90, 250},
		LeftEar:       {110, 250},
		RightEar:      {110, 250},
		LeftShoulder:  {150, 260},
		RightShoulder: {150, 260},
		LeftElbow:     {150, 340},
		RightElbow:    {150, 340},
		LeftWrist:     {110, 340},
		RightWrist:    {110, 340},
		LeftHip:       {330, 260},
		RightHip:      {330, 260},
		LeftKnee:      {450, 260},
		RightKnee:     {450, 260},
		LeftAnkle:     {570, 260},
		RightAnkle:    {570, 260},
	})
}

// HipHingePose returns a side-view hinge with a 120° trunk and a slight knee bend.
func HipHingePose() Keypoints {
	// Trunk: shoulder sits 120° from the hip→knee ray at the hip.
	// Knee: ankle placed for a ~165° hip-knee-ankle angle.
	return skeleton(map[Landmark][2]float64{
		LeftShoulder:  {213.4, 150},
		RightShoulder: {213.4, 150},
		LeftHip:       {300, 200},
		RightHip:      {300, 200},
		LeftKnee:      {300, 300},
		RightKnee:     {300, 300},
		LeftAnkle:     {325.88, 396.59},
		RightAnkle:    {325.88, 396.59},
	})
}
