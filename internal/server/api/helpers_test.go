package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/posture"
	"github.com/ayusman/formcheck/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fakeController records what the handlers push into the live pipeline.
type fakeController struct {
	mu       sync.Mutex
	enabled  bool
	exercise posture.Exercise
	engine   *posture.Engine
	last     *posture.Assessment
}

func newFakeController() *fakeController {
	return &fakeController{
		exercise: posture.HipHinge,
		engine:   posture.NewEngine(posture.DefaultConfig()),
	}
}

func (c *fakeController) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

func (c *fakeController) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

func (c *fakeController) SetExercise(id string) error {
	ex, ok := posture.ParseExercise(id)
	if !ok {
		return fmt.Errorf("unknown exercise %q", id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exercise = ex
	return nil
}

func (c *fakeController) Exercise() posture.Exercise {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exercise
}

func (c *fakeController) SetEngine(e *posture.Engine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine = e
}

func (c *fakeController) Engine() *posture.Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine
}

func (c *fakeController) Last() (posture.Assessment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return posture.Assessment{}, false
	}
	return *c.last, true
}

// standingFrame is an upright subject facing the camera: straight legs,
// level hips and a vertical trunk.
func standingFrame() pose.Keypoints {
	kp := func(name pose.Landmark, x, y float64) pose.Keypoint {
		return pose.Keypoint{Name: name, X: x, Y: y, Score: 0.9}
	}
	return pose.Keypoints{
		kp(pose.LeftEar, 300, 60), kp(pose.RightEar, 340, 60),
		kp(pose.LeftShoulder, 280, 100), kp(pose.RightShoulder, 360, 100),
		kp(pose.LeftElbow, 280, 170), kp(pose.RightElbow, 360, 170),
		kp(pose.LeftWrist, 280, 240), kp(pose.RightWrist, 360, 240),
		kp(pose.LeftHip, 280, 250), kp(pose.RightHip, 360, 250),
		kp(pose.LeftKnee, 280, 380), kp(pose.RightKnee, 360, 380),
		kp(pose.LeftAnkle, 280, 500), kp(pose.RightAnkle, 360, 500),
	}
}

func doJSON(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}
