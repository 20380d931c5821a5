package pose

import (
	"errors"
	"math"
	"testing"
)

const angleTolerance = 0.05

func TestAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c Keypoint
		want    float64
	}{
		{
			name: "right angle",
			a:    Keypoint{X: 10, Y: 0},
			b:    Keypoint{X: 0, Y: 0},
			c:    Keypoint{X: 0, Y: 10},
			want: 90,
		},
		{
			name: "collinear with vertex between",
			a:    Keypoint{X: -50, Y: 20},
			b:    Keypoint{X: 0, Y: 20},
			c:    Keypoint{X: 75, Y: 20},
			want: 180,
		},
		{
			name: "same point on both arms",
			a:    Keypoint{X: 30, Y: 40},
			b:    Keypoint{X: 0, Y: 0},
			c:    Keypoint{X: 30, Y: 40},
			want: 0,
		},
		{
			name: "forty-five degrees",
			a:    Keypoint{X: 100, Y: 100},
			b:    Keypoint{X: 0, Y: 0},
			c:    Keypoint{X: 100, Y: 0},
			want: 45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Angle(tt.a, tt.b, tt.c)
			if math.Abs(got-tt.want) > angleTolerance {
				t.Errorf("Angle() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestAngle_SymmetricAndBounded(t *testing.T) {
	points := []Keypoint{
		{X: 0, Y: 0}, {X: 13, Y: -7}, {X: -120, Y: 44}, {X: 250, Y: 310},
		{X: 5, Y: 5}, {X: -3, Y: 900}, {X: 640, Y: 0},
	}

	for i, a := range points {
		for j, b := range points {
			for k, c := range points {
				if i == j || k == j {
					continue
				}
				forward := Angle(a, b, c)
				backward := Angle(c, b, a)
				if math.Abs(forward-backward) > 1e-9 {
					t.Errorf("Angle not symmetric for %v %v %v: %f vs %f", a, b, c, forward, backward)
				}
				if forward < 0 || forward > 180 {
					t.Errorf("Angle out of range for %v %v %v: %f", a, b, c, forward)
				}
			}
		}
	}
}

func TestAngle_CoincidentVertexIsFinite(t *testing.T) {
	p := Keypoint{X: 12, Y: 34}

	got := Angle(p, p, Keypoint{X: 50, Y: 50})
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("expected finite angle, got %f", got)
	}

	got = Angle(p, p, p)
	if math.IsNaN(got) {
		t.Fatal("expected finite angle for fully coincident points")
	}
}

func TestAngle_NonFiniteIsNaN(t *testing.T) {
	got := Angle(Keypoint{X: math.Inf(1)}, Keypoint{}, Keypoint{Y: 1})
	if !math.IsNaN(got) {
		t.Errorf("expected NaN for an infinite coordinate, got %f", got)
	}
}

func TestKeypoints_Find(t *testing.T) {
	kps := Keypoints{
		{Name: LeftKnee, X: 1, Y: 2, Score: 0.9},
		{Name: LeftKnee, X: 3, Y: 4, Score: 0.8},
		{Name: RightKnee, X: 5, Y: 6, Score: 0.7},
	}

	t.Run("returns first match", func(t *testing.T) {
		got := kps.Find(LeftKnee)
		if got.X != 1 || got.Y != 2 {
			t.Errorf("expected first left_knee (1,2), got (%f,%f)", got.X, got.Y)
		}
	})

	t.Run("missing landmark yields zero placeholder", func(t *testing.T) {
		got := kps.Find(LeftAnkle)
		if got.Name != LeftAnkle {
			t.Errorf("expected placeholder name %s, got %s", LeftAnkle, got.Name)
		}
		if got.X != 0 || got.Y != 0 || got.Score != 0 {
			t.Errorf("expected origin with zero score, got %+v", got)
		}
	})

	t.Run("nil keypoints", func(t *testing.T) {
		var empty Keypoints
		if got := empty.Find(Nose); got.Score != 0 {
			t.Errorf("expected zero score, got %f", got.Score)
		}
	})
}

func TestKeypoints_Midpoint(t *testing.T) {
	kps := Keypoints{
		{Name: LeftHip, X: 100, Y: 200, Score: 0.9},
		{Name: RightHip, X: 140, Y: 210, Score: 0.6},
	}

	mid := kps.Midpoint(LeftHip, RightHip)
	if mid.X != 120 || mid.Y != 205 {
		t.Errorf("expected midpoint (120,205), got (%f,%f)", mid.X, mid.Y)
	}
	if mid.Score != 0.6 {
		t.Errorf("expected lower score 0.6, got %f", mid.Score)
	}
}

func TestLandmark_Valid(t *testing.T) {
	if !LeftWrist.Valid() {
		t.Error("left_wrist should be valid")
	}
	if Landmark("left_tail").Valid() {
		t.Error("left_tail should not be valid")
	}
	if len(Landmarks) != 17 {
		t.Errorf("expected 17 landmarks, got %d", len(Landmarks))
	}
}

func TestCheckVisibility(t *testing.T) {
	t.Run("all required present", func(t *testing.T) {
		v := CheckVisibility(StandingPose(), FullBody, DefaultMinConfidence)
		if !v.AllVisible {
			t.Error("expected all visible")
		}
		if len(v.Missing) != 0 {
			t.Errorf("expected no missing joints, got %v", v.Missing)
		}
	})

	for _, name := range FullBody {
		t.Run("dropping "+string(name), func(t *testing.T) {
			var kps Keypoints
			for _, kp := range StandingPose() {
				if kp.Name != name {
					kps = append(kps, kp)
				}
			}

			v := CheckVisibility(kps, FullBody, DefaultMinConfidence)
			if v.AllVisible {
				t.Error("expected not all visible")
			}
			if len(v.Missing) != 1 || v.Missing[0] != name {
				t.Errorf("expected missing [%s], got %v", name, v.Missing)
			}
		})

		t.Run("low confidence "+string(name), func(t *testing.T) {
			kps := StandingPose()
			for i := range kps {
				if kps[i].Name == name {
					kps[i].Score = 0.4
				}
			}

			v := CheckVisibility(kps, FullBody, DefaultMinConfidence)
			if v.AllVisible {
				t.Error("expected not all visible")
			}
			if len(v.Missing) != 1 || v.Missing[0] != name {
				t.Errorf("expected missing [%s], got %v", name, v.Missing)
			}
		})
	}

	t.Run("missing joints follow required order", func(t *testing.T) {
		kps := Keypoints{{Name: LeftHip, X: 1, Y: 1, Score: 0.9}}
		v := CheckVisibility(kps, FullBody, DefaultMinConfidence)

		want := []Landmark{LeftShoulder, RightShoulder, RightHip, LeftKnee, RightKnee, LeftAnkle, RightAnkle}
		if len(v.Missing) != len(want) {
			t.Fatalf("expected %d missing, got %v", len(want), v.Missing)
		}
		for i := range want {
			if v.Missing[i] != want[i] {
				t.Errorf("missing[%d] = %s, want %s", i, v.Missing[i], want[i])
			}
		}
	})

	t.Run("empty frame is not visible", func(t *testing.T) {
		v := CheckVisibility(nil, FullBody, DefaultMinConfidence)
		if v.AllVisible {
			t.Error("expected empty frame to be not visible")
		}
		if len(v.Missing) != len(FullBody) {
			t.Errorf("expected all %d missing, got %d", len(FullBody), len(v.Missing))
		}
	})

	t.Run("threshold is exclusive", func(t *testing.T) {
		kps := StandingPose()
		for i := range kps {
			kps[i].Score = 0.45
		}
		if CheckVisibility(kps, FullBody, 0.45).AllVisible {
			t.Error("score equal to threshold should not count as visible")
		}
		if !CheckVisibility(kps, FullBody, 0.4).AllVisible {
			t.Error("score above threshold should count as visible")
		}
	})
}

func TestTooClose(t *testing.T) {
	standing := StandingPose() // shoulder-to-hip span is 140px

	if TooClose(standing, DefaultTooClosePx) {
		t.Error("standing pose should not be too close at default threshold")
	}
	if !TooClose(standing, 200) {
		t.Error("standing pose should be too close at 200px threshold")
	}

	// Independent of confidence: low scores do not change the heuristic.
	for i := range standing {
		standing[i].Score = 0.1
	}
	if TooClose(standing, DefaultTooClosePx) {
		t.Error("too-close heuristic should ignore confidence")
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty pose by default", func(t *testing.T) {
		mock := NewMockDetector()

		kps, err := mock.Detect(nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if kps != nil {
			t.Errorf("expected nil keypoints, got %v", kps)
		}
	})

	t.Run("returns configured pose", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetPose(PlankPose())

		kps, err := mock.Detect(nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(kps) != len(PlankPose()) {
			t.Errorf("expected %d keypoints, got %d", len(PlankPose()), len(kps))
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		kps, err := mock.Detect(nil)
		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if kps != nil {
			t.Errorf("expected nil keypoints when error is set, got %v", kps)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*SubprocessDetector)(nil)
	})
}

func TestParseResponse(t *testing.T) {
	line := []byte(`{"poses":[` +
		`{"score":0.2,"keypoints":[{"name":"nose","x":1,"y":1,"score":0.9}]},` +
		`{"score":0.8,"keypoints":[{"name":"left_hip","x":10,"y":20,"score":0.7},{"name":"tail","x":0,"y":0,"score":1}]}` +
		`]}` + "\n")

	kps, err := parseResponse(line, 0.3)
	if err != nil {
		t.Fatalf("parseResponse() error = %v", err)
	}
	if len(kps) != 1 {
		t.Fatalf("expected 1 keypoint after filtering, got %d", len(kps))
	}
	if kps[0].Name != LeftHip || kps[0].X != 10 {
		t.Errorf("unexpected keypoint %+v", kps[0])
	}

	t.Run("no pose above threshold", func(t *testing.T) {
		kps, err := parseResponse([]byte(`{"poses":[{"score":0.1,"keypoints":[]}]}`), 0.3)
		if err != nil {
			t.Fatalf("parseResponse() error = %v", err)
		}
		if len(kps) != 0 {
			t.Errorf("expected empty keypoints, got %v", kps)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		if _, err := parseResponse([]byte("not json"), 0.3); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})
}

func TestNewSubprocessDetector_MissingScript(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScriptPath = "/nonexistent/pose_service.py"

	if _, err := NewSubprocessDetector(cfg); err == nil {
		t.Error("expected error for missing script")
	}
}
