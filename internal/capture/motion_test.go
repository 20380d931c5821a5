package capture

import (
	"testing"
)

func TestNewMotionDetector(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      float64
	}{
		{"explicit threshold", 5.0, 5.0},
		{"low threshold", 0.5, 0.5},
		{"zero uses default", 0, DefaultMotionThreshold},
		{"negative uses default", -2, DefaultMotionThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(tt.threshold)
			defer md.Close()

			if md.Threshold() != tt.want {
				t.Errorf("Threshold() = %f, want %f", md.Threshold(), tt.want)
			}
			if md.initialized {
				t.Error("motion detector should not be initialized initially")
			}
		})
	}
}

func TestMotionDetector_StillSubject(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	frame1 := BoxFrame(200)
	defer frame1.Close()
	frame2 := BoxFrame(200)
	defer frame2.Close()

	if m := md.Detect(&frame1); m.Moving || m.Changed != 0 {
		t.Errorf("first frame should only set the baseline, got %+v", m)
	}
	if m := md.Detect(&frame2); m.Moving {
		t.Errorf("identical frames should not be motion, got %+v", m)
	}
}

func TestMotionDetector_MovingSubject(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	left := BoxFrame(40)
	defer left.Close()
	right := BoxFrame(400)
	defer right.Close()

	md.Detect(&left)
	m := md.Detect(&right)
	if !m.Moving {
		t.Errorf("a box jumping across the frame should be motion, got %+v", m)
	}
	if m.Changed <= 1.0 || m.Changed > 100 {
		t.Errorf("changed percentage out of range: %f", m.Changed)
	}
}

func TestMotionDetector_NilAndEmpty(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	if m := md.Detect(nil); m.Moving {
		t.Error("nil frame should not be motion")
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	frame := BlankFrame()
	defer frame.Close()

	md.Detect(&frame)
	if !md.initialized {
		t.Error("detector should be initialized after first Detect")
	}

	md.Reset()
	if md.initialized {
		t.Error("detector should not be initialized after Reset")
	}
	if !md.prevGray.Empty() {
		t.Error("baseline should be empty after Reset")
	}
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.Threshold() != 5.0 {
		t.Errorf("Threshold() = %f, want 5.0", md.Threshold())
	}

	md.SetThreshold(-1.0)
	if md.Threshold() != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", md.Threshold())
	}
}

func TestMotionDetector_CloseTwice(t *testing.T) {
	md := NewMotionDetector(1.0)
	md.Close()
	md.Close()
}
