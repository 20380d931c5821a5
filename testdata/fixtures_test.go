package testdata

import (
	"reflect"
	"testing"
)

func TestSessions(t *testing.T) {
	got := Sessions()
	want := []string{"bird-dog", "dead-bug", "hip-hinge", "plank", "walking-posture"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sessions() = %v, want %v", got, want)
	}
}

func TestLoadSession_Unknown(t *testing.T) {
	if _, err := LoadSession("pushup"); err == nil {
		t.Error("expected error for a missing session")
	}
}
