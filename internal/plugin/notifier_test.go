package plugin

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/posture"
)

// recordingScript appends every request to received.jsonl in the plugin directory.
const recordingScript = "cat >> received.jsonl\necho >> received.jsonl\necho '{\"success\":true}'\n"

func readRequests(t *testing.T, path string) []Request {
	t.Helper()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var out []Request
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			t.Fatalf("bad request line %q: %v", scanner.Text(), err)
		}
		out = append(out, req)
	}
	return out
}

func visible(ex posture.Exercise, score int, cues ...string) posture.Assessment {
	if cues == nil {
		cues = []string{}
	}
	return posture.Assessment{
		Exercise:   ex,
		Visibility: pose.Visibility{AllVisible: true, Missing: []pose.Landmark{}},
		Result:     posture.Result{Score: score, Cues: cues},
	}
}

func TestNotifier_AnnouncesChangesOnly(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	cues := writeScriptPlugin(t, dir, "cues", recordingScript, EventCues)
	vis := writeScriptPlugin(t, dir, "visibility", recordingScript, EventVisibility)

	manager := NewManager(dir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	n := NewNotifier(manager, NewExecutor(5*time.Second))

	hidden := posture.Assessment{
		Exercise:   posture.Plank,
		Visibility: pose.Visibility{Missing: []pose.Landmark{pose.LeftAnkle}},
		Result:     posture.Result{Score: 0, Cues: []string{posture.NotVisibleCue}},
	}

	n.Publish(hidden)
	n.Publish(hidden)
	n.Publish(visible(posture.Plank, 90, "Straighten your legs."))
	n.Publish(visible(posture.Plank, 90, "Straighten your legs."))
	n.Publish(visible(posture.Plank, 100))
	if err := n.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got := readRequests(t, filepath.Join(cues.Path, "received.jsonl"))
	if len(got) != 3 {
		t.Fatalf("expected 3 cue announcements, got %d: %+v", len(got), got)
	}
	if got[0].Cues[0] != posture.NotVisibleCue || got[0].Visible {
		t.Errorf("first announcement should be the not-visible cue, got %+v", got[0])
	}
	if len(got[0].Missing) != 1 || got[0].Missing[0] != "left_ankle" {
		t.Errorf("missing joints not forwarded: %v", got[0].Missing)
	}
	if got[1].Score != 90 || got[1].Exercise != "plank" || got[1].Cues[0] != "Straighten your legs." {
		t.Errorf("unexpected second announcement %+v", got[1])
	}
	if got[2].Score != 100 || got[2].Cues == nil || len(got[2].Cues) != 0 {
		t.Errorf("clean rep should announce an empty cue list, got %+v", got[2])
	}

	seen := readRequests(t, filepath.Join(vis.Path, "received.jsonl"))
	if len(seen) != 2 {
		t.Fatalf("expected 2 visibility announcements, got %d", len(seen))
	}
	if seen[0].Visible || !seen[1].Visible {
		t.Errorf("expected hidden then visible, got %+v", seen)
	}
	for _, req := range seen {
		if req.Event != EventVisibility {
			t.Errorf("unexpected event %q", req.Event)
		}
	}
}

func TestNotifier_ExerciseChangeReannounces(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	cues := writeScriptPlugin(t, dir, "cues", recordingScript, EventCues)

	manager := NewManager(dir)
	manager.Discover()
	n := NewNotifier(manager, NewExecutor(5*time.Second))

	n.Publish(visible(posture.Plank, 100))
	n.Publish(visible(posture.DeadBug, 100))
	n.Close()

	got := readRequests(t, filepath.Join(cues.Path, "received.jsonl"))
	if len(got) != 2 {
		t.Fatalf("expected 2 announcements, got %d", len(got))
	}
	if got[0].Exercise != "plank" || got[1].Exercise != "dead-bug" {
		t.Errorf("unexpected exercises %q, %q", got[0].Exercise, got[1].Exercise)
	}
}

func TestNotifier_NoPlugins(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "none"))
	manager.Discover()

	n := NewNotifier(manager, NewExecutor(0))
	n.Publish(visible(posture.HipHinge, 85, "Hinge more at the hips."))
	n.Close()
}

func TestNotifier_PublishAfterClose(t *testing.T) {
	manager := NewManager(t.TempDir())
	n := NewNotifier(manager, NewExecutor(0))

	n.Close()
	n.Close()
	n.Publish(visible(posture.Plank, 100))
}
