// Package testdata holds recorded keypoint sessions with their expected scores.
//
// Each file under sessions/ is named after an exercise slug. Every line is one
// frame: {"frame": n, "keypoints": [...], "expect": {"score": s, "cues": [...]}}.
package testdata

import (
	"bufio"
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/posture"
)

//go:embed sessions/*.jsonl
var sessionsFS embed.FS

// Expect is the assessment a frame should produce with the default engine.
type Expect struct {
	Score int      `json:"score"`
	Cues  []string `json:"cues"`
}

// Frame is one recorded frame.
type Frame struct {
	Index     int            `json:"frame"`
	Keypoints pose.Keypoints `json:"keypoints"`
	Expect    Expect         `json:"expect"`
}

// Session is a sequence of frames recorded for one exercise.
type Session struct {
	Name     string
	Exercise posture.Exercise
	Frames   []Frame
}

// Sessions lists the embedded session names in sorted order.
func Sessions() []string {
	entries, err := fs.ReadDir(sessionsFS, "sessions")
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && path.Ext(e.Name()) == ".jsonl" {
			names = append(names, strings.TrimSuffix(e.Name(), ".jsonl"))
		}
	}
	sort.Strings(names)
	return names
}

// Raw returns the session file as stored, one JSON frame per line.
func Raw(name string) ([]byte, error) {
	data, err := sessionsFS.ReadFile("sessions/" + name + ".jsonl")
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", name, err)
	}
	return data, nil
}

// LoadSession parses the named session.
func LoadSession(name string) (*Session, error) {
	data, err := Raw(name)
	if err != nil {
		return nil, err
	}

	ex, ok := posture.ParseExercise(name)
	if !ok {
		return nil, fmt.Errorf("load session %s: no exercise named %q", name, name)
	}

	s := &Session{Name: name, Exercise: ex}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for line := 1; scanner.Scan(); line++ {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(scanner.Bytes(), &f); err != nil {
			return nil, fmt.Errorf("session %s line %d: %w", name, line, err)
		}
		if f.Expect.Cues == nil {
			f.Expect.Cues = []string{}
		}
		s.Frames = append(s.Frames, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read session %s: %w", name, err)
	}

	return s, nil
}
