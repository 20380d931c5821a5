// Package plugin runs external cue announcers. A plugin is a directory holding a
// plugin.json manifest and an executable that reads one JSON request on stdin and
// writes one JSON response on stdout.
package plugin

import (
	"encoding/json"
	"slices"
)

// Events a plugin can subscribe to.
const (
	// EventCues fires when the list of corrective cues changes.
	EventCues = "cues"
	// EventVisibility fires when the subject enters or leaves the frame.
	EventVisibility = "visibility"
)

// Manifest describes a plugin's metadata and subscriptions.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Events      []string `json:"events"`
}

// Subscribes reports whether the plugin wants event.
func (m Manifest) Subscribes(event string) bool {
	return slices.Contains(m.Events, event)
}

// Request is sent to a plugin on stdin.
type Request struct {
	Event    string   `json:"event"`
	Exercise string   `json:"exercise"`
	Score    int      `json:"score"`
	Cues     []string `json:"cues"`
	Visible  bool     `json:"visible"`
	Missing  []string `json:"missing,omitempty"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
