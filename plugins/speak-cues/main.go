// Package main provides a formcheck plugin that reads corrective cues aloud.
// It uses "say" on macOS and spd-say or espeak on Linux.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event    string   `json:"event"`
	Exercise string   `json:"exercise"`
	Score    int      `json:"score"`
	Cues     []string `json:"cues"`
	Visible  bool     `json:"visible"`
	Missing  []string `json:"missing,omitempty"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	text := phrase(req)
	if text == "" {
		writeSuccessResponse("")
		return
	}

	if err := speak(text); err != nil {
		writeErrorResponse(fmt.Sprintf("speak failed: %v", err))
		return
	}

	writeSuccessResponse(text)
}

// phrase builds what to say for an event. Only the first cue is spoken so a
// long list does not run into the next rep.
func phrase(req Request) string {
	switch req.Event {
	case "visibility":
		if req.Visible {
			return "Tracking you now."
		}
		return ""
	case "cues":
		if len(req.Cues) == 0 {
			return "Good form."
		}
		return strings.ReplaceAll(req.Cues[0], "—", ",")
	default:
		return ""
	}
}

// speak runs the first available text-to-speech command.
func speak(text string) error {
	var candidates [][]string
	if runtime.GOOS == "darwin" {
		candidates = [][]string{{"say", text}}
	} else {
		candidates = [][]string{{"spd-say", "--wait", text}, {"espeak", text}}
	}

	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err != nil {
			continue
		}
		output, err := exec.Command(c[0], c[1:]...).CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s: %w: %s", c[0], err, string(output))
		}
		return nil
	}
	return errors.New("no text-to-speech command found")
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

// writeSuccessResponse writes a success response with the spoken text to stdout.
func writeSuccessResponse(spoken string) {
	data, _ := json.Marshal(map[string]string{"spoken": spoken})
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}
