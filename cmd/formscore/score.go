package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"sort"

	"github.com/cheggaaa/pb/v3"

	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/posture"
)

// maxLineBytes bounds one input line; a 17-point frame is a few hundred bytes.
const maxLineBytes = 1 << 20

// frameResult is one output line.
type frameResult struct {
	Frame int `json:"frame"`
	posture.Assessment
}

// CueCount is how often one cue fired.
type CueCount struct {
	Cue   string `json:"cue"`
	Count int    `json:"count"`
}

// Summary aggregates a scored file.
type Summary struct {
	Exercise posture.Exercise `json:"exercise"`
	Frames   int              `json:"frames"`
	Scored   int              `json:"scored"`
	Skipped  int              `json:"skipped"`
	Invalid  int              `json:"invalid"`
	Mean     float64          `json:"mean_score"`
	Min      int              `json:"min_score"`
	Max      int              `json:"max_score"`
	TopCue   string           `json:"top_cue,omitempty"`
	Cues     []CueCount       `json:"cues"`
	Scores   []int            `json:"scores"`

	Recommendation *posture.Recommendation `json:"recommendation,omitempty"`
}

// readFrames splits input into non-blank lines.
func readFrames(r io.Reader) ([][]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var lines [][]byte
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	return lines, nil
}

// parseFrame accepts a bare keypoint array or an object with a "keypoints" field.
func parseFrame(line []byte) (pose.Keypoints, error) {
	var kps pose.Keypoints
	if line[0] == '[' {
		if err := json.Unmarshal(line, &kps); err != nil {
			return nil, err
		}
		return kps, nil
	}

	var obj struct {
		Keypoints pose.Keypoints `json:"keypoints"`
	}
	if err := json.Unmarshal(line, &obj); err != nil {
		return nil, err
	}
	return obj.Keypoints, nil
}

// scoreFrames assesses every line, writes one JSON result per frame to out and
// returns the summary. Unparseable lines are counted and skipped. bar may be nil.
func scoreFrames(lines [][]byte, engine *posture.Engine, ex posture.Exercise, out io.Writer, bar *pb.ProgressBar) (Summary, error) {
	enc := json.NewEncoder(out)
	sum := Summary{Exercise: ex, Min: math.MaxInt, Cues: []CueCount{}, Scores: []int{}}
	counts := make(map[string]int)
	var order []string
	total := 0

	for i, line := range lines {
		if bar != nil {
			bar.Increment()
		}
		sum.Frames++

		kps, err := parseFrame(line)
		if err != nil {
			log.Printf("Frame %d: invalid keypoints: %v", i, err)
			sum.Invalid++
			continue
		}

		a := engine.Assess(ex, kps)
		if err := enc.Encode(frameResult{Frame: i, Assessment: a}); err != nil {
			return sum, fmt.Errorf("write frame %d: %w", i, err)
		}

		for _, cue := range a.Cues {
			if counts[cue] == 0 {
				order = append(order, cue)
			}
			counts[cue]++
		}

		if !a.Visibility.AllVisible || a.TooClose || !ex.Valid() {
			sum.Skipped++
			continue
		}
		sum.Scored++
		sum.Scores = append(sum.Scores, a.Score)
		total += a.Score
		sum.Min = min(sum.Min, a.Score)
		sum.Max = max(sum.Max, a.Score)
	}

	if sum.Scored > 0 {
		sum.Mean = float64(total) / float64(sum.Scored)
	} else {
		sum.Min = 0
	}

	for _, cue := range order {
		sum.Cues = append(sum.Cues, CueCount{Cue: cue, Count: counts[cue]})
	}
	// Stable keeps first-seen order between equal counts.
	sort.SliceStable(sum.Cues, func(i, j int) bool { return sum.Cues[i].Count > sum.Cues[j].Count })
	if len(sum.Cues) > 0 {
		sum.TopCue = sum.Cues[0].Cue
	}

	if ex == posture.WalkingPosture && sum.Scored > 0 {
		rec := posture.Recommend(int(math.Round(sum.Mean)))
		sum.Recommendation = &rec
	}

	return sum, nil
}

// writeSummary prints the human-readable summary.
func writeSummary(w io.Writer, sum Summary) {
	fmt.Fprintf(w, "Exercise:   %s\n", sum.Exercise)
	fmt.Fprintf(w, "Frames:     %d (%d scored, %d not scorable, %d invalid)\n", sum.Frames, sum.Scored, sum.Skipped, sum.Invalid)
	if sum.Scored > 0 {
		fmt.Fprintf(w, "Mean score: %.1f (min %d, max %d)\n", sum.Mean, sum.Min, sum.Max)
	} else {
		fmt.Fprintln(w, "Mean score: n/a")
	}
	if sum.TopCue != "" {
		fmt.Fprintf(w, "Top cue:    %s (%d frames)\n", sum.TopCue, sum.Cues[0].Count)
	}
	if sum.Recommendation != nil {
		r := sum.Recommendation
		fmt.Fprintf(w, "Plan:       %s, %d min, %s\n", r.Tier, r.DurationMinutes, r.Frequency)
	}
}
