// Command formscore scores a recorded session of keypoint frames offline.
//
// Each input line is one frame: a JSON keypoint array, or an object with a
// "keypoints" field. One JSON assessment per frame goes to -out (stdout by
// default) and a summary goes to stderr.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cheggaaa/pb/v3"

	"github.com/ayusman/formcheck/internal/posture"
)

const barTemplate = `{{ string . "prefix" }} {{counters . "%s/%s" "%s/?"}} {{bar . }} {{percent . "%.01f%%" "?"}} {{etime . "%s elapsed"}}`

func main() {
	defaults := posture.DefaultConfig()

	mode := flag.String("mode", "hip-hinge", "exercise to score (slug or display name)")
	in := flag.String("in", "-", "JSONL frames file, - for stdin")
	out := flag.String("out", "-", "per-frame results file, - for stdout")
	html := flag.String("html", "", "also write an HTML report to this path")
	minConf := flag.Float64("min-confidence", defaults.MinConfidence, "landmark confidence threshold")
	tooClose := flag.Float64("too-close", defaults.TooClosePx, "minimum shoulder-to-hip span in pixels")
	checkDistance := flag.Bool("check-distance", false, "flag frames where the subject is too close")
	quiet := flag.Bool("quiet", false, "hide the progress bar")
	flag.Parse()

	ex, ok := posture.ParseExercise(*mode)
	if !ok {
		log.Printf("Unknown mode %q, every frame will get the neutral default", *mode)
	}

	src, err := openInput(*in)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	lines, err := readFrames(src)
	src.Close()
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}

	dst, err := openOutput(*out)
	if err != nil {
		log.Fatalf("Failed to open output: %v", err)
	}
	defer dst.Close()

	var bar *pb.ProgressBar
	if !*quiet {
		bar = pb.ProgressBarTemplate(barTemplate).New(len(lines))
		bar.Set("prefix", ex.String())
		bar.SetWriter(os.Stderr)
		bar.Start()
	}

	engine := posture.NewEngine(posture.Config{
		MinConfidence: *minConf,
		TooClosePx:    *tooClose,
		CheckDistance: *checkDistance,
	})
	sum, err := scoreFrames(lines, engine, ex, dst, bar)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		log.Fatalf("Scoring failed: %v", err)
	}

	writeSummary(os.Stderr, sum)

	if *html != "" {
		if err := writeReport(*html, sum); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Report saved to: %s\n", *html)
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
