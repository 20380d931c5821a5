package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ayusman/formcheck/internal/capture"
	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/posture"
	"gocv.io/x/gocv"
)

// Sink receives assessments from the pipeline. Publish is called synchronously on the
// pipeline goroutine and should return quickly.
type Sink interface {
	Publish(a posture.Assessment)
}

// FrameSink is an optional extension for sinks that also need the frame and keypoints,
// such as the annotated video stream. The frame is only valid during the call.
type FrameSink interface {
	PublishFrame(frame *gocv.Mat, kps pose.Keypoints, a posture.Assessment)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(a posture.Assessment)

// Publish calls f(a).
func (f SinkFunc) Publish(a posture.Assessment) { f(a) }

// runPipeline is the scoring loop.
//
// Pipeline logic:
// 1. Start in idle mode (IdleFPS)
// 2. On motion, switch to active mode (ActiveFPS)
// 3. Detect keypoints and assess every frame in either mode
// 4. Publish the assessment to every sink in order
// 5. After IdleTimeout without motion, switch back to idle mode
// 6. Exit on stop or when a video file runs out
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	activeMode := false
	lastMotion := time.Now()

	ticker := time.NewTicker(time.Second / IdleFPS)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if errors.Is(err, capture.ErrEndOfStream) {
				log.Println("Video source finished")
				return
			}
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			if a.motion.Detect(frame).Moving {
				lastMotion = time.Now()
				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					ticker.Reset(time.Second / ActiveFPS)
					log.Println("Switched to active mode")
				}
			} else if activeMode && time.Since(lastMotion) > a.config.IdleTimeout {
				activeMode = false
				a.camera.SetFPS(IdleFPS)
				ticker.Reset(time.Second / IdleFPS)
				log.Println("Switched to idle mode")
			}

			if _, err := a.ProcessFrame(frame); err != nil {
				log.Printf("Error processing frame: %v", err)
			}
			frame.Close()
		}
	}
}

// ProcessFrame detects keypoints in frame, assesses them for the selected exercise and
// publishes the result. Detector failures are returned and nothing is published.
func (a *App) ProcessFrame(frame *gocv.Mat) (posture.Assessment, error) {
	detector := a.Detector()
	if detector == nil {
		return posture.Assessment{}, errors.New("no pose detector configured")
	}

	kps, err := detector.Detect(frame)
	if err != nil {
		return posture.Assessment{}, fmt.Errorf("detect pose: %w", err)
	}

	return a.Assess(frame, kps), nil
}

// Assess scores kps for the selected exercise and publishes the result.
// frame may be nil when keypoints come from somewhere other than the camera.
func (a *App) Assess(frame *gocv.Mat, kps pose.Keypoints) posture.Assessment {
	a.mu.RLock()
	engine, exercise := a.engine, a.exercise
	a.mu.RUnlock()

	assessment := engine.Assess(exercise, kps)

	a.mu.Lock()
	if a.exercise == exercise {
		a.last = &assessment
	}
	a.mu.Unlock()

	for _, sink := range a.sinks {
		if fs, ok := sink.(FrameSink); ok && frame != nil {
			fs.PublishFrame(frame, kps, assessment)
		}
		sink.Publish(assessment)
	}

	return assessment
}
