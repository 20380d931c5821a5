package server

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/posture"
	"gocv.io/x/gocv"
)

// streamInterval paces the MJPEG writer at about 15 FPS.
const streamInterval = 66 * time.Millisecond

// StreamHandler serves the pipeline's frames as MJPEG with the assessment drawn on top.
// It is fed by the pipeline as an app.FrameSink, so viewers never touch the camera.
type StreamHandler struct {
	mu   sync.RWMutex
	jpeg []byte
	seq  uint64
}

// NewStreamHandler creates an empty StreamHandler.
func NewStreamHandler() *StreamHandler {
	return &StreamHandler{}
}

// PublishFrame annotates a copy of frame and stores it as the latest JPEG.
func (h *StreamHandler) PublishFrame(frame *gocv.Mat, kps pose.Keypoints, a posture.Assessment) {
	annotated := frame.Clone()
	defer annotated.Close()

	DrawOverlay(&annotated, kps, a)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, annotated)
	if err != nil {
		log.Printf("Stream encode failed: %v", err)
		return
	}
	defer buf.Close()

	h.setFrame(append([]byte(nil), buf.GetBytes()...))
}

// Publish satisfies app.Sink; frames arrive through PublishFrame.
func (h *StreamHandler) Publish(posture.Assessment) {}

func (h *StreamHandler) setFrame(jpeg []byte) {
	h.mu.Lock()
	h.jpeg = jpeg
	h.seq++
	h.mu.Unlock()
}

// Latest returns the most recent JPEG and its sequence number.
func (h *StreamHandler) Latest() ([]byte, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.jpeg, h.seq
}

// ServeHTTP streams MJPEG frames to connected clients. Each frame is sent once.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		jpeg, seq := h.Latest()
		if seq == sent || len(jpeg) == 0 {
			continue
		}
		sent = seq

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
		if _, err := w.Write(jpeg); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
