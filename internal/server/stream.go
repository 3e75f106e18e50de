package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/server/api"
)

// StreamInterval is the delay between MJPEG frames.
const StreamInterval = 66 * time.Millisecond // ~15 FPS

// StreamHandler serves the search overlay as an MJPEG stream.
type StreamHandler struct {
	tracker api.Tracker
}

// NewStreamHandler creates a new StreamHandler for t.
func NewStreamHandler(t api.Tracker) *StreamHandler {
	return &StreamHandler{tracker: t}
}

// ServeHTTP streams overlay frames until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(StreamInterval)
	defer ticker.Stop()

	for {
		jpeg, err := h.tracker.Overlay()
		if err == nil {
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
			w.Write(jpeg)
			fmt.Fprintf(w, "\r\n")

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
