package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/app"
)

// Tracker is the live search as seen by the HTTP API.
type Tracker interface {
	Status() app.Status
	SetEnabled(enabled bool)
	SaveBest() (string, error)
	Overlay() ([]byte, error)
}

// TrackerHandler exposes the live search status and controls.
type TrackerHandler struct {
	tracker Tracker
}

// NewTrackerHandler creates a new TrackerHandler.
func NewTrackerHandler(t Tracker) *TrackerHandler {
	return &TrackerHandler{tracker: t}
}

type saveResponse struct {
	Path string `json:"path"`
}

// ServeHTTP routes GET /api/tracker and POST /api/tracker/{enable,disable,save}.
func (h *TrackerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tracker"), "/")

	if action == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.tracker.Status())
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch action {
	case "enable":
		h.tracker.SetEnabled(true)
		writeJSON(w, http.StatusOK, h.tracker.Status())
	case "disable":
		h.tracker.SetEnabled(false)
		writeJSON(w, http.StatusOK, h.tracker.Status())
	case "save":
		path, err := h.tracker.SaveBest()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, saveResponse{Path: path})
	default:
		writeError(w, http.StatusNotFound, "Unknown action")
	}
}
