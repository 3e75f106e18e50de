package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/server/api"
)

// StatusInterval is how often search status is pushed to websocket clients.
const StatusInterval = 100 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StatusHandler broadcasts the live search status, including the per
// parameter error table, to websocket clients.
type StatusHandler struct {
	tracker api.Tracker
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	// writeMu serializes writes; a websocket connection allows one writer.
	writeMu sync.Mutex
}

// NewStatusHandler creates a StatusHandler and starts its broadcaster.
func NewStatusHandler(t api.Tracker) *StatusHandler {
	h := &StatusHandler{
		tracker: t,
		clients: make(map[*websocket.Conn]bool),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *StatusHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast sends the status to all connected clients.
func (h *StatusHandler) broadcast() {
	ticker := time.NewTicker(StatusInterval)
	defer ticker.Stop()

	for range ticker.C {
		if h.Clients() == 0 {
			continue
		}

		msg, err := json.Marshal(map[string]any{
			"status":    h.tracker.Status(),
			"timestamp": time.Now().UnixMilli(),
		})
		if err != nil {
			log.Printf("status encode error: %v", err)
			continue
		}

		h.mu.RLock()
		h.writeMu.Lock()
		for conn := range h.clients {
			conn.WriteMessage(websocket.TextMessage, msg)
		}
		h.writeMu.Unlock()
		h.mu.RUnlock()
	}
}
