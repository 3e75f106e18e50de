package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func getHealth(t *testing.T, s *Server) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("health Content-Type = %q", ct)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	return body
}

func TestServer_Health(t *testing.T) {
	t.Run("without tracker", func(t *testing.T) {
		body := getHealth(t, New(Config{}))
		if body["status"] != "ok" {
			t.Errorf("status = %v, want ok", body["status"])
		}
		if _, ok := body["searching"]; ok {
			t.Errorf("health reports searching without a tracker: %v", body)
		}
	})

	t.Run("with tracker", func(t *testing.T) {
		tr := &fakeTracker{}
		s := New(Config{Tracker: tr})
		if got := getHealth(t, s)["searching"]; got != false {
			t.Errorf("searching = %v, want false", got)
		}
		tr.SetEnabled(true)
		if got := getHealth(t, s)["searching"]; got != true {
			t.Errorf("searching = %v, want true", got)
		}
	})

	t.Run("rejects writes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(Config{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/health", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}

func TestServer_TrackerRoutesNeedTracker(t *testing.T) {
	paths := []string{"/api/tracker", "/api/tracker/enable", "/api/stream", "/api/overlay"}

	without := New(Config{})
	with := New(Config{Tracker: &fakeTracker{}})
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if _, pattern := without.mux.Handler(req); pattern != "" {
				t.Errorf("without tracker %s matched %q", path, pattern)
			}
			if _, pattern := with.mux.Handler(req); pattern == "" {
				t.Errorf("with tracker %s is not registered", path)
			}
		})
	}
}

func TestServer_StaticDir(t *testing.T) {
	dir := t.TempDir()
	page := "<html><body>mudra</body></html>"
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(page), 0o644); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}

	tests := []struct {
		name     string
		config   Config
		path     string
		wantCode int
	}{
		{"index", Config{StaticDir: dir}, "/", http.StatusOK},
		{"missing file", Config{StaticDir: dir}, "/reference.png", http.StatusNotFound},
		{"no static dir", Config{}, "/", http.StatusNotFound},
		{"unknown api", Config{Tracker: &fakeTracker{}}, "/api/poses", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			New(tt.config).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("GET %s status = %d, want %d", tt.path, rec.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK && rec.Body.String() != page {
				t.Errorf("body = %q, want %q", rec.Body.String(), page)
			}
		})
	}
}
