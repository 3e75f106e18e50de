package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/store"
)

func TestAPI_RunWorkflow(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	run := &store.Run{ID: "run-1", Model: "hand.glb", Reference: "ref.png", Mode: "global", Parameters: []string{"a.x"}}
	if err := s.Runs().Create(run); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for i, e := range []float64{0.4, 0.2} {
		if err := s.Snapshots().Add(&store.Snapshot{RunID: run.ID, Step: i, Error: e, Values: []float64{e}}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	srv := New(Config{Store: s, Tracker: &fakeTracker{}})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. List runs
	resp, err := client.Get(ts.URL + "/api/runs")
	if err != nil {
		t.Fatalf("GET /api/runs error = %v", err)
	}
	var listed struct {
		Runs []struct {
			ID string `json:"id"`
		} `json:"runs"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed.Runs) != 1 || listed.Runs[0].ID != "run-1" {
		t.Fatalf("listed runs = %+v, want run-1", listed.Runs)
	}

	// 2. Latest snapshot
	resp, _ = client.Get(ts.URL + "/api/runs/run-1/snapshots?limit=1")
	var snaps struct {
		Snapshots []struct {
			Error float64 `json:"error"`
		} `json:"snapshots"`
	}
	json.NewDecoder(resp.Body).Decode(&snaps)
	resp.Body.Close()
	if len(snaps.Snapshots) != 1 || snaps.Snapshots[0].Error != 0.2 {
		t.Errorf("latest snapshot = %+v, want error 0.2", snaps.Snapshots)
	}

	// 3. Live status
	resp, _ = client.Get(ts.URL + "/api/tracker")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /api/tracker status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	// 4. Delete
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/runs/run-1", nil)
	resp, _ = client.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	resp, _ = client.Get(ts.URL + "/api/runs/run-1")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
