package store

import (
	"errors"
	"testing"
)

func TestSnapshotRepository(t *testing.T) {
	s := newTestStore(t)
	run := newRun()
	if err := s.Runs().Create(run); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	repo := s.Snapshots()

	if _, err := repo.Latest(run.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Latest() on empty run error = %v, want ErrNotFound", err)
	}

	for i, e := range []float64{0.5, 0.25, 0.125} {
		snap := &Snapshot{
			RunID:      run.ID,
			Step:       i * 10,
			Error:      e,
			Values:     []float64{float64(i), -float64(i)},
			BoneErrors: map[string]float64{"index_01_r": e},
		}
		if err := repo.Add(snap); err != nil {
			t.Fatalf("Add() failed: %v", err)
		}
		if snap.ID == 0 {
			t.Error("Add() should set the snapshot ID")
		}
	}

	all, err := repo.ListByRun(run.ID, 0)
	if err != nil {
		t.Fatalf("ListByRun() failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListByRun() returned %d, want 3", len(all))
	}
	if all[0].Error != 0.5 || all[2].Error != 0.125 {
		t.Errorf("ListByRun() order = %v, %v, want oldest first", all[0].Error, all[2].Error)
	}

	recent, err := repo.ListByRun(run.ID, 2)
	if err != nil {
		t.Fatalf("ListByRun(limit) failed: %v", err)
	}
	if len(recent) != 2 || recent[0].Step != 10 || recent[1].Step != 20 {
		t.Errorf("ListByRun(limit 2) = %+v, want steps 10 and 20", recent)
	}

	latest, err := repo.Latest(run.ID)
	if err != nil {
		t.Fatalf("Latest() failed: %v", err)
	}
	if latest.Error != 0.125 || latest.Values[1] != -2 || latest.BoneErrors["index_01_r"] != 0.125 {
		t.Errorf("Latest() = %+v", latest)
	}
}

func TestSnapshotRepository_RequiresRun(t *testing.T) {
	s := newTestStore(t)
	err := s.Snapshots().Add(&Snapshot{RunID: "missing", Values: []float64{}})
	if err == nil {
		t.Error("Add() for a missing run should violate the foreign key")
	}
}
