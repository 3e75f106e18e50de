package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Snapshot is a best pose recorded during a run.
type Snapshot struct {
	ID         int64              `json:"id"`
	RunID      string             `json:"run_id"`
	Step       int                `json:"step"`
	Error      float64            `json:"error"`
	Values     []float64          `json:"values"`
	BoneErrors map[string]float64 `json:"bone_errors,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// SnapshotRepository stores snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// Snapshots returns the snapshot repository for this store.
func (s *Store) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{db: s.db}
}

// Add inserts a snapshot and sets its ID.
func (r *SnapshotRepository) Add(s *Snapshot) error {
	values, err := json.Marshal(s.Values)
	if err != nil {
		return err
	}
	bones, err := json.Marshal(s.BoneErrors)
	if err != nil {
		return err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO snapshots (run_id, step, error, pose_values, bone_errors, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.RunID, s.Step, s.Error, string(values), string(bones), s.CreatedAt,
	)
	if err != nil {
		return err
	}
	s.ID, err = result.LastInsertId()
	return err
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	s := &Snapshot{}
	var values, bones string
	if err := row.Scan(&s.ID, &s.RunID, &s.Step, &s.Error, &values, &bones, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(values), &s.Values); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(bones), &s.BoneErrors); err != nil {
		return nil, err
	}
	return s, nil
}

// ListByRun returns a run's snapshots in recording order. A positive limit
// keeps only the most recent ones.
func (r *SnapshotRepository) ListByRun(runID string, limit int) ([]*Snapshot, error) {
	query := `SELECT id, run_id, step, error, pose_values, bone_errors, created_at
		 FROM snapshots WHERE run_id = ? ORDER BY id`
	args := []any{runID}
	if limit > 0 {
		query = `SELECT * FROM (SELECT id, run_id, step, error, pose_values, bone_errors, created_at
			 FROM snapshots WHERE run_id = ? ORDER BY id DESC LIMIT ?) ORDER BY id`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// Latest returns the most recent snapshot of a run.
func (r *SnapshotRepository) Latest(runID string) (*Snapshot, error) {
	s, err := scanSnapshot(r.db.QueryRow(
		`SELECT id, run_id, step, error, pose_values, bone_errors, created_at
		 FROM snapshots WHERE run_id = ? ORDER BY id DESC LIMIT 1`,
		runID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}
