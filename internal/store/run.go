package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Run is one optimizer session against a model and reference image.
type Run struct {
	ID           string    `json:"id"`
	Model        string    `json:"model"`
	Reference    string    `json:"reference"`
	Mode         string    `json:"mode"`
	Parameters   []string  `json:"parameters"`
	BestError    *float64  `json:"best_error,omitempty"`
	Steps        int       `json:"steps"`
	Improvements int       `json:"improvements"`
	Resets       int       `json:"resets"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RunRepository provides CRUD operations for runs.
type RunRepository struct {
	db *sql.DB
}

// Runs returns the run repository for this store.
func (s *Store) Runs() *RunRepository {
	return &RunRepository{db: s.db}
}

const runColumns = `id, model, reference, mode, parameters, best_error, steps, improvements, resets, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	r := &Run{}
	var (
		params string
		best   sql.NullFloat64
	)
	err := row.Scan(&r.ID, &r.Model, &r.Reference, &r.Mode, &params, &best,
		&r.Steps, &r.Improvements, &r.Resets, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if best.Valid {
		r.BestError = &best.Float64
	}
	if err := json.Unmarshal([]byte(params), &r.Parameters); err != nil {
		return nil, err
	}
	return r, nil
}

// Create inserts a new run.
func (r *RunRepository) Create(run *Run) error {
	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now

	params, err := json.Marshal(run.Parameters)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Model, run.Reference, run.Mode, string(params), run.BestError,
		run.Steps, run.Improvements, run.Resets, run.CreatedAt, run.UpdatedAt,
	)
	return err
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(id string) (*Run, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return run, nil
}

// List retrieves all runs, newest first.
func (r *RunRepository) List() ([]*Run, error) {
	rows, err := r.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// UpdateProgress stores the latest counters and best error of a run.
func (r *RunRepository) UpdateProgress(run *Run) error {
	run.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE runs SET best_error = ?, steps = ?, improvements = ?, resets = ?, updated_at = ?
		 WHERE id = ?`,
		run.BestError, run.Steps, run.Improvements, run.Resets, run.UpdatedAt, run.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// Delete removes a run and its snapshots.
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

func expectOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
