package store

// runMigrations creates the schema if it does not exist.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per optimizer session
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			reference TEXT NOT NULL,
			mode TEXT NOT NULL CHECK(mode IN ('per-bone', 'global')),
			parameters TEXT NOT NULL DEFAULT '[]',
			best_error REAL,
			steps INTEGER NOT NULL DEFAULT 0,
			improvements INTEGER NOT NULL DEFAULT 0,
			resets INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Best pose history, one row per improvement
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			step INTEGER NOT NULL,
			error REAL NOT NULL,
			pose_values TEXT NOT NULL,
			bone_errors TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_snapshots_run_id ON snapshots(run_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}
