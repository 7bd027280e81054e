package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Trace sessions - one per recorded run
		`CREATE TABLE IF NOT EXISTS trace_sessions (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL DEFAULT '',
			frames INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Trace frames - the tracked keypoints and classifier output per frame
		`CREATE TABLE IF NOT EXISTS trace_frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES trace_sessions(id) ON DELETE CASCADE,
			frame_index INTEGER NOT NULL,
			has_hand INTEGER NOT NULL,
			wrist_x REAL NOT NULL DEFAULT 0,
			wrist_y REAL NOT NULL DEFAULT 0,
			thumb_x REAL NOT NULL DEFAULT 0,
			thumb_y REAL NOT NULL DEFAULT 0,
			index_x REAL NOT NULL DEFAULT 0,
			index_y REAL NOT NULL DEFAULT 0,
			direction TEXT NOT NULL DEFAULT 'NONE',
			pinch INTEGER NOT NULL DEFAULT 0,
			UNIQUE(session_id, frame_index)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_trace_frames_session_id ON trace_frames(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
