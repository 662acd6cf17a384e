package store

// migrate creates the schema. Statements are idempotent.
func (s *Store) migrate() error {
	migrations := []string{
		// One plugin action per signal.
		`CREATE TABLE IF NOT EXISTS bindings (
			signal TEXT PRIMARY KEY CHECK(signal IN ('scroll_up', 'scroll_down', 'tap')),
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		// Every signal that made it through the gate.
		`CREATE TABLE IF NOT EXISTS signal_events (
			id TEXT PRIMARY KEY,
			signal TEXT NOT NULL,
			plugin_name TEXT NOT NULL DEFAULT '',
			action_name TEXT NOT NULL DEFAULT '',
			delivered INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_events_created_at ON signal_events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_events_signal ON signal_events(signal)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
