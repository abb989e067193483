package store

import "fmt"

func (s *Store) migrate() error {
	var migrations []string

	if s.driver == "postgres" {
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS email_batches (
				id TEXT PRIMARY KEY,
				holiday_name TEXT NOT NULL,
				tone TEXT NOT NULL DEFAULT '',
				audience_type TEXT NOT NULL DEFAULT '',
				language TEXT NOT NULL DEFAULT '',
				sender_name TEXT NOT NULL,
				status TEXT NOT NULL,
				error_message TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,

			`CREATE TABLE IF NOT EXISTS batch_recipients (
				batch_id TEXT NOT NULL REFERENCES email_batches(id) ON DELETE CASCADE,
				position INTEGER NOT NULL,
				email TEXT NOT NULL,
				PRIMARY KEY (batch_id, position)
			)`,

			`CREATE INDEX IF NOT EXISTS idx_email_batches_status ON email_batches(status)`,
			`CREATE INDEX IF NOT EXISTS idx_email_batches_created_at ON email_batches(created_at)`,
		}
	} else {
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS email_batches (
				id TEXT PRIMARY KEY,
				holiday_name TEXT NOT NULL,
				tone TEXT NOT NULL DEFAULT '',
				audience_type TEXT NOT NULL DEFAULT '',
				language TEXT NOT NULL DEFAULT '',
				sender_name TEXT NOT NULL,
				status TEXT NOT NULL,
				error_message TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,

			`CREATE TABLE IF NOT EXISTS batch_recipients (
				batch_id TEXT NOT NULL REFERENCES email_batches(id) ON DELETE CASCADE,
				position INTEGER NOT NULL,
				email TEXT NOT NULL,
				PRIMARY KEY (batch_id, position)
			)`,

			`CREATE INDEX IF NOT EXISTS idx_email_batches_status ON email_batches(status)`,
			`CREATE INDEX IF NOT EXISTS idx_email_batches_created_at ON email_batches(created_at)`,
		}
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
