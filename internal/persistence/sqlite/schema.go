package sqlite

import (
	"context"
	"fmt"
)

// schemaStatements create the planner tables. Statements are idempotent so
// Migrate can run on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		profile_image_url TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		is_admin INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		time_zone TEXT NOT NULL,
		ical_url TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_shares (
		schedule_id TEXT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		PRIMARY KEY (schedule_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_phases (
		id TEXT PRIMARY KEY,
		schedule_id TEXT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_entries (
		id TEXT PRIMARY KEY,
		phase_id TEXT NOT NULL REFERENCES schedule_phases(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
		start_time_minutes INTEGER NOT NULL CHECK (start_time_minutes BETWEEN 0 AND 1439),
		duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0 AND duration_minutes % 15 = 0),
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_overrides (
		id TEXT PRIMARY KEY,
		schedule_id TEXT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('SKIP', 'MODIFY', 'ONE_TIME')),
		base_entry_id TEXT NOT NULL DEFAULT '',
		data BLOB,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_overrides_schedule_date ON schedule_overrides(schedule_id, date)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_overrides_entry_date ON schedule_overrides(schedule_id, date, base_entry_id) WHERE base_entry_id != ''`,
	`CREATE INDEX IF NOT EXISTS idx_overrides_base_entry ON schedule_overrides(base_entry_id) WHERE base_entry_id != ''`,
	`CREATE INDEX IF NOT EXISTS idx_phases_schedule ON schedule_phases(schedule_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_phase ON schedule_entries(phase_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token)`,
}

// Migrate creates any missing tables and indexes.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	for _, statement := range schemaStatements {
		if _, err := pool.DB().ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}
