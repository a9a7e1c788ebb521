package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// Table names.
const (
	questionsTable    = "questions"
	sessionsTable     = "sessions"
	answerEventsTable = "answer_events"
)

// migrations are applied in order on every Open. Each statement must be
// idempotent, and the columns must match the ent schemas in ent/schema.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL DEFAULT '',
		skill TEXT NOT NULL,
		level INTEGER NOT NULL,
		type TEXT NOT NULL,
		difficulty_rating REAL NOT NULL DEFAULT 0.5,
		discrimination_index REAL NOT NULL DEFAULT 0,
		max_points INTEGER NOT NULL DEFAULT 1,
		correct_answer TEXT NOT NULL DEFAULT '',
		prompt TEXT NOT NULL DEFAULT '',
		options TEXT NOT NULL DEFAULT '[]',
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS questions_skill_level ON questions (skill, level)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		skills TEXT NOT NULL,
		question_order TEXT NOT NULL,
		raw_scores TEXT NOT NULL,
		status TEXT NOT NULL,
		result TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		started_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		completed_at TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS answer_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL UNIQUE,
		timestamp TEXT NOT NULL,
		session_id TEXT NOT NULL REFERENCES sessions (id) ON DELETE CASCADE,
		slot INTEGER NOT NULL,
		question_id TEXT NOT NULL,
		skill TEXT NOT NULL,
		answer TEXT NOT NULL,
		is_correct INTEGER,
		points_earned INTEGER NOT NULL,
		needs_review INTEGER NOT NULL,
		time_spent_seconds INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS answer_events_session ON answer_events (session_id, sequence)`,
}

func migrate(ctx context.Context, drv *entsql.Driver) error {
	for i, stmt := range migrations {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
