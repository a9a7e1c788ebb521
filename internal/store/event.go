package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/cefrplace/internal/cefr"
)

// sequenceCounter hands out a global monotonic sequence number for the
// answer log, so events keep their order even when timestamps collide.
//
// Uses raw SQL because the counter needs an atomic increment. The mutex
// serializes within the process; the RETURNING clause makes the increment
// atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// AnswerEvent is one submitted answer as recorded in the log.
type AnswerEvent struct {
	Sequence         int64
	Timestamp        time.Time
	SessionID        string
	Slot             int
	QuestionID       string
	Skill            cefr.Skill
	Answer           string
	IsCorrect        *bool // nil while awaiting manual review
	PointsEarned     int
	NeedsReview      bool
	TimeSpentSeconds int
}

// AnswerLog is the append-only record of every answer submitted.
type AnswerLog struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

// Append stores an event and returns its sequence number. A zero timestamp
// is set to now.
func (l *AnswerLog) Append(ctx context.Context, ev AnswerEvent) (int64, error) {
	seqNum, err := l.seq.Next(ctx)
	if err != nil {
		return 0, err
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	var correct any
	if ev.IsCorrect != nil {
		correct = *ev.IsCorrect
	}

	query, args := builder().Insert(answerEventsTable).
		Columns("sequence", "timestamp", "session_id", "slot", "question_id", "skill",
			"answer", "is_correct", "points_earned", "needs_review", "time_spent_seconds").
		Values(seqNum, formatTime(ev.Timestamp), ev.SessionID, ev.Slot, ev.QuestionID, string(ev.Skill),
			ev.Answer, correct, ev.PointsEarned, ev.NeedsReview, ev.TimeSpentSeconds).
		Query()
	if err := l.drv.Exec(ctx, query, args, nil); err != nil {
		return 0, fmt.Errorf("save answer event: %w", err)
	}
	return seqNum, nil
}

// BySession returns a session's events in sequence order.
func (l *AnswerLog) BySession(ctx context.Context, sessionID string) ([]AnswerEvent, error) {
	query, args := builder().Select("sequence", "timestamp", "session_id", "slot", "question_id", "skill",
		"answer", "is_correct", "points_earned", "needs_review", "time_spent_seconds").
		From(entsql.Table(answerEventsTable)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("sequence").
		Query()

	var out []AnswerEvent
	err := queryRows(ctx, l.drv, query, args, func(rows *entsql.Rows) error {
		var (
			ev      AnswerEvent
			ts      string
			skill   string
			correct sql.NullBool
		)
		if err := rows.Scan(&ev.Sequence, &ts, &ev.SessionID, &ev.Slot, &ev.QuestionID, &skill,
			&ev.Answer, &correct, &ev.PointsEarned, &ev.NeedsReview, &ev.TimeSpentSeconds); err != nil {
			return err
		}
		t, err := parseTime(ts)
		if err != nil {
			return fmt.Errorf("parse timestamp: %w", err)
		}
		ev.Timestamp = t
		ev.Skill = cefr.Skill(skill)
		if correct.Valid {
			c := correct.Bool
			ev.IsCorrect = &c
		}
		out = append(out, ev)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query answer events: %w", err)
	}
	return out, nil
}
