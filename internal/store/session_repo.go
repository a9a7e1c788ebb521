package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"go.uber.org/zap"

	"github.com/abhisek/cefrplace/internal/placement"
	"github.com/abhisek/cefrplace/internal/session"
)

// Session statuses.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

var sessionColumns = []string{
	"id", "mode", "skills", "question_order", "raw_scores",
	"status", "result", "version", "started_at", "updated_at", "completed_at",
}

// SessionRecord is a stored session with its bookkeeping fields.
type SessionRecord struct {
	Session *session.Session
	Status  string

	// Result is set once the session is completed.
	Result *placement.Result

	// Version increments on every save and guards against lost updates.
	Version int

	StartedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt time.Time
}

// SessionRepo persists test sessions.
type SessionRepo struct {
	drv *entsql.Driver
	log *zap.Logger
}

// Create stores a new in-progress session.
func (r *SessionRepo) Create(ctx context.Context, s *session.Session) (*SessionRecord, error) {
	skills, order, scores, err := encodeSession(s)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	query, args := builder().Insert(sessionsTable).
		Columns("id", "mode", "skills", "question_order", "raw_scores", "status", "version", "started_at", "updated_at").
		Values(s.ID, string(s.Mode), skills, order, scores, StatusInProgress, 1, formatTime(now), formatTime(now)).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return nil, fmt.Errorf("create session %s: %w", s.ID, err)
	}

	r.log.Debug("session created", zap.String("session_id", s.ID), zap.Int("slots", len(s.Order)))
	return &SessionRecord{
		Session:   s.Clone(),
		Status:    StatusInProgress,
		Version:   1,
		StartedAt: now,
		UpdatedAt: now,
	}, nil
}

// Get loads a session, or returns ErrNotFound.
func (r *SessionRepo) Get(ctx context.Context, id string) (*SessionRecord, error) {
	query, args := builder().Select(sessionColumns...).
		From(entsql.Table(sessionsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	recs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return recs[0], nil
}

// List returns sessions, most recently started first.
func (r *SessionRepo) List(ctx context.Context, opts QueryOpts) ([]*SessionRecord, error) {
	sel := builder().Select(sessionColumns...).
		From(entsql.Table(sessionsTable)).
		OrderBy(entsql.Desc("started_at"), entsql.Desc("id"))
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	recs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return recs, nil
}

// Save writes the session's order and raw scores. It fails with ErrConflict
// if the stored version no longer matches rec.Version. On success rec.Version
// is advanced.
func (r *SessionRepo) Save(ctx context.Context, rec *SessionRecord) error {
	return r.update(ctx, rec, rec.Status, nil)
}

// Complete stores the final result and marks the session completed.
func (r *SessionRepo) Complete(ctx context.Context, rec *SessionRecord, result placement.Result) error {
	if err := r.update(ctx, rec, StatusCompleted, &result); err != nil {
		return err
	}
	r.log.Info("session completed",
		zap.String("session_id", rec.Session.ID),
		zap.Stringer("level", result.Level),
		zap.Float64("confidence", result.Confidence),
	)
	return nil
}

func (r *SessionRepo) update(ctx context.Context, rec *SessionRecord, status string, result *placement.Result) error {
	_, order, scores, err := encodeSession(rec.Session)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	upd := builder().Update(sessionsTable).
		Set("question_order", order).
		Set("raw_scores", scores).
		Set("status", status).
		Set("updated_at", formatTime(now)).
		Add("version", 1)
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		upd = upd.Set("result", string(b)).Set("completed_at", formatTime(now))
	}
	query, args := upd.Where(entsql.And(
		entsql.EQ("id", rec.Session.ID),
		entsql.EQ("version", rec.Version),
	)).Query()

	n, err := execAffected(ctx, r.drv, query, args)
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.Session.ID, err)
	}
	if n == 0 {
		if _, err := r.Get(ctx, rec.Session.ID); err != nil {
			return err
		}
		r.log.Warn("session version conflict",
			zap.String("session_id", rec.Session.ID),
			zap.Int("version", rec.Version),
		)
		return fmt.Errorf("session %s at version %d: %w", rec.Session.ID, rec.Version, ErrConflict)
	}

	rec.Version++
	rec.Status = status
	rec.UpdatedAt = now
	if result != nil {
		res := *result
		rec.Result = &res
		rec.CompletedAt = now
	}
	return nil
}

func (r *SessionRepo) query(ctx context.Context, query string, args []any) ([]*SessionRecord, error) {
	var out []*SessionRecord
	err := queryRows(ctx, r.drv, query, args, func(rows *entsql.Rows) error {
		var (
			id, mode, skills, order, scores string
			status, result                  string
			version                         int
			started, updated, completed     string
		)
		if err := rows.Scan(&id, &mode, &skills, &order, &scores,
			&status, &result, &version, &started, &updated, &completed); err != nil {
			return err
		}

		s := &session.Session{ID: id, Mode: session.Mode(mode)}
		if err := json.Unmarshal([]byte(skills), &s.SkillsTested); err != nil {
			return fmt.Errorf("decode skills of %s: %w", id, err)
		}
		if err := json.Unmarshal([]byte(order), &s.Order); err != nil {
			return fmt.Errorf("decode order of %s: %w", id, err)
		}
		if err := json.Unmarshal([]byte(scores), &s.Scores); err != nil {
			return fmt.Errorf("decode scores of %s: %w", id, err)
		}

		rec := &SessionRecord{Session: s, Status: status, Version: version}
		if result != "" {
			rec.Result = &placement.Result{}
			if err := json.Unmarshal([]byte(result), rec.Result); err != nil {
				return fmt.Errorf("decode result of %s: %w", id, err)
			}
		}

		var err error
		if rec.StartedAt, err = parseTime(started); err != nil {
			return fmt.Errorf("parse started_at of %s: %w", id, err)
		}
		if rec.UpdatedAt, err = parseTime(updated); err != nil {
			return fmt.Errorf("parse updated_at of %s: %w", id, err)
		}
		if rec.CompletedAt, err = parseTime(completed); err != nil {
			return fmt.Errorf("parse completed_at of %s: %w", id, err)
		}

		out = append(out, rec)
		return nil
	})
	return out, err
}

// encodeSession marshals the JSON columns of a session.
func encodeSession(s *session.Session) (skills, order, scores string, err error) {
	b, err := json.Marshal(s.SkillsTested)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal skills: %w", err)
	}
	skills = string(b)

	if b, err = json.Marshal(s.Order); err != nil {
		return "", "", "", fmt.Errorf("marshal order: %w", err)
	}
	order = string(b)

	if b, err = json.Marshal(s.Scores); err != nil {
		return "", "", "", fmt.Errorf("marshal scores: %w", err)
	}
	scores = string(b)
	return skills, order, scores, nil
}
