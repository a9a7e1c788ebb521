package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/cefrplace/internal/cefr"
	"github.com/abhisek/cefrplace/internal/question"
)

var questionColumns = []string{
	"id", "code", "skill", "level", "type",
	"difficulty_rating", "discrimination_index", "max_points",
	"correct_answer", "prompt", "options",
}

// QuestionRepo stores the question bank. It implements session.PoolProvider.
type QuestionRepo struct {
	drv *entsql.Driver
}

// Upsert inserts questions, replacing any with the same ID.
func (r *QuestionRepo) Upsert(ctx context.Context, qs []question.Question) error {
	if len(qs) == 0 {
		return nil
	}
	now := formatTime(time.Now())

	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	for i := range qs {
		q := &qs[i]
		opts, err := json.Marshal(nonNil(q.Options))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshal options for %s: %w", q.ID, err)
		}

		query, args := builder().Insert(questionsTable).
			Columns(append(questionColumns, "updated_at")...).
			Values(q.ID, q.Code, string(q.Skill), q.Level.Index(), string(q.Type),
				q.DifficultyRating, q.DiscriminationIndex, q.MaxPoints,
				q.CorrectAnswer, q.Prompt, string(opts), now).
			OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
			Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert question %s: %w", q.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// List returns questions ordered by skill, level and ID. An empty skill lists
// every skill.
func (r *QuestionRepo) List(ctx context.Context, skill cefr.Skill, opts QueryOpts) ([]question.Question, error) {
	sel := builder().Select(questionColumns...).From(entsql.Table(questionsTable))
	if skill != "" {
		sel = sel.Where(entsql.EQ("skill", string(skill)))
	}
	sel = sel.OrderBy("skill", "level", "id")
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	qs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return qs, nil
}

// Count returns the number of questions per skill.
func (r *QuestionRepo) Count(ctx context.Context) (map[cefr.Skill]int, error) {
	query, args := builder().Select("skill", entsql.Count("*")).
		From(entsql.Table(questionsTable)).
		GroupBy("skill").
		Query()

	counts := make(map[cefr.Skill]int)
	err := queryRows(ctx, r.drv, query, args, func(rows *entsql.Rows) error {
		var skill string
		var n int
		if err := rows.Scan(&skill, &n); err != nil {
			return err
		}
		counts[cefr.Skill(skill)] = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	return counts, nil
}

// QuestionsBySkillAndLevel returns the skill's questions at the given levels,
// leaving out excluded types.
func (r *QuestionRepo) QuestionsBySkillAndLevel(ctx context.Context, skill cefr.Skill, levels []cefr.Level, excludeTypes []question.Type) ([]question.Question, error) {
	if len(levels) == 0 {
		return nil, nil
	}

	levelArgs := make([]any, len(levels))
	for i, l := range levels {
		levelArgs[i] = l.Index()
	}
	preds := []*entsql.Predicate{
		entsql.EQ("skill", string(skill)),
		entsql.In("level", levelArgs...),
	}
	if len(excludeTypes) > 0 {
		typeArgs := make([]any, len(excludeTypes))
		for i, t := range excludeTypes {
			typeArgs[i] = string(t)
		}
		preds = append(preds, entsql.NotIn("type", typeArgs...))
	}

	query, args := builder().Select(questionColumns...).
		From(entsql.Table(questionsTable)).
		Where(entsql.And(preds...)).
		OrderBy("id").
		Query()

	qs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query %s pool: %w", skill, err)
	}
	return qs, nil
}

// QuestionByID returns one question, or ErrNotFound.
func (r *QuestionRepo) QuestionByID(ctx context.Context, id string) (*question.Question, error) {
	query, args := builder().Select(questionColumns...).
		From(entsql.Table(questionsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	qs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query question %s: %w", id, err)
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	return &qs[0], nil
}

func (r *QuestionRepo) query(ctx context.Context, query string, args []any) ([]question.Question, error) {
	var out []question.Question
	err := queryRows(ctx, r.drv, query, args, func(rows *entsql.Rows) error {
		var (
			q          question.Question
			skill, typ string
			level      int
			opts       string
		)
		if err := rows.Scan(&q.ID, &q.Code, &skill, &level, &typ,
			&q.DifficultyRating, &q.DiscriminationIndex, &q.MaxPoints,
			&q.CorrectAnswer, &q.Prompt, &opts); err != nil {
			return err
		}
		q.Skill = cefr.Skill(skill)
		q.Level = cefr.Level(level)
		q.Type = question.Type(typ)
		if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
			return fmt.Errorf("decode options for %s: %w", q.ID, err)
		}
		if len(q.Options) == 0 {
			q.Options = nil
		}
		out = append(out, q)
		return nil
	})
	return out, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
