package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/cefrplace/internal/adaptive"
	"github.com/abhisek/cefrplace/internal/cefr"
	"github.com/abhisek/cefrplace/internal/scoring"
	"github.com/abhisek/cefrplace/internal/selector"
)

var (
	// ErrIndexOutOfRange is returned for an answer to a slot that does not exist.
	ErrIndexOutOfRange = errors.New("question index out of range")

	// ErrAlreadyAnswered is returned for a second answer to the same slot.
	ErrAlreadyAnswered = errors.New("question already answered")
)

// AnswerInput is one submitted answer.
type AnswerInput struct {
	Index            int
	Answer           scoring.Answer
	TimeSpentSeconds int
}

// Replacement records a dynamic swap of an upcoming question.
type Replacement struct {
	Index         int        `json:"index"`
	OldQuestionID string     `json:"old_question_id"`
	NewQuestionID string     `json:"new_question_id"`
	NewLevel      cefr.Level `json:"new_level"`
}

// AnswerOutcome is the result of processing one answer.
type AnswerOutcome struct {
	QuestionID       string     `json:"question_id"`
	Skill            cefr.Skill `json:"skill_type"`
	IsCorrect        *bool      `json:"is_correct"`
	PointsEarned     int        `json:"points_earned"`
	NeedsReview      bool       `json:"needs_review"`
	TimeSpentSeconds int        `json:"time_spent_seconds"`

	// NextIndex is the next unanswered slot after this one, nil at the end.
	NextIndex *int `json:"next_index"`
	IsLast    bool `json:"is_last"`

	// Stabilized reports the skill's convergence signal. It is informational;
	// the test length does not change because of it.
	Stabilized bool `json:"stabilized"`

	Replacement *Replacement `json:"replacement,omitempty"`
}

// ProcessAnswer scores an answer and returns the updated session. The input
// session is left untouched.
//
// Auto-scored answers update the skill's raw scores and adaptive state, then
// re-select the question for the earliest unanswered slot of the same skill.
// Answers that need manual review only mark the slot answered.
func (o *Orchestrator) ProcessAnswer(ctx context.Context, sess *Session, in AnswerInput) (*Session, *AnswerOutcome, error) {
	if in.Index < 0 || in.Index >= len(sess.Order) {
		return nil, nil, fmt.Errorf("%w: %d (order has %d slots)", ErrIndexOutOfRange, in.Index, len(sess.Order))
	}
	if sess.Order[in.Index].Answered {
		return nil, nil, fmt.Errorf("%w: slot %d", ErrAlreadyAnswered, in.Index)
	}

	slot := sess.Order[in.Index]
	q, err := o.provider.QuestionByID(ctx, slot.QuestionID)
	if err != nil {
		return nil, nil, fmt.Errorf("load question %s: %w", slot.QuestionID, err)
	}

	next := sess.Clone()
	if next.Scores == nil {
		next.Scores = make(RawScores)
	}

	result := scoring.Score(q, in.Answer)
	outcome := &AnswerOutcome{
		QuestionID:       q.ID,
		Skill:            slot.Skill,
		IsCorrect:        result.IsCorrect,
		PointsEarned:     result.PointsEarned,
		NeedsReview:      result.NeedsReview,
		TimeSpentSeconds: in.TimeSpentSeconds,
	}

	if !result.NeedsReview {
		scores := next.Scores.Get(slot.Skill)
		state := adaptive.Update(scores.State, result.Correct(), q.Level, q.DifficultyRating)
		scores = scores.record(result.Correct(), result.PointsEarned, q.MaxPoints, state)
		next.Scores[slot.Skill] = scores
		outcome.Stabilized = state.Stabilized

		outcome.Replacement = o.replaceUpcoming(ctx, next, in.Index, slot.Skill, state)
	} else {
		outcome.Stabilized = next.Scores.Get(slot.Skill).Stabilized
	}

	next.Order[in.Index].Answered = true

	if ni := nextUnanswered(next.Order, in.Index, ""); ni >= 0 {
		outcome.NextIndex = &ni
	} else {
		outcome.IsLast = true
	}

	o.log.Debug("answer processed",
		zap.String("session_id", sess.ID),
		zap.Int("index", in.Index),
		zap.String("question_id", q.ID),
		zap.Bool("needs_review", result.NeedsReview),
		zap.Int("points", result.PointsEarned),
		zap.Float64("ability", next.Scores.Get(slot.Skill).AbilityEstimate),
	)
	return next, outcome, nil
}

// replaceUpcoming swaps the question in the earliest unanswered slot of skill
// after index for the closest match to the new ability estimate across every
// level of the skill's unplaced pool. It mutates only
// that slot of sess.Order. Failures leave the slot as it was.
func (o *Orchestrator) replaceUpcoming(ctx context.Context, sess *Session, index int, skill cefr.Skill, state adaptive.State) *Replacement {
	target := nextUnanswered(sess.Order, index, skill)
	if target < 0 {
		return nil
	}
	current := sess.Order[target].QuestionID

	exclude := make(map[string]bool, len(sess.Order))
	for i, e := range sess.Order {
		if i != target {
			exclude[e.QuestionID] = true
		}
	}

	pool, err := o.provider.QuestionsBySkillAndLevel(ctx, skill, cefr.Levels(), sess.Mode.ExcludedTypes())
	if err != nil {
		o.log.Warn("replacement pool unavailable, keeping upcoming question",
			zap.String("session_id", sess.ID),
			zap.String("skill", string(skill)),
			zap.Int("slot", target),
			zap.Error(err),
		)
		return nil
	}

	pick := selector.Next(pool, state, exclude)
	if pick == nil || pick.ID == current {
		return nil
	}

	sess.Order[target].QuestionID = pick.ID
	sess.Order[target].Level = pick.Level

	o.log.Debug("replaced upcoming question",
		zap.String("session_id", sess.ID),
		zap.Int("slot", target),
		zap.String("from", current),
		zap.String("to", pick.ID),
	)
	return &Replacement{
		Index:         target,
		OldQuestionID: current,
		NewQuestionID: pick.ID,
		NewLevel:      pick.Level,
	}
}
