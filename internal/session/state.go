package session

import (
	"context"
	"slices"

	"github.com/abhisek/cefrplace/internal/cefr"
	"github.com/abhisek/cefrplace/internal/question"
)

// PoolProvider supplies candidate questions. Implementations do the I/O;
// nothing in this package stores or fetches data on its own.
type PoolProvider interface {
	// QuestionsBySkillAndLevel returns the skill's questions at any of the
	// given levels, leaving out the excluded question types.
	QuestionsBySkillAndLevel(ctx context.Context, skill cefr.Skill, levels []cefr.Level, excludeTypes []question.Type) ([]question.Question, error)

	// QuestionByID returns a single question.
	QuestionByID(ctx context.Context, id string) (*question.Question, error)
}

// Session is the persisted state of one placement test. The caller owns
// storage and must serialize answer submissions per session.
type Session struct {
	ID           string       `json:"id"`
	Mode         Mode         `json:"test_mode"`
	SkillsTested []cefr.Skill `json:"skills_tested"`
	Order        []OrderEntry `json:"question_order"`
	Scores       RawScores    `json:"raw_scores"`
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	c := *s
	c.SkillsTested = slices.Clone(s.SkillsTested)
	c.Order = cloneOrder(s.Order)
	c.Scores = s.Scores.Clone()
	return &c
}

// CurrentIndex returns the first unanswered slot, or -1 when the test is done.
func (s *Session) CurrentIndex() int {
	return nextUnanswered(s.Order, -1, "")
}

// Complete reports whether every slot has been answered.
func (s *Session) Complete() bool {
	return s.CurrentIndex() < 0
}
