package session

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/cefrplace/internal/adaptive"
	"github.com/abhisek/cefrplace/internal/cefr"
	"github.com/abhisek/cefrplace/internal/question"
	"github.com/abhisek/cefrplace/internal/scoring"
	"github.com/abhisek/cefrplace/internal/selector"
)

// mockProvider implements PoolProvider over an in-memory slice.
type mockProvider struct {
	questions []question.Question
	poolErr   error
	byIDErr   error
	poolCalls int
}

func (m *mockProvider) QuestionsBySkillAndLevel(_ context.Context, skill cefr.Skill, levels []cefr.Level, excludeTypes []question.Type) ([]question.Question, error) {
	m.poolCalls++
	if m.poolErr != nil {
		return nil, m.poolErr
	}
	wantLevel := make(map[cefr.Level]bool)
	for _, l := range levels {
		wantLevel[l] = true
	}
	skipType := make(map[question.Type]bool)
	for _, t := range excludeTypes {
		skipType[t] = true
	}
	var out []question.Question
	for _, q := range m.questions {
		if q.Skill == skill && wantLevel[q.Level] && !skipType[q.Type] {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *mockProvider) QuestionByID(_ context.Context, id string) (*question.Question, error) {
	if m.byIDErr != nil {
		return nil, m.byIDErr
	}
	for _, q := range m.questions {
		if q.ID == id {
			qq := q
			return &qq, nil
		}
	}
	return nil, fmt.Errorf("question %s not found", id)
}

func item(id string, skill cefr.Skill, level cefr.Level, typ question.Type, answer string) question.Question {
	return question.Question{
		ID:               id,
		Skill:            skill,
		Level:            level,
		Type:             typ,
		DifficultyRating: 0.5,
		MaxPoints:        1,
		CorrectAnswer:    answer,
	}
}

func readingPool() []question.Question {
	return []question.Question{
		item("r-a1", cefr.SkillReading, cefr.A1, question.TypeGapFill, "a"),
		item("r-a2-1", cefr.SkillReading, cefr.A2, question.TypeGapFill, "a"),
		item("r-a2-2", cefr.SkillReading, cefr.A2, question.TypeGapFill, "a"),
		item("r-a2-3", cefr.SkillReading, cefr.A2, question.TypeGapFill, "a"),
		item("r-b1", cefr.SkillReading, cefr.B1, question.TypeGapFill, "a"),
		item("r-b2", cefr.SkillReading, cefr.B2, question.TypeGapFill, "a"),
		item("r-c1", cefr.SkillReading, cefr.C1, question.TypeGapFill, "a"),
	}
}

func newSession(order ...OrderEntry) *Session {
	return &Session{
		ID:           "s1",
		Mode:         ModeFull,
		SkillsTested: []cefr.Skill{cefr.SkillReading, cefr.SkillWriting},
		Order:        order,
		Scores:       RawScores{},
	}
}

func slot(id string, skill cefr.Skill, level cefr.Level) OrderEntry {
	return OrderEntry{QuestionID: id, Skill: skill, Level: level}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Quick ")
	require.NoError(t, err)
	assert.Equal(t, ModeQuick, m)
	assert.Equal(t, []question.Type{question.TypeOpenResponse}, m.ExcludedTypes())
	assert.Equal(t, QuickQuestionsPerSkill, m.DefaultQuestionsPerSkill())

	m, err = ParseMode("full")
	require.NoError(t, err)
	assert.Empty(t, m.ExcludedTypes())
	assert.Equal(t, FullQuestionsPerSkill, m.DefaultQuestionsPerSkill())

	_, err = ParseMode("marathon")
	assert.Error(t, err)
}

func TestBuildInitialOrder(t *testing.T) {
	pool := append(readingPool(),
		item("l-a1", cefr.SkillListening, cefr.A1, question.TypeMultipleChoice, "x"),
		item("l-a2", cefr.SkillListening, cefr.A2, question.TypeMultipleChoice, "x"),
		item("l-b1", cefr.SkillListening, cefr.B1, question.TypeMultipleChoice, "x"),
		item("l-open", cefr.SkillListening, cefr.A2, question.TypeOpenResponse, ""),
	)
	o := NewOrchestrator(&mockProvider{questions: pool}, zaptest.NewLogger(t))

	order, err := o.BuildInitialOrder(context.Background(),
		[]cefr.Skill{cefr.SkillReading, cefr.SkillListening}, 3, ModeQuick)
	require.NoError(t, err)
	require.Len(t, order, 6)

	// Skills are concatenated, not interleaved.
	for i, e := range order {
		want := cefr.SkillReading
		if i >= 3 {
			want = cefr.SkillListening
		}
		assert.Equal(t, want, e.Skill, "slot %d", i)
		assert.False(t, e.Answered)
	}

	// The starting estimate sits nearest A2.
	assert.Equal(t, "r-a2-1", order[0].QuestionID)
	assert.Equal(t, cefr.A2, order[0].Level)

	seen := make(map[string]bool)
	for _, e := range order {
		assert.False(t, seen[e.QuestionID], "duplicate %s", e.QuestionID)
		seen[e.QuestionID] = true
		assert.NotEqual(t, "l-open", e.QuestionID, "quick mode must skip open_response")
	}
}

func TestBuildInitialOrder_PoolExhausted(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	o := NewOrchestrator(&mockProvider{questions: readingPool()}, zap.New(core))

	order, err := o.BuildInitialOrder(context.Background(), []cefr.Skill{cefr.SkillReading, cefr.SkillSpeaking}, 10, ModeFull)
	require.NoError(t, err)
	assert.Len(t, order, len(readingPool()))
	assert.Equal(t, 2, logs.FilterMessage("question pool exhausted").Len())
}

func TestNewSession_RepeatedSkills(t *testing.T) {
	o := NewOrchestrator(&mockProvider{questions: readingPool()}, nil)
	skills := []cefr.Skill{cefr.SkillReading, cefr.SkillReading}

	s, err := o.NewSession(context.Background(), "dup", ModeFull, skills, 2)
	require.NoError(t, err)
	assert.Equal(t, []cefr.Skill{cefr.SkillReading}, s.SkillsTested)
	require.Len(t, s.Order, 2)
	assert.NotEqual(t, s.Order[0].QuestionID, s.Order[1].QuestionID)
	assert.Equal(t, []cefr.Skill{cefr.SkillReading, cefr.SkillReading}, skills)
}

func TestBuildInitialOrder_Errors(t *testing.T) {
	o := NewOrchestrator(&mockProvider{poolErr: errors.New("db down")}, nil)
	_, err := o.BuildInitialOrder(context.Background(), []cefr.Skill{cefr.SkillReading}, 3, ModeFull)
	assert.ErrorContains(t, err, "db down")

	_, err = o.BuildInitialOrder(context.Background(), []cefr.Skill{cefr.SkillReading}, 0, ModeFull)
	assert.Error(t, err)
}

func TestNewSession(t *testing.T) {
	o := NewOrchestrator(&mockProvider{questions: readingPool()}, nil)

	s, err := o.NewSession(context.Background(), "abc", ModeQuick, []cefr.Skill{cefr.SkillReading}, 2)
	require.NoError(t, err)
	assert.Equal(t, "abc", s.ID)
	assert.Len(t, s.Order, 2)
	assert.Equal(t, 0, s.CurrentIndex())
	assert.False(t, s.Complete())
	assert.NotNil(t, s.Scores)
	assert.Empty(t, s.Scores, "no skill is scored before its first auto-scored answer")

	_, err = o.NewSession(context.Background(), "x", ModeQuick, []cefr.Skill{cefr.SkillSpeaking}, 2)
	assert.Error(t, err, "no questions for speaking")

	_, err = o.NewSession(context.Background(), "x", ModeQuick, nil, 2)
	assert.Error(t, err)
}

func TestProcessAnswer_InvalidSlot(t *testing.T) {
	o := NewOrchestrator(&mockProvider{questions: readingPool()}, nil)
	s := newSession(slot("r-a2-1", cefr.SkillReading, cefr.A2))

	_, _, err := o.ProcessAnswer(context.Background(), s, AnswerInput{Index: 1})
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, _, err = o.ProcessAnswer(context.Background(), s, AnswerInput{Index: -1})
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	s.Order[0].Answered = true
	_, _, err = o.ProcessAnswer(context.Background(), s, AnswerInput{Index: 0})
	assert.True(t, errors.Is(err, ErrAlreadyAnswered))
}

func TestProcessAnswer_QuestionLookupFails(t *testing.T) {
	o := NewOrchestrator(&mockProvider{byIDErr: errors.New("gone")}, nil)
	s := newSession(slot("r-a2-1", cefr.SkillReading, cefr.A2))

	_, _, err := o.ProcessAnswer(context.Background(), s, AnswerInput{Index: 0, Answer: scoring.Text("a")})
	assert.ErrorContains(t, err, "gone")
}

func TestProcessAnswer_CorrectAnswerReplacesUpcoming(t *testing.T) {
	o := NewOrchestrator(&mockProvider{questions: readingPool()}, zaptest.NewLogger(t))
	s := newSession(
		slot("r-a2-1", cefr.SkillReading, cefr.A2),
		slot("w-1", cefr.SkillWriting, cefr.B1),
		slot("r-a2-2", cefr.SkillReading, cefr.A2),
		slot("r-a2-3", cefr.SkillReading, cefr.A2),
	)
	before := s.Clone()

	next, out, err := o.ProcessAnswer(context.Background(), s, AnswerInput{
		Index:            0,
		Answer:           scoring.Text(" A "),
		TimeSpentSeconds: 12,
	})
	require.NoError(t, err)

	require.NotNil(t, out.IsCorrect)
	assert.True(t, *out.IsCorrect)
	assert.Equal(t, 1, out.PointsEarned)
	assert.Equal(t, 12, out.TimeSpentSeconds)
	assert.False(t, out.NeedsReview)
	require.NotNil(t, out.NextIndex)
	assert.Equal(t, 1, *out.NextIndex)
	assert.False(t, out.IsLast)

	rs := next.Scores[cefr.SkillReading]
	assert.Equal(t, 1, rs.Correct)
	assert.Equal(t, 1, rs.Total)
	assert.Equal(t, 1, rs.PointsEarned)
	assert.Equal(t, 1, rs.MaxPoints)
	assert.Equal(t, 1, rs.QuestionsAnswered)
	assert.Greater(t, rs.AbilityEstimate, adaptive.InitialAbility)
	assert.Equal(t, []bool{true}, rs.LastCorrect)

	// The estimate moved up into B2, so the next reading slot gets harder.
	require.NotNil(t, out.Replacement)
	assert.Equal(t, 2, out.Replacement.Index)
	assert.Equal(t, "r-a2-2", out.Replacement.OldQuestionID)
	assert.Equal(t, "r-b2", out.Replacement.NewQuestionID)
	assert.Equal(t, "r-b2", next.Order[2].QuestionID)
	assert.Equal(t, cefr.B2, next.Order[2].Level)

	// Only the earliest same-skill slot is touched.
	assert.Equal(t, before.Order[1], next.Order[1])
	assert.Equal(t, before.Order[3], next.Order[3])
	assert.True(t, next.Order[0].Answered)

	// The input session is unchanged.
	assert.True(t, reflect.DeepEqual(before, s), "input session was modified")
}

func TestProcessAnswer_IncorrectAnswerMovesDown(t *testing.T) {
	o := NewOrchestrator(&mockProvider{questions: readingPool()}, nil)
	s := newSession(
		slot("r-b1", cefr.SkillReading, cefr.B1),
		slot("r-c1", cefr.SkillReading, cefr.C1),
	)

	next, out, err := o.ProcessAnswer(context.Background(), s, AnswerInput{Index: 0, Answer: scoring.Text("wrong")})
	require.NoError(t, err)
	require.NotNil(t, out.IsCorrect)
	assert.False(t, *out.IsCorrect)
	assert.Equal(t, 0, out.PointsEarned)

	rs := next.Scores[cefr.SkillReading]
	assert.Equal(t, 0, rs.Correct)
	assert.Equal(t, 1, rs.Total)
	assert.Equal(t, 1, rs.MaxPoints)
	assert.Less(t, rs.AbilityEstimate, adaptive.InitialAbility)

	require.NotNil(t, out.Replacement)
	assert.Equal(t, 1, out.Replacement.Index)
	assert.NotEqual(t, "r-c1", next.Order[1].QuestionID)
	assert.Less(t, next.Order[1].Level, cefr.B1)
}

func TestProcessAnswer_ReviewDeferred(t *testing.T) {
	pool := append(readingPool(),
		item("w-1", cefr.SkillWriting, cefr.B1, question.TypeShortMessage, ""),
		item("w-2", cefr.SkillWriting, cefr.B2, question.TypeOpenResponse, ""),
		item("w-3", cefr.SkillWriting, cefr.A1, question.TypeOpenResponse, ""),
	)
	mp := &mockProvider{questions: pool}
	o := NewOrchestrator(mp, nil)
	s := newSession(
		slot("w-1", cefr.SkillWriting, cefr.B1),
		slot("w-2", cefr.SkillWriting, cefr.B2),
	)
	scoresBefore := s.Scores.Clone()

	next, out, err := o.ProcessAnswer(context.Background(), s, AnswerInput{Index: 0, Answer: scoring.Text("Dear Sam, ...")})
	require.NoError(t, err)

	assert.Nil(t, out.IsCorrect)
	assert.Equal(t, 0, out.PointsEarned)
	assert.True(t, out.NeedsReview)
	assert.Nil(t, out.Replacement)
	assert.Equal(t, 0, mp.poolCalls, "review answers never trigger selection")

	assert.Equal(t, scoresBefore, next.Scores)
	assert.True(t, next.Order[0].Answered)
	assert.Equal(t, "w-2", next.Order[1].QuestionID)
}

func TestProcessAnswer_TrueFalseMultiPartial(t *testing.T) {
	tf := item("l-tf", cefr.SkillListening, cefr.B1, question.TypeTrueFalseMulti, "a:true, b:false")
	tf.MaxPoints = 2
	o := NewOrchestrator(&mockProvider{questions: []question.Question{tf}}, nil)
	s := &Session{
		ID:           "s2",
		Mode:         ModeQuick,
		SkillsTested: []cefr.Skill{cefr.SkillListening},
		Order:        []OrderEntry{slot("l-tf", cefr.SkillListening, cefr.B1)},
		Scores:       RawScores{},
	}

	next, out, err := o.ProcessAnswer(context.Background(), s, AnswerInput{Index: 0, Answer: scoring.Parts("a:true", "b:true")})
	require.NoError(t, err)
	require.NotNil(t, out.IsCorrect)
	assert.False(t, *out.IsCorrect)
	assert.Equal(t, 1, out.PointsEarned)
	assert.True(t, out.IsLast)
	assert.Nil(t, out.NextIndex)

	ls := next.Scores[cefr.SkillListening]
	assert.Equal(t, 0, ls.Correct)
	assert.Equal(t, 1, ls.PointsEarned)
	assert.Equal(t, 2, ls.MaxPoints)
	assert.True(t, next.Complete())
}

func TestProcessAnswer_NoReplacementWhenPoolExhausted(t *testing.T) {
	pool := []question.Question{
		item("r1", cefr.SkillReading, cefr.A2, question.TypeGapFill, "a"),
		item("r2", cefr.SkillReading, cefr.C2, question.TypeGapFill, "a"),
	}
	o := NewOrchestrator(&mockProvider{questions: pool}, nil)
	s := newSession(
		slot("r1", cefr.SkillReading, cefr.A2),
		slot("r2", cefr.SkillReading, cefr.C2),
	)

	next, out, err := o.ProcessAnswer(context.Background(), s, AnswerInput{Index: 0, Answer: scoring.Text("a")})
	require.NoError(t, err)
	assert.Nil(t, out.Replacement)
	assert.Equal(t, s.Order[1], next.Order[1])
}

func TestProcessAnswer_ReplacementUsesClosestAcrossLevels(t *testing.T) {
	// After a correct answer the estimate is 0.58 (B2). The C1 item sits in
	// the neighbouring band but is farther away than the hard A2 item.
	c1hi := item("c1hi", cefr.SkillReading, cefr.C1, question.TypeGapFill, "a")
	c1hi.DifficultyRating = 1
	a2hi := item("a2hi", cefr.SkillReading, cefr.A2, question.TypeGapFill, "a")
	a2hi.DifficultyRating = 1
	pool := []question.Question{
		item("cur", cefr.SkillReading, cefr.A2, question.TypeGapFill, "a"),
		item("up", cefr.SkillReading, cefr.A1, question.TypeGapFill, "a"),
		c1hi,
		a2hi,
	}
	mp := &mockProvider{questions: pool}
	o := NewOrchestrator(mp, nil)
	s := newSession(
		slot("cur", cefr.SkillReading, cefr.A2),
		slot("up", cefr.SkillReading, cefr.A1),
	)

	next, out, err := o.ProcessAnswer(context.Background(), s, AnswerInput{Index: 0, Answer: scoring.Text("a")})
	require.NoError(t, err)

	state := next.Scores[cefr.SkillReading].State
	assert.InDelta(t, 0.58, state.AbilityEstimate, 1e-9)

	want := selector.Next(pool, state, map[string]bool{"cur": true})
	require.NotNil(t, want)
	assert.Equal(t, "a2hi", want.ID)

	require.NotNil(t, out.Replacement)
	assert.Equal(t, "a2hi", out.Replacement.NewQuestionID)
	assert.Equal(t, "a2hi", next.Order[1].QuestionID)
	assert.Equal(t, cefr.A2, next.Order[1].Level)
	assert.Equal(t, 1, mp.poolCalls)
}

func TestProcessAnswer_ReviewOnlySkillNeverScored(t *testing.T) {
	pool := append(readingPool(),
		item("w-1", cefr.SkillWriting, cefr.B1, question.TypeShortMessage, ""),
		item("w-2", cefr.SkillWriting, cefr.B2, question.TypeOpenResponse, ""),
	)
	o := NewOrchestrator(&mockProvider{questions: pool}, nil)
	s := newSession(
		slot("r-a2-1", cefr.SkillReading, cefr.A2),
		slot("w-1", cefr.SkillWriting, cefr.B1),
		slot("r-a2-2", cefr.SkillReading, cefr.A2),
		slot("w-2", cefr.SkillWriting, cefr.B2),
	)

	for !s.Complete() {
		i := s.CurrentIndex()
		next, _, err := o.ProcessAnswer(context.Background(), s, AnswerInput{Index: i, Answer: scoring.Text("a")})
		require.NoError(t, err)
		s = next
	}

	assert.Equal(t, []cefr.Skill{cefr.SkillReading}, s.Scores.Skills())
	_, ok := s.Scores[cefr.SkillWriting]
	assert.False(t, ok, "writing has only review answers and must not be scored")
	assert.Equal(t, 2, s.Scores[cefr.SkillReading].Correct)
}

func TestProcessAnswer_ReplacementPoolErrorIsLogged(t *testing.T) {
	mp := &mockProvider{questions: readingPool()}
	core, logs := observer.New(zapcore.WarnLevel)
	o := NewOrchestrator(mp, zap.New(core))
	s := newSession(
		slot("r-a2-1", cefr.SkillReading, cefr.A2),
		slot("r-a2-2", cefr.SkillReading, cefr.A2),
	)
	mp.poolErr = errors.New("timeout")

	next, out, err := o.ProcessAnswer(context.Background(), s, AnswerInput{Index: 0, Answer: scoring.Text("a")})
	require.NoError(t, err, "replacement failures must not fail the answer")
	assert.Nil(t, out.Replacement)
	assert.Equal(t, "r-a2-2", next.Order[1].QuestionID)
	assert.True(t, next.Order[0].Answered)
	assert.Equal(t, 1, logs.FilterMessage("replacement pool unavailable, keeping upcoming question").Len())
}

func TestProcessAnswer_AnsweredEntriesNeverChange(t *testing.T) {
	o := NewOrchestrator(&mockProvider{questions: readingPool()}, nil)
	s := newSession(
		slot("r-a2-1", cefr.SkillReading, cefr.A2),
		slot("r-a2-2", cefr.SkillReading, cefr.A2),
		slot("r-a2-3", cefr.SkillReading, cefr.A2),
		slot("r-a1", cefr.SkillReading, cefr.A1),
	)

	answers := []string{"a", "x", "a", "x"}
	for i, ans := range answers {
		next, out, err := o.ProcessAnswer(context.Background(), s, AnswerInput{Index: i, Answer: scoring.Text(ans)})
		require.NoError(t, err)

		for j, e := range s.Order {
			if j == i || !e.Answered {
				continue
			}
			assert.Equal(t, e, next.Order[j], "answered slot %d changed while answering %d", j, i)
		}
		assert.Equal(t, s.Order[i].QuestionID, next.Order[i].QuestionID, "current slot question changed")
		if out.Replacement != nil {
			assert.Greater(t, out.Replacement.Index, i)
		}
		s = next
	}

	assert.True(t, s.Complete())
	ids := make(map[string]bool)
	for _, e := range s.Order {
		assert.False(t, ids[e.QuestionID], "question %s placed twice", e.QuestionID)
		ids[e.QuestionID] = true
	}
}

func TestProcessAnswer_NextIndexSkipsAnswered(t *testing.T) {
	o := NewOrchestrator(&mockProvider{questions: readingPool()}, nil)
	s := newSession(
		slot("r-a2-1", cefr.SkillReading, cefr.A2),
		slot("r-a2-2", cefr.SkillReading, cefr.A2),
		slot("r-a2-3", cefr.SkillReading, cefr.A2),
	)
	s.Order[1].Answered = true

	_, out, err := o.ProcessAnswer(context.Background(), s, AnswerInput{Index: 0, Answer: scoring.Text("a")})
	require.NoError(t, err)
	require.NotNil(t, out.NextIndex)
	assert.Equal(t, 2, *out.NextIndex)
}

func TestBuildProgress(t *testing.T) {
	s := newSession(
		slot("r1", cefr.SkillReading, cefr.A2),
		slot("r2", cefr.SkillReading, cefr.A2),
		slot("w1", cefr.SkillWriting, cefr.A2),
	)
	s.Order[0].Answered = true

	p := BuildProgress(s)
	assert.Equal(t, 1, p.Answered)
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 2, p.Remaining())
	assert.Equal(t, SkillProgress{Answered: 1, Total: 2}, p.BySkill[cefr.SkillReading])
	assert.Equal(t, SkillProgress{Answered: 0, Total: 1}, p.BySkill[cefr.SkillWriting])
	assert.Equal(t, 1, s.CurrentIndex())
}
