package question

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cefrplace/internal/cefr"
)

func TestRequiresReview(t *testing.T) {
	tests := []struct {
		name  string
		skill cefr.Skill
		typ   Type
		want  bool
	}{
		{"reading mc", cefr.SkillReading, TypeMultipleChoice, false},
		{"listening tf multi", cefr.SkillListening, TypeTrueFalseMulti, false},
		{"reading open response", cefr.SkillReading, TypeOpenResponse, true},
		{"listening form filling", cefr.SkillListening, TypeFormFilling, true},
		{"reading short message", cefr.SkillReading, TypeShortMessage, true},
		{"reading picture description", cefr.SkillReading, TypePictureDescription, true},
		{"listening interview", cefr.SkillListening, TypeInterview, true},
		{"writing gap fill", cefr.SkillWriting, TypeGapFill, true},
		{"speaking mc", cefr.SkillSpeaking, TypeMultipleChoice, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{Skill: tt.skill, Type: tt.typ}
			assert.Equal(t, tt.want, q.RequiresReview())
		})
	}
}

func TestSortKey(t *testing.T) {
	assert.Equal(t, "R-001", (&Question{ID: "q9", Code: "R-001"}).SortKey())
	assert.Equal(t, "q9", (&Question{ID: "q9"}).SortKey())
}

func TestValidate(t *testing.T) {
	valid := Question{
		ID:               "r1",
		Skill:            cefr.SkillReading,
		Level:            cefr.B1,
		Type:             TypeMultipleChoice,
		DifficultyRating: 0.5,
		MaxPoints:        1,
		CorrectAnswer:    "Paris",
	}
	require.NoError(t, Validate(&valid))

	review := valid
	review.Skill = cefr.SkillWriting
	review.Type = TypeOpenResponse
	review.CorrectAnswer = ""
	require.NoError(t, Validate(&review), "review questions need no correct answer")

	bad := Question{ID: "", Skill: "cooking", Level: cefr.Level(12), Type: "essay", DifficultyRating: 1.5}
	err := Validate(&bad)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 7)
}

const sampleBank = `{
  "version": 1,
  "questions": [
    {"id": "r1", "question_code": "R-B1-01", "skill_type": "reading", "cefr_level": "B1",
     "question_type": "multiple_choice", "max_points": 1, "correct_answer": "Paris",
     "prompt": "Capital of France?", "options": ["Paris", "Rome"]},
    {"id": "l1", "skill_type": "listening", "cefr_level": "A2", "question_type": "true_false_multi",
     "difficulty_rating": 0.8, "max_points": 2, "correct_answer": "a:true, b:false"},
    {"id": "w1", "skill_type": "writing", "cefr_level": "Pre-A1", "question_type": "open_response",
     "max_points": 5}
  ]
}`

func TestParseBank(t *testing.T) {
	qs, err := ParseBank(strings.NewReader(sampleBank))
	require.NoError(t, err)
	require.Len(t, qs, 3)

	assert.Equal(t, "R-B1-01", qs[0].Code)
	assert.Equal(t, cefr.B1, qs[0].Level)
	assert.Equal(t, DefaultDifficultyRating, qs[0].DifficultyRating)
	assert.Equal(t, []string{"Paris", "Rome"}, qs[0].Options)

	assert.Equal(t, TypeTrueFalseMulti, qs[1].Type)
	assert.InDelta(t, 0.8, qs[1].DifficultyRating, 1e-9)

	assert.Equal(t, cefr.PreA1, qs[2].Level)
	assert.True(t, qs[2].RequiresReview())
}

func TestParseBank_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"questions": [`},
		{"missing questions", `{"version": 1}`},
		{"bad skill", `{"questions": [{"id": "x", "skill_type": "cooking", "cefr_level": "A1", "question_type": "gap_fill", "max_points": 1}]}`},
		{"zero points", `{"questions": [{"id": "x", "skill_type": "reading", "cefr_level": "A1", "question_type": "gap_fill", "max_points": 0}]}`},
		{"unknown level", `{"questions": [{"id": "x", "skill_type": "reading", "cefr_level": "D4", "question_type": "gap_fill", "max_points": 1, "correct_answer": "a"}]}`},
		{"unknown type", `{"questions": [{"id": "x", "skill_type": "reading", "cefr_level": "A1", "question_type": "essay", "max_points": 1, "correct_answer": "a"}]}`},
		{"missing answer", `{"questions": [{"id": "x", "skill_type": "reading", "cefr_level": "A1", "question_type": "gap_fill", "max_points": 1}]}`},
		{"duplicate id", `{"questions": [
			{"id": "x", "skill_type": "reading", "cefr_level": "A1", "question_type": "gap_fill", "max_points": 1, "correct_answer": "a"},
			{"id": "x", "skill_type": "reading", "cefr_level": "A2", "question_type": "gap_fill", "max_points": 1, "correct_answer": "b"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBank(strings.NewReader(tt.body))
			assert.Error(t, err)
		})
	}
}
