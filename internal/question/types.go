package question

import (
	"github.com/abhisek/cefrplace/internal/cefr"
)

// Type is the answer format of a question.
type Type string

const (
	TypeMultipleChoice     Type = "multiple_choice"
	TypeTrueFalse          Type = "true_false"
	TypeTrueFalseMulti     Type = "true_false_multi" // "id:true, id:false" pairs
	TypeGapFill            Type = "gap_fill"
	TypeShortAnswer        Type = "short_answer"
	TypeMatching           Type = "matching"
	TypeOpenResponse       Type = "open_response"
	TypeFormFilling        Type = "form_filling"
	TypeShortMessage       Type = "short_message"
	TypePictureDescription Type = "picture_description"
	TypeInterview          Type = "interview"
)

// DefaultDifficultyRating is the neutral within-level difficulty.
const DefaultDifficultyRating = 0.5

// reviewTypes are graded by a human regardless of skill. The grading UI
// relies on this exact set.
var reviewTypes = map[Type]bool{
	TypeOpenResponse:       true,
	TypeFormFilling:        true,
	TypeShortMessage:       true,
	TypePictureDescription: true,
	TypeInterview:          true,
}

// AllTypes returns every known question type.
func AllTypes() []Type {
	return []Type{
		TypeMultipleChoice,
		TypeTrueFalse,
		TypeTrueFalseMulti,
		TypeGapFill,
		TypeShortAnswer,
		TypeMatching,
		TypeOpenResponse,
		TypeFormFilling,
		TypeShortMessage,
		TypePictureDescription,
		TypeInterview,
	}
}

// Valid reports whether t is a known question type.
func (t Type) Valid() bool {
	for _, k := range AllTypes() {
		if k == t {
			return true
		}
	}
	return false
}

// ReviewType reports whether questions of this type always need manual review.
func (t Type) ReviewType() bool {
	return reviewTypes[t]
}

// Question is a single item from the question bank. Questions are read-only
// for the duration of a test session.
type Question struct {
	ID   string `json:"id"`
	Code string `json:"question_code,omitempty"`

	Skill cefr.Skill `json:"skill_type"`
	Level cefr.Level `json:"cefr_level"`
	Type  Type       `json:"question_type"`

	// DifficultyRating refines difficulty within the CEFR level (0.5 = neutral).
	DifficultyRating float64 `json:"difficulty_rating"`

	// DiscriminationIndex is used only to break selection ties; higher is
	// more informative.
	DiscriminationIndex float64 `json:"discrimination_index,omitempty"`

	MaxPoints int `json:"max_points"`

	// CorrectAnswer is interpreted per Type: semicolon-separated accepted
	// answers, or comma-separated "id:true|false" pairs for TypeTrueFalseMulti.
	CorrectAnswer string `json:"correct_answer,omitempty"`

	Prompt  string   `json:"prompt,omitempty"`
	Options []string `json:"options,omitempty"`
}

// RequiresReview reports whether an answer to q must be graded by a human.
// Every writing and speaking item is reviewed, as is every review type.
func (q *Question) RequiresReview() bool {
	return q.Type.ReviewType() || q.Skill.ProductiveSkill()
}

// SortKey returns the deterministic tiebreak key: question code when set,
// otherwise the ID.
func (q *Question) SortKey() string {
	if q.Code != "" {
		return q.Code
	}
	return q.ID
}
