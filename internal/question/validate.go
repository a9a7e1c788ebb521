package question

import (
	"fmt"
	"strings"
)

// ValidationError lists every problem found with a single question.
type ValidationError struct {
	ID       string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("question %q invalid: %s", e.ID, strings.Join(e.Problems, "; "))
}

// Validate checks the structural rules for a question. Auto-scored questions
// must carry a correct answer; review types may leave it empty.
func Validate(q *Question) error {
	var problems []string

	if strings.TrimSpace(q.ID) == "" {
		problems = append(problems, "id is empty")
	}
	if !q.Skill.Valid() {
		problems = append(problems, fmt.Sprintf("unknown skill_type %q", q.Skill))
	}
	if !q.Level.Valid() {
		problems = append(problems, fmt.Sprintf("invalid cefr_level %d", int(q.Level)))
	}
	if !q.Type.Valid() {
		problems = append(problems, fmt.Sprintf("unknown question_type %q", q.Type))
	}
	if q.DifficultyRating < 0 || q.DifficultyRating > 1 {
		problems = append(problems, fmt.Sprintf("difficulty_rating must be in [0, 1], got %g", q.DifficultyRating))
	}
	if q.MaxPoints <= 0 {
		problems = append(problems, fmt.Sprintf("max_points must be > 0, got %d", q.MaxPoints))
	}
	if !q.RequiresReview() && strings.TrimSpace(q.CorrectAnswer) == "" {
		problems = append(problems, "correct_answer is required for auto-scored questions")
	}

	if len(problems) > 0 {
		return &ValidationError{ID: q.ID, Problems: problems}
	}
	return nil
}
