package scoring

import (
	"fmt"
	"strings"

	"github.com/abhisek/cefrplace/internal/question"
)

// Answer is a test-taker's raw response. Most question types use a single
// value; TypeTrueFalseMulti takes one "id:true|false" value per sub-item.
type Answer struct {
	Values []string `json:"values"`
}

// Text returns an Answer holding a single free-text value.
func Text(s string) Answer {
	return Answer{Values: []string{s}}
}

// Parts returns an Answer holding one value per sub-item.
func Parts(parts ...string) Answer {
	return Answer{Values: parts}
}

// String joins the answer values for storage and display.
func (a Answer) String() string {
	return strings.Join(a.Values, ", ")
}

// Result is the outcome of scoring one answer.
type Result struct {
	// IsCorrect is nil while the answer awaits manual review.
	IsCorrect    *bool `json:"is_correct"`
	PointsEarned int   `json:"points_earned"`
	NeedsReview  bool  `json:"needs_review"`
}

// Correct reports whether the answer was auto-scored as correct.
func (r Result) Correct() bool {
	return r.IsCorrect != nil && *r.IsCorrect
}

// Score grades an answer against a question.
//
// Normalization rules:
// - Whitespace is trimmed
// - Comparison is case-insensitive
// - correct_answer may list alternatives separated by ";"
// - true_false_multi awards one point per matching "id:bool" pair and is
//   correct only when every sub-item matches
//
// Questions that need manual review are never scored here.
func Score(q *question.Question, answer Answer) Result {
	if q.RequiresReview() {
		return Result{NeedsReview: true}
	}

	if q.Type == question.TypeTrueFalseMulti {
		matched, total := scoreTrueFalseMulti(answer, q.CorrectAnswer)
		correct := total > 0 && matched == total
		return Result{IsCorrect: &correct, PointsEarned: matched}
	}

	correct := matchesAlternative(answer.String(), q.CorrectAnswer)
	points := 0
	if correct {
		points = q.MaxPoints
	}
	return Result{IsCorrect: &correct, PointsEarned: points}
}

// matchesAlternative checks the answer against each ";"-separated accepted answer.
func matchesAlternative(answer, accepted string) bool {
	answer = normalize(answer)
	if answer == "" {
		return false
	}
	for _, alt := range strings.Split(accepted, ";") {
		alt = normalize(alt)
		if alt != "" && alt == answer {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// scoreTrueFalseMulti returns the number of sub-items the student got right
// and the number of sub-items in the key. Unparsable input on either side
// counts as zero matches.
func scoreTrueFalseMulti(answer Answer, key string) (matched, total int) {
	expected, err := parsePairs([]string{key})
	if err != nil {
		return 0, 0
	}
	got, err := parsePairs(answer.Values)
	if err != nil {
		return 0, len(expected)
	}
	for id, want := range expected {
		if v, ok := got[id]; ok && v == want {
			matched++
		}
	}
	return matched, len(expected)
}

// parsePairs parses "id:true|false" pairs. Each value may itself hold several
// comma-separated pairs.
func parsePairs(values []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, val, ok := strings.Cut(part, ":")
			id = normalize(id)
			if !ok || id == "" {
				return nil, fmt.Errorf("invalid pair %q", part)
			}
			switch normalize(val) {
			case "true":
				out[id] = true
			case "false":
				out[id] = false
			default:
				return nil, fmt.Errorf("invalid value in pair %q", part)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no pairs")
	}
	return out, nil
}
