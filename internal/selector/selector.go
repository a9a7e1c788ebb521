package selector

import (
	"math"
	"sort"

	"github.com/abhisek/cefrplace/internal/adaptive"
	"github.com/abhisek/cefrplace/internal/question"
)

// TieEpsilon is the distance within which two candidates count as equally
// well matched to the current ability.
const TieEpsilon = 0.01

// Candidate is a pool question scored against an ability estimate.
type Candidate struct {
	Question   *question.Question
	Difficulty float64
	Distance   float64
}

// Next picks the unused question whose effective difficulty is closest to
// the state's ability estimate. It returns nil when every pool question is
// excluded. The result does not depend on pool order.
func Next(pool []question.Question, state adaptive.State, exclude map[string]bool) *question.Question {
	ranked := Rank(pool, state, exclude)
	if len(ranked) == 0 {
		return nil
	}
	q := *ranked[0].Question
	return &q
}

// Rank orders the unused pool questions from best to worst match.
//
// Candidates whose distance is within TieEpsilon of the best distance form
// the front group; within it the highest discrimination index wins, then the
// lowest question code, then the lowest ID.
func Rank(pool []question.Question, state adaptive.State, exclude map[string]bool) []Candidate {
	var candidates []Candidate
	for i := range pool {
		q := &pool[i]
		if exclude[q.ID] {
			continue
		}
		d := adaptive.EffectiveDifficulty(q.Level, q.DifficultyRating)
		candidates = append(candidates, Candidate{
			Question:   q,
			Difficulty: d,
			Distance:   math.Abs(d - state.AbilityEstimate),
		})
	}
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0].Distance
	for _, c := range candidates[1:] {
		if c.Distance < best {
			best = c.Distance
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		aTied := a.Distance-best <= TieEpsilon
		bTied := b.Distance-best <= TieEpsilon
		if aTied != bTied {
			return aTied
		}
		if !aTied && a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		return tieBreakLess(a.Question, b.Question)
	})
	return candidates
}

// tieBreakLess orders equally matched questions.
func tieBreakLess(a, b *question.Question) bool {
	if a.DiscriminationIndex != b.DiscriminationIndex {
		return a.DiscriminationIndex > b.DiscriminationIndex
	}
	if a.SortKey() != b.SortKey() {
		return a.SortKey() < b.SortKey()
	}
	return a.ID < b.ID
}
