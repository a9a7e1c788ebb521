package adaptive

import (
	"math"

	"github.com/abhisek/cefrplace/internal/cefr"
)

const (
	// RatingWeight scales the within-level difficulty adjustment.
	RatingWeight = 0.15

	// StepOffset is C in the 1/(answered+C) step rule.
	StepOffset = 4.0
	MaxStep    = 0.25
	MinStep    = 0.02

	// Slope of the logistic expectation curve.
	Slope = 8.0

	// ConvergenceDelta is the largest update still counted as "not moving".
	ConvergenceDelta = 0.03
	// ConvergenceRuns is how many consecutive small updates mark a skill stable.
	ConvergenceRuns = 3
)

// EffectiveDifficulty combines a question's CEFR level with its within-level
// rating. A rating of 0.5 leaves the level midpoint unchanged.
func EffectiveDifficulty(level cefr.Level, rating float64) float64 {
	return cefr.Clamp01(cefr.ToAbility(level) + RatingWeight*(rating-0.5))
}

// StepSize returns the update step for a skill that has already seen
// answered questions. Early answers move the estimate more.
func StepSize(answered int) float64 {
	if answered < 0 {
		answered = 0
	}
	step := 1 / (float64(answered) + StepOffset)
	return math.Min(MaxStep, math.Max(MinStep, step))
}

// Expected returns the probability that a test-taker at ability answers an
// item of the given difficulty correctly.
func Expected(ability, difficulty float64) float64 {
	return 1 / (1 + math.Exp(-Slope*(ability-difficulty)))
}

// Update returns the state after one auto-scored answer. The input is not
// modified.
//
// A correct answer moves the estimate up, further when the item was harder
// than the current estimate; an incorrect answer moves it down, further when
// the item was easier.
func Update(s State, correct bool, level cefr.Level, rating float64) State {
	next := s.Clone()
	if next.LastCorrect == nil {
		next.LastCorrect = []bool{}
	}

	difficulty := EffectiveDifficulty(level, rating)
	expected := Expected(s.AbilityEstimate, difficulty)
	outcome := 0.0
	if correct {
		outcome = 1.0
	}

	delta := 2 * StepSize(s.QuestionsAnswered) * (outcome - expected)
	delta = math.Max(-MaxStep, math.Min(MaxStep, delta))

	next.AbilityEstimate = cefr.Clamp01(s.AbilityEstimate + delta)
	next.QuestionsAnswered++

	next.LastCorrect = append(next.LastCorrect, correct)
	if len(next.LastCorrect) > DefaultWindow {
		next.LastCorrect = next.LastCorrect[len(next.LastCorrect)-DefaultWindow:]
	}

	moved := math.Abs(next.AbilityEstimate - s.AbilityEstimate)
	if mixedOutcomes(next.LastCorrect) && moved < ConvergenceDelta {
		next.ConvergenceCount++
	} else {
		next.ConvergenceCount = 0
	}
	if next.ConvergenceCount >= ConvergenceRuns {
		next.Stabilized = true
	}

	return next
}
