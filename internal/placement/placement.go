// Package placement turns a finished session's raw scores into an overall
// CEFR level.
package placement

import (
	"math"

	"github.com/abhisek/cefrplace/internal/cefr"
	"github.com/abhisek/cefrplace/internal/session"
)

const (
	// VariancePenalty is subtracted from confidence per unit of level variance
	// across skills.
	VariancePenalty = 0.15

	// SmallSamplePenalty is subtracted for each skill with fewer than
	// MinQuestions auto-scored answers.
	SmallSamplePenalty = 0.1
	MinQuestions       = 5
)

// SkillResult is one skill's line of the breakdown.
type SkillResult struct {
	Skill             cefr.Skill `json:"skill_type"`
	Level             cefr.Level `json:"level"`
	AbilityEstimate   float64    `json:"ability_estimate"`
	QuestionsAnswered int        `json:"questions_answered"`
	Correct           int        `json:"correct"`
	Total             int        `json:"total"`
	PointsEarned      int        `json:"points_earned"`
	MaxPoints         int        `json:"max_points"`
	Weight            float64    `json:"weight"`
}

// Result is the final placement of a session.
type Result struct {
	Level      cefr.Level    `json:"level"`
	Ability    float64       `json:"ability"`
	Confidence float64       `json:"confidence"`
	Breakdown  []SkillResult `json:"breakdown"`
}

// Skill returns the breakdown line for a skill.
func (r Result) Skill(skill cefr.Skill) (SkillResult, bool) {
	for _, sr := range r.Breakdown {
		if sr.Skill == skill {
			return sr, true
		}
	}
	return SkillResult{}, false
}

// EqualWeights gives every skill 1/n.
func EqualWeights(skills []cefr.Skill) map[cefr.Skill]float64 {
	w := make(map[cefr.Skill]float64, len(skills))
	if len(skills) == 0 {
		return w
	}
	each := 1 / float64(len(skills))
	for _, sk := range skills {
		w[sk] = each
	}
	return w
}

// Calculate derives per-skill levels and the weighted overall level.
//
// Only skills with auto-scored answers are placed; a skill with no evidence
// never gets a level. Weights are used as given. Skills with a weight but no
// raw scores are ignored, and skills with raw scores but no weight contribute
// nothing to the overall ability. Callers wanting a bounded result pass
// weights summing to 1, usually EqualWeights(raw.Skills()).
func Calculate(raw session.RawScores, weights map[cefr.Skill]float64) Result {
	skills := raw.Skills()
	if len(skills) == 0 {
		return Result{Level: cefr.PreA1}
	}

	res := Result{Breakdown: make([]SkillResult, 0, len(skills))}
	var ability float64
	for _, sk := range skills {
		s := raw[sk]
		w := weights[sk]
		ability += w * s.AbilityEstimate
		res.Breakdown = append(res.Breakdown, SkillResult{
			Skill:             sk,
			Level:             cefr.FromAbility(s.AbilityEstimate),
			AbilityEstimate:   s.AbilityEstimate,
			QuestionsAnswered: s.QuestionsAnswered,
			Correct:           s.Correct,
			Total:             s.Total,
			PointsEarned:      s.PointsEarned,
			MaxPoints:         s.MaxPoints,
			Weight:            w,
		})
	}

	res.Ability = ability
	res.Level = cefr.FromAbility(ability)
	res.Confidence = confidence(res.Level, res.Breakdown)
	return res
}

// confidence starts at 1 and is reduced by disagreement between skill levels
// and by thinly sampled skills.
func confidence(overall cefr.Level, breakdown []SkillResult) float64 {
	var variance float64
	small := 0
	for _, sr := range breakdown {
		d := float64(sr.Level.Index() - overall.Index())
		variance += d * d
		if sr.QuestionsAnswered < MinQuestions {
			small++
		}
	}
	variance /= float64(len(breakdown))

	c := 1 - VariancePenalty*variance - SmallSamplePenalty*float64(small)
	if math.IsNaN(c) {
		return 0
	}
	return cefr.Clamp01(c)
}
