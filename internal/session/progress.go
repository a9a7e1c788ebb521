package session

import (
	"slices"
	"strings"

	"github.com/abhisek/cefrplace/internal/adaptive"
	"github.com/abhisek/cefrplace/internal/cefr"
)

// SkillScores accumulates one skill's results over a session. The embedded
// adaptive state is what the final level is computed from.
type SkillScores struct {
	Correct      int `json:"correct"`
	Total        int `json:"total"`
	PointsEarned int `json:"points_earned"`
	MaxPoints    int `json:"max_points"`

	adaptive.State
}

// RawScores maps a skill to its accumulator. A skill gets an entry with its
// first auto-scored answer; skills answered only through review never appear.
type RawScores map[cefr.Skill]SkillScores

// Clone returns a deep copy of the scores.
func (rs RawScores) Clone() RawScores {
	if rs == nil {
		return nil
	}
	out := make(RawScores, len(rs))
	for sk, s := range rs {
		s.State = s.State.Clone()
		out[sk] = s
	}
	return out
}

// Get returns the accumulator for a skill, or a fresh one if the skill has
// not been seen.
func (rs RawScores) Get(skill cefr.Skill) SkillScores {
	if s, ok := rs[skill]; ok {
		return s
	}
	return SkillScores{State: adaptive.NewState()}
}

// Skills returns the skills with at least one auto-scored answer, in
// cefr.AllSkills order. Unknown skills sort last by name.
func (rs RawScores) Skills() []cefr.Skill {
	out := make([]cefr.Skill, 0, len(rs))
	for sk, s := range rs {
		if s.QuestionsAnswered > 0 {
			out = append(out, sk)
		}
	}
	rank := make(map[cefr.Skill]int)
	for i, sk := range cefr.AllSkills() {
		rank[sk] = i
	}
	slices.SortFunc(out, func(a, b cefr.Skill) int {
		ra, aok := rank[a]
		rb, bok := rank[b]
		switch {
		case aok && bok:
			return ra - rb
		case aok:
			return -1
		case bok:
			return 1
		}
		return strings.Compare(string(a), string(b))
	})
	return out
}

// Accuracy returns correct/total, or 0 before any auto-scored answer.
func (s SkillScores) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// record adds one auto-scored answer and returns the updated accumulator.
func (s SkillScores) record(correct bool, points, maxPoints int, next adaptive.State) SkillScores {
	s.Total++
	s.MaxPoints += maxPoints
	if correct {
		s.Correct++
	}
	s.PointsEarned += points
	s.State = next
	return s
}
