package adaptive

import "slices"

const (
	// InitialAbility starts every skill slightly below the scale midpoint.
	InitialAbility = 0.33

	// DefaultWindow is the number of recent outcomes kept for convergence checks.
	DefaultWindow = 5
)

// State is the per-skill adaptive state within one test session.
type State struct {
	AbilityEstimate   float64 `json:"ability_estimate"`
	QuestionsAnswered int     `json:"questions_answered"`
	LastCorrect       []bool  `json:"last_correct"`
	Stabilized        bool    `json:"stabilized"`
	ConvergenceCount  int     `json:"convergence_count"`
}

// NewState returns the starting state for a skill.
func NewState() State {
	return State{
		AbilityEstimate: InitialAbility,
		LastCorrect:     []bool{},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := s
	c.LastCorrect = slices.Clone(s.LastCorrect)
	return c
}

// mixedOutcomes reports whether the window holds both correct and incorrect answers.
func mixedOutcomes(window []bool) bool {
	if len(window) < 2 {
		return false
	}
	for _, v := range window[1:] {
		if v != window[0] {
			return true
		}
	}
	return false
}
