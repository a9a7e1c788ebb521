package session

import (
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/cefrplace/internal/cefr"
	"github.com/abhisek/cefrplace/internal/question"
)

// Mode selects the test variant.
type Mode string

const (
	ModeQuick Mode = "quick"
	ModeFull  Mode = "full"
)

// Default question counts per skill.
const (
	QuickQuestionsPerSkill = 5
	FullQuestionsPerSkill  = 10
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeQuick, ModeFull:
		return m, nil
	}
	return "", fmt.Errorf("unknown test mode %q: must be quick or full", s)
}

// ExcludedTypes returns the question types never served in this mode.
func (m Mode) ExcludedTypes() []question.Type {
	if m == ModeQuick {
		return []question.Type{question.TypeOpenResponse}
	}
	return nil
}

// DefaultQuestionsPerSkill returns the standard slot count per skill.
func (m Mode) DefaultQuestionsPerSkill() int {
	if m == ModeQuick {
		return QuickQuestionsPerSkill
	}
	return FullQuestionsPerSkill
}

// OrderEntry is one slot of the question order. Unanswered slots may have
// their question swapped by the adaptive replacement step; answered slots
// never change again.
type OrderEntry struct {
	QuestionID string     `json:"question_id"`
	Skill      cefr.Skill `json:"skill_type"`
	Level      cefr.Level `json:"cefr_level"`
	Answered   bool       `json:"answered"`
}

// cloneOrder returns a copy of the order slice.
func cloneOrder(order []OrderEntry) []OrderEntry {
	return slices.Clone(order)
}

// nextUnanswered returns the index of the first unanswered slot after index
// and, when skill is non-empty, belonging to that skill. Returns -1 if none.
func nextUnanswered(order []OrderEntry, index int, skill cefr.Skill) int {
	for i := index + 1; i < len(order); i++ {
		if order[i].Answered {
			continue
		}
		if skill != "" && order[i].Skill != skill {
			continue
		}
		return i
	}
	return -1
}
