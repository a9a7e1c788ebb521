package session

import "github.com/abhisek/cefrplace/internal/cefr"

// Progress summarises how far a session has got.
type Progress struct {
	Answered int
	Total    int
	BySkill  map[cefr.Skill]SkillProgress
}

// SkillProgress counts slots for one skill.
type SkillProgress struct {
	Answered int
	Total    int
}

// Remaining returns the number of unanswered slots.
func (p Progress) Remaining() int {
	return p.Total - p.Answered
}

// BuildProgress counts answered and total slots, overall and per skill.
func BuildProgress(s *Session) Progress {
	p := Progress{
		Total:   len(s.Order),
		BySkill: make(map[cefr.Skill]SkillProgress),
	}
	for _, e := range s.Order {
		sp := p.BySkill[e.Skill]
		sp.Total++
		if e.Answered {
			sp.Answered++
			p.Answered++
		}
		p.BySkill[e.Skill] = sp
	}
	return p
}
