package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/cefrplace/internal/adaptive"
	"github.com/abhisek/cefrplace/internal/cefr"
	"github.com/abhisek/cefrplace/internal/selector"
)

// Orchestrator drives question ordering and answer processing for sessions.
// It holds no per-session state and is safe for concurrent use.
type Orchestrator struct {
	provider PoolProvider
	log      *zap.Logger
}

// NewOrchestrator creates an Orchestrator. A nil logger disables logging.
func NewOrchestrator(provider PoolProvider, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{provider: provider, log: log}
}

// BuildInitialOrder selects up to perSkill questions for each skill, in skill
// order. Repeated skills are tested once. Each skill starts from a fresh
// adaptive state; a skill whose pool runs out simply contributes fewer slots.
func (o *Orchestrator) BuildInitialOrder(ctx context.Context, skills []cefr.Skill, perSkill int, mode Mode) ([]OrderEntry, error) {
	if perSkill <= 0 {
		return nil, fmt.Errorf("questions per skill must be > 0, got %d", perSkill)
	}

	var order []OrderEntry
	for _, skill := range uniqueSkills(skills) {
		pool, err := o.provider.QuestionsBySkillAndLevel(ctx, skill, cefr.Levels(), mode.ExcludedTypes())
		if err != nil {
			return nil, fmt.Errorf("load %s pool: %w", skill, err)
		}

		state := adaptive.NewState()
		exclude := make(map[string]bool)
		picked := 0
		for picked < perSkill {
			q := selector.Next(pool, state, exclude)
			if q == nil {
				break
			}
			exclude[q.ID] = true
			order = append(order, OrderEntry{
				QuestionID: q.ID,
				Skill:      skill,
				Level:      q.Level,
			})
			picked++
		}

		if picked < perSkill {
			o.log.Warn("question pool exhausted",
				zap.String("skill", string(skill)),
				zap.Int("wanted", perSkill),
				zap.Int("picked", picked),
			)
		}
	}
	return order, nil
}

// NewSession builds a session with its initial question order.
func (o *Orchestrator) NewSession(ctx context.Context, id string, mode Mode, skills []cefr.Skill, perSkill int) (*Session, error) {
	skills = uniqueSkills(skills)
	if len(skills) == 0 {
		return nil, fmt.Errorf("no skills to test")
	}
	order, err := o.BuildInitialOrder(ctx, skills, perSkill, mode)
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("no questions available for %v", skills)
	}
	return &Session{
		ID:           id,
		Mode:         mode,
		SkillsTested: skills,
		Order:        order,
		Scores:       make(RawScores),
	}, nil
}

// uniqueSkills returns skills without repeats, keeping first occurrences in
// order. The input is never modified.
func uniqueSkills(skills []cefr.Skill) []cefr.Skill {
	seen := make(map[cefr.Skill]bool, len(skills))
	out := make([]cefr.Skill, 0, len(skills))
	for _, sk := range skills {
		if !seen[sk] {
			seen[sk] = true
			out = append(out, sk)
		}
	}
	return out
}
