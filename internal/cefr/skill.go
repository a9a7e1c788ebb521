package cefr

import (
	"fmt"
	"strings"
)

// Skill is one of the four tested language skills.
type Skill string

const (
	SkillReading   Skill = "reading"
	SkillListening Skill = "listening"
	SkillWriting   Skill = "writing"
	SkillSpeaking  Skill = "speaking"
)

// AllSkills returns the skills in test order.
func AllSkills() []Skill {
	return []Skill{
		SkillReading,
		SkillListening,
		SkillWriting,
		SkillSpeaking,
	}
}

// Valid reports whether s is a known skill.
func (s Skill) Valid() bool {
	switch s {
	case SkillReading, SkillListening, SkillWriting, SkillSpeaking:
		return true
	}
	return false
}

// ProductiveSkill reports whether answers for this skill are produced by the
// test-taker (and therefore need a human grader).
func (s Skill) ProductiveSkill() bool {
	return s == SkillWriting || s == SkillSpeaking
}

// DisplayName returns a human-readable name for a skill.
func (s Skill) DisplayName() string {
	switch s {
	case SkillReading:
		return "Reading"
	case SkillListening:
		return "Listening"
	case SkillWriting:
		return "Writing"
	case SkillSpeaking:
		return "Speaking"
	default:
		return string(s)
	}
}

// ParseSkill parses a skill name, case-insensitively.
func ParseSkill(s string) (Skill, error) {
	sk := Skill(strings.ToLower(strings.TrimSpace(s)))
	if !sk.Valid() {
		return "", fmt.Errorf("unknown skill %q", s)
	}
	return sk, nil
}

// ParseSkills parses a comma-separated skill list, dropping duplicates while
// keeping first-seen order.
func ParseSkills(csv string) ([]Skill, error) {
	var out []Skill
	seen := make(map[Skill]bool)
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		sk, err := ParseSkill(part)
		if err != nil {
			return nil, err
		}
		if seen[sk] {
			continue
		}
		seen[sk] = true
		out = append(out, sk)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no skills given")
	}
	return out, nil
}
