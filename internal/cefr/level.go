package cefr

import (
	"fmt"
	"strings"
)

// Level is a CEFR proficiency level. The zero value is PreA1.
type Level int

const (
	PreA1 Level = iota // Below A1
	A1                 // Breakthrough
	A2                 // Waystage
	B1                 // Threshold
	B2                 // Vantage
	C1                 // Effective operational proficiency
	C2                 // Mastery
)

// NumLevels is the number of levels on the scale.
const NumLevels = 7

var levelNames = [NumLevels]string{"Pre-A1", "A1", "A2", "B1", "B2", "C1", "C2"}

// Levels returns all levels from lowest to highest.
// The returned slice is a fresh copy and may be modified by the caller.
func Levels() []Level {
	return []Level{PreA1, A1, A2, B1, B2, C1, C2}
}

// Index returns the position of the level on the scale (0 = Pre-A1).
func (l Level) Index() int {
	return int(l)
}

// Valid reports whether l is one of the seven defined levels.
func (l Level) Valid() bool {
	return l >= PreA1 && l <= C2
}

func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel parses a level name. Matching is case-insensitive and accepts
// "PreA1", "Pre-A1" and "pre_a1" for the lowest level.
func ParseLevel(s string) (Level, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "", "_", "", " ", "").Replace(norm)
	for i, name := range levelNames {
		if strings.ReplaceAll(strings.ToUpper(name), "-", "") == norm {
			return Level(i), nil
		}
	}
	return PreA1, fmt.Errorf("unknown CEFR level %q", s)
}

// MarshalText encodes the level as its display name.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid CEFR level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level from its display name.
func (l *Level) UnmarshalText(text []byte) error {
	lv, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = lv
	return nil
}

// Neighbors returns the levels within radius steps of l, lowest first,
// clipped to the ends of the scale.
func Neighbors(l Level, radius int) []Level {
	if radius < 0 {
		radius = 0
	}
	lo := max(int(PreA1), int(l)-radius)
	hi := min(int(C2), int(l)+radius)

	out := make([]Level, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, Level(i))
	}
	return out
}
