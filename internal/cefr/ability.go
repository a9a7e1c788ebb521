package cefr

import "math"

// bandEpsilon absorbs float error when an ability sits exactly on a band
// boundary, e.g. 3.0/7*7 evaluating to 2.9999999999999996.
const bandEpsilon = 1e-9

// ToAbility returns the representative ability for a level: the midpoint of
// its [i/N, (i+1)/N) band.
func ToAbility(l Level) float64 {
	i := min(max(int(l), int(PreA1)), int(C2))
	return (float64(i) + 0.5) / NumLevels
}

// FromAbility maps an ability value to the level whose band contains it.
// The value is clamped to [0, 1] first; boundaries belong to the upper band's
// floor, so 1.0 maps to C2.
func FromAbility(ability float64) Level {
	if math.IsNaN(ability) {
		return PreA1
	}
	a := Clamp01(ability)
	idx := int(math.Floor(a*NumLevels + bandEpsilon))
	if idx >= NumLevels {
		idx = NumLevels - 1
	}
	return Level(idx)
}

// BandBounds returns the [lo, hi) ability band for a level.
func BandBounds(l Level) (lo, hi float64) {
	i := float64(l.Index())
	return i / NumLevels, (i + 1) / NumLevels
}

// Clamp01 clamps v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
