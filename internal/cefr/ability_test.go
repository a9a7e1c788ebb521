package cefr

import (
	"math"
	"testing"
)

func TestToAbility_StrictlyIncreasing(t *testing.T) {
	levels := Levels()
	for i := 1; i < len(levels); i++ {
		prev, cur := ToAbility(levels[i-1]), ToAbility(levels[i])
		if cur <= prev {
			t.Errorf("ToAbility(%v) = %f not > ToAbility(%v) = %f", levels[i], cur, levels[i-1], prev)
		}
	}
}

func TestToAbility_RoundTrip(t *testing.T) {
	for _, l := range Levels() {
		if got := FromAbility(ToAbility(l)); got != l {
			t.Errorf("FromAbility(ToAbility(%v)) = %v", l, got)
		}
		lo, hi := BandBounds(l)
		a := ToAbility(l)
		if a < lo || a >= hi {
			t.Errorf("ToAbility(%v) = %f outside band [%f, %f)", l, a, lo, hi)
		}
	}
}

func TestFromAbility_Bands(t *testing.T) {
	tests := []struct {
		ability float64
		want    Level
	}{
		{-0.5, PreA1},
		{0, PreA1},
		{0.1, PreA1},
		{1.0 / 7, A1},
		{3.0 / 7, B1},
		{0.5, B1},
		{0.6, B2},
		{0.7, B2},
		{0.99, C2},
		{1, C2},
		{7, C2},
		{math.NaN(), PreA1},
	}
	for _, tt := range tests {
		if got := FromAbility(tt.ability); got != tt.want {
			t.Errorf("FromAbility(%v) = %v, want %v", tt.ability, got, tt.want)
		}
	}
}

func TestFromAbility_Monotonic(t *testing.T) {
	prev := FromAbility(-0.1)
	for a := -0.1; a <= 1.1; a += 0.001 {
		cur := FromAbility(a)
		if cur < prev {
			t.Fatalf("FromAbility(%f) = %v < previous %v", a, cur, prev)
		}
		prev = cur
	}
}
