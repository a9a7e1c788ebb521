package placement

import (
	"math"
	"testing"

	"github.com/abhisek/cefrplace/internal/adaptive"
	"github.com/abhisek/cefrplace/internal/cefr"
	"github.com/abhisek/cefrplace/internal/session"
)

func scores(ability float64, answered int) session.SkillScores {
	return session.SkillScores{
		Correct: answered / 2,
		Total:   answered,
		State: adaptive.State{
			AbilityEstimate:   ability,
			QuestionsAnswered: answered,
		},
	}
}

func TestCalculate_WeightedAverage(t *testing.T) {
	raw := session.RawScores{
		cefr.SkillReading:   scores(0.5, 10),
		cefr.SkillListening: scores(0.7, 10),
	}
	weights := map[cefr.Skill]float64{cefr.SkillReading: 0.5, cefr.SkillListening: 0.5}

	res := Calculate(raw, weights)

	if math.Abs(res.Ability-0.6) > 1e-9 {
		t.Errorf("Ability = %v, want 0.6", res.Ability)
	}
	if res.Level != cefr.FromAbility(0.6) {
		t.Errorf("Level = %v, want %v", res.Level, cefr.FromAbility(0.6))
	}
	if res.Confidence >= 1 {
		t.Errorf("Confidence = %v, want < 1 when skill levels differ", res.Confidence)
	}

	r, ok := res.Skill(cefr.SkillReading)
	if !ok || r.Level != cefr.B1 || r.AbilityEstimate != 0.5 {
		t.Errorf("reading breakdown = %+v", r)
	}
	l, ok := res.Skill(cefr.SkillListening)
	if !ok || l.Level != cefr.B2 {
		t.Errorf("listening breakdown = %+v", l)
	}
}

func TestCalculate_BreakdownOrder(t *testing.T) {
	raw := session.RawScores{
		cefr.SkillSpeaking: scores(0.4, 5),
		cefr.SkillReading:  scores(0.4, 5),
		cefr.SkillWriting:  scores(0.4, 5),
	}
	res := Calculate(raw, EqualWeights([]cefr.Skill{cefr.SkillSpeaking, cefr.SkillReading, cefr.SkillWriting}))

	want := []cefr.Skill{cefr.SkillReading, cefr.SkillWriting, cefr.SkillSpeaking}
	if len(res.Breakdown) != len(want) {
		t.Fatalf("breakdown has %d entries, want %d", len(res.Breakdown), len(want))
	}
	for i, sk := range want {
		if res.Breakdown[i].Skill != sk {
			t.Errorf("breakdown[%d] = %s, want %s", i, res.Breakdown[i].Skill, sk)
		}
	}
}

func TestCalculate_Confidence(t *testing.T) {
	tests := []struct {
		name string
		raw  session.RawScores
		want float64
	}{
		{
			name: "single skill well sampled",
			raw:  session.RawScores{cefr.SkillReading: scores(0.45, 10)},
			want: 1,
		},
		{
			name: "agreeing skills",
			raw: session.RawScores{
				cefr.SkillReading:   scores(0.44, 8),
				cefr.SkillListening: scores(0.46, 8),
			},
			want: 1,
		},
		{
			name: "thin sample",
			raw: session.RawScores{
				cefr.SkillReading:   scores(0.45, 3),
				cefr.SkillListening: scores(0.45, 10),
			},
			want: 0.9,
		},
		{
			name: "sharp disagreement clamps to zero",
			raw: session.RawScores{
				cefr.SkillReading:   scores(0, 1),
				cefr.SkillListening: scores(1, 1),
			},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skills := make([]cefr.Skill, 0, len(tt.raw))
			for sk := range tt.raw {
				skills = append(skills, sk)
			}
			res := Calculate(tt.raw, EqualWeights(skills))
			if math.Abs(res.Confidence-tt.want) > 1e-9 {
				t.Errorf("Confidence = %v, want %v", res.Confidence, tt.want)
			}
		})
	}
}

func TestCalculate_TighterAgreementIsMoreConfident(t *testing.T) {
	w := EqualWeights([]cefr.Skill{cefr.SkillReading, cefr.SkillListening})
	tight := Calculate(session.RawScores{
		cefr.SkillReading:   scores(0.5, 10),
		cefr.SkillListening: scores(0.6, 10),
	}, w)
	loose := Calculate(session.RawScores{
		cefr.SkillReading:   scores(0.2, 10),
		cefr.SkillListening: scores(0.9, 10),
	}, w)
	if tight.Confidence <= loose.Confidence {
		t.Errorf("tight confidence %v should exceed loose %v", tight.Confidence, loose.Confidence)
	}
}

func TestCalculate_Empty(t *testing.T) {
	res := Calculate(nil, nil)
	if res.Level != cefr.PreA1 || res.Confidence != 0 || len(res.Breakdown) != 0 {
		t.Errorf("Calculate(nil) = %+v", res)
	}
}

func TestCalculate_SkipsSkillsWithoutEvidence(t *testing.T) {
	raw := session.RawScores{
		cefr.SkillReading: scores(1, 8),
		cefr.SkillWriting: {State: adaptive.NewState()},
	}
	res := Calculate(raw, EqualWeights(raw.Skills()))

	if len(res.Breakdown) != 1 || res.Breakdown[0].Skill != cefr.SkillReading {
		t.Fatalf("breakdown = %+v, want only reading", res.Breakdown)
	}
	if res.Level != cefr.C2 {
		t.Errorf("Level = %v, want C2", res.Level)
	}
	if _, ok := res.Skill(cefr.SkillWriting); ok {
		t.Error("writing placed without any auto-scored answer")
	}
}

func TestCalculate_OnlyReviewAnswers(t *testing.T) {
	raw := session.RawScores{cefr.SkillSpeaking: {State: adaptive.NewState()}}
	res := Calculate(raw, EqualWeights([]cefr.Skill{cefr.SkillSpeaking}))
	if res.Level != cefr.PreA1 || res.Confidence != 0 || len(res.Breakdown) != 0 {
		t.Errorf("Calculate = %+v, want empty Pre-A1 result", res)
	}
}

func TestCalculate_UnknownWeightIgnored(t *testing.T) {
	raw := session.RawScores{cefr.SkillReading: scores(0.5, 10)}
	weights := map[cefr.Skill]float64{cefr.SkillReading: 1, cefr.SkillSpeaking: 0.5}

	res := Calculate(raw, weights)
	if math.Abs(res.Ability-0.5) > 1e-9 {
		t.Errorf("Ability = %v, want 0.5", res.Ability)
	}
	if len(res.Breakdown) != 1 {
		t.Errorf("breakdown = %+v, want only reading", res.Breakdown)
	}
}

func TestCalculate_DoesNotMutateInput(t *testing.T) {
	raw := session.RawScores{cefr.SkillReading: scores(0.5, 10)}
	before := raw.Clone()
	Calculate(raw, EqualWeights([]cefr.Skill{cefr.SkillReading}))
	if raw[cefr.SkillReading].AbilityEstimate != before[cefr.SkillReading].AbilityEstimate ||
		raw[cefr.SkillReading].Total != before[cefr.SkillReading].Total {
		t.Error("Calculate modified its input")
	}
}

func TestCalculate_ConfidenceInRange(t *testing.T) {
	abilities := []float64{0, 0.1, 0.33, 0.5, 0.77, 0.99, 1}
	for _, a := range abilities {
		for _, b := range abilities {
			raw := session.RawScores{
				cefr.SkillReading:  scores(a, 1),
				cefr.SkillWriting:  scores(b, 7),
				cefr.SkillSpeaking: scores((a+b)/2, 0),
			}
			res := Calculate(raw, EqualWeights([]cefr.Skill{cefr.SkillReading, cefr.SkillWriting, cefr.SkillSpeaking}))
			if res.Confidence < 0 || res.Confidence > 1 || math.IsNaN(res.Confidence) {
				t.Fatalf("confidence %v out of range for %v/%v", res.Confidence, a, b)
			}
			if res.Ability < 0 || res.Ability > 1 {
				t.Fatalf("ability %v out of range for %v/%v", res.Ability, a, b)
			}
		}
	}
}

func TestEqualWeights(t *testing.T) {
	w := EqualWeights(cefr.AllSkills())
	var sum float64
	for _, v := range w {
		sum += v
	}
	if len(w) != 4 || math.Abs(sum-1) > 1e-9 {
		t.Errorf("EqualWeights = %v", w)
	}
	if len(EqualWeights(nil)) != 0 {
		t.Error("EqualWeights(nil) should be empty")
	}
}
