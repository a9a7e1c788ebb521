// Package report renders questions, answer feedback and placement results
// for the terminal.
package report

import (
	"fmt"
	"math"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cefrplace/internal/cefr"
	"github.com/abhisek/cefrplace/internal/placement"
	"github.com/abhisek/cefrplace/internal/question"
	"github.com/abhisek/cefrplace/internal/session"
)

const barWidth = 21

// Question renders one question card. pos is 1-based.
func Question(q *question.Question, pos, total int) string {
	var b strings.Builder

	head := fmt.Sprintf("Question %d/%d", pos, total)
	b.WriteString(Title.Render(head))
	b.WriteString("  ")
	b.WriteString(Badge.Render(q.Skill.DisplayName()))
	b.WriteString(" ")
	b.WriteString(Label.Render(q.Level.String()))
	b.WriteString("\n\n")

	prompt := q.Prompt
	if prompt == "" {
		prompt = q.SortKey()
	}
	b.WriteString(Body.Render(prompt))

	if len(q.Options) > 0 {
		b.WriteString("\n")
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "\n  %s %s", Label.Render(optionLabel(i)), Body.Render(opt))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(Hint.Render(answerHint(q)))

	return Card.Render(b.String())
}

// Outcome renders feedback for a processed answer.
func Outcome(out *session.AnswerOutcome) string {
	var line string
	switch {
	case out.NeedsReview:
		line = Pending.Render("Saved for review")
	case out.IsCorrect != nil && *out.IsCorrect:
		line = Correct.Render(fmt.Sprintf("Correct (+%d)", out.PointsEarned))
	case out.PointsEarned > 0:
		line = Incorrect.Render(fmt.Sprintf("Partly correct (+%d)", out.PointsEarned))
	default:
		line = Incorrect.Render("Incorrect")
	}
	return line
}

// Progress renders a one-line progress summary.
func Progress(p session.Progress) string {
	frac := 0.0
	if p.Total > 0 {
		frac = float64(p.Answered) / float64(p.Total)
	}
	return fmt.Sprintf("%s %s", bar(frac), Label.Render(fmt.Sprintf("%d/%d answered", p.Answered, p.Total)))
}

// Result renders the final placement with its per-skill breakdown.
func Result(res placement.Result) string {
	var b strings.Builder

	b.WriteString(Title.Render("Placement result"))
	b.WriteString("\n\n")
	b.WriteString(Label.Render("Overall level  "))
	b.WriteString(Badge.Render(res.Level.String()))
	b.WriteString("\n")
	b.WriteString(Label.Render("Confidence     "))
	b.WriteString(Body.Render(fmt.Sprintf("%.0f%%", res.Confidence*100)))
	b.WriteString("\n")

	if len(res.Breakdown) > 0 {
		b.WriteString("\n")
		skillCol := lipgloss.NewStyle().Width(11)
		levelCol := lipgloss.NewStyle().Width(8)
		b.WriteString(Label.Render(skillCol.Render("Skill") + levelCol.Render("Level") + "Ability"))
		for _, sr := range res.Breakdown {
			b.WriteString("\n")
			b.WriteString(skillCol.Render(sr.Skill.DisplayName()))
			b.WriteString(levelCol.Render(sr.Level.String()))
			b.WriteString(bar(sr.AbilityEstimate))
			b.WriteString(" ")
			b.WriteString(Label.Render(skillStats(sr)))
		}
	}

	return Card.Render(b.String())
}

// QuestionList renders a compact listing of bank questions.
func QuestionList(qs []question.Question) string {
	if len(qs) == 0 {
		return Hint.Render("No questions loaded.")
	}

	idCol := lipgloss.NewStyle().Width(14)
	skillCol := lipgloss.NewStyle().Width(11)
	levelCol := lipgloss.NewStyle().Width(8)

	var b strings.Builder
	b.WriteString(Label.Render(idCol.Render("ID") + skillCol.Render("Skill") + levelCol.Render("Level") + "Type"))
	for i := range qs {
		q := &qs[i]
		b.WriteString("\n")
		b.WriteString(idCol.Render(q.SortKey()))
		b.WriteString(skillCol.Render(q.Skill.DisplayName()))
		b.WriteString(levelCol.Render(q.Level.String()))
		b.WriteString(string(q.Type))
		if q.RequiresReview() {
			b.WriteString(" ")
			b.WriteString(Pending.Render("(review)"))
		}
	}
	return b.String()
}

// LevelScale renders the CEFR scale with the given level highlighted.
func LevelScale(current cefr.Level) string {
	parts := make([]string, 0, cefr.NumLevels)
	for _, l := range cefr.Levels() {
		if l == current {
			parts = append(parts, Badge.Render(l.String()))
		} else {
			parts = append(parts, Label.Render(l.String()))
		}
	}
	return strings.Join(parts, " ")
}

func skillStats(sr placement.SkillResult) string {
	s := fmt.Sprintf("%d/%d correct", sr.Correct, sr.Total)
	if sr.MaxPoints > 0 {
		s += fmt.Sprintf(", %d/%d pts", sr.PointsEarned, sr.MaxPoints)
	}
	return s
}

// bar draws a fixed-width meter for a value in [0, 1].
func bar(frac float64) string {
	frac = cefr.Clamp01(frac)
	filled := int(math.Round(frac * barWidth))
	return BarFilled.Render(strings.Repeat("█", filled)) +
		BarEmpty.Render(strings.Repeat("░", barWidth-filled))
}

func optionLabel(i int) string {
	return fmt.Sprintf("%c)", 'a'+i)
}

func answerHint(q *question.Question) string {
	switch {
	case q.RequiresReview():
		return "Free response. An examiner will grade this answer."
	case q.Type == question.TypeTrueFalseMulti:
		return "Answer each statement as id:true or id:false, separated by commas."
	case len(q.Options) > 0:
		return "Type your answer."
	default:
		return "Type your answer and press Enter."
	}
}
