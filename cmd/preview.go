package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/cefrplace/internal/adaptive"
	"github.com/abhisek/cefrplace/internal/cefr"
	"github.com/abhisek/cefrplace/internal/selector"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview which questions the selector would serve at a level",
	Long: `Rank a skill's questions by how well they match an ability estimate.

This is a read-only developer tool: no session is created. Useful for checking
that the question bank covers each level.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("skill", "", "Skill to preview (required)")
	previewCmd.Flags().String("level", "", "CEFR level to center on, e.g. B1")
	previewCmd.Flags().Float64("ability", adaptive.InitialAbility, "Ability estimate in [0,1] (ignored when --level is set)")
	previewCmd.Flags().Int("count", 5, "Number of questions to show")
	_ = previewCmd.MarkFlagRequired("skill")
}

func runPreview(cmd *cobra.Command, args []string) error {
	skillVal, _ := cmd.Flags().GetString("skill")
	levelVal, _ := cmd.Flags().GetString("level")
	ability, _ := cmd.Flags().GetFloat64("ability")
	count, _ := cmd.Flags().GetInt("count")

	skill, err := cefr.ParseSkill(skillVal)
	if err != nil {
		return err
	}
	if levelVal != "" {
		level, err := cefr.ParseLevel(levelVal)
		if err != nil {
			return err
		}
		ability = cefr.ToAbility(level)
	}
	if ability < 0 || ability > 1 {
		return fmt.Errorf("ability must be in [0,1], got %v", ability)
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	pool, err := e.store.Questions().QuestionsBySkillAndLevel(cmd.Context(), skill, cefr.Levels(), nil)
	if err != nil {
		return err
	}

	state := adaptive.NewState()
	state.AbilityEstimate = ability
	ranked := selector.Rank(pool, state, nil)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s at ability %.3f (%s): %d candidates\n\n",
		skill.DisplayName(), ability, cefr.FromAbility(ability), len(ranked))
	fmt.Fprintf(out, "%-4s  %-16s  %-6s  %-10s  %s\n", "#", "Question", "Level", "Difficulty", "Distance")
	for i, c := range ranked {
		if i >= count {
			break
		}
		fmt.Fprintf(out, "%-4d  %-16s  %-6s  %-10.3f  %.3f\n",
			i+1, c.Question.SortKey(), c.Question.Level, c.Difficulty, c.Distance)
	}
	return nil
}
