package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/cefrplace/internal/cefr"
	"github.com/abhisek/cefrplace/internal/question"
	"github.com/abhisek/cefrplace/internal/report"
	"github.com/abhisek/cefrplace/internal/store"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Manage the question bank",
}

var questionsLoadCmd = &cobra.Command{
	Use:   "load <file.json>...",
	Short: "Validate and load question bank files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var all []question.Question
		for _, path := range args {
			qs, err := parseBankFile(path)
			if err != nil {
				return err
			}
			all = append(all, qs...)
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if dryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "%d questions valid\n", len(all))
			return nil
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.store.Questions().Upsert(cmd.Context(), all); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d questions\n", len(all))
		return nil
	},
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List questions (optionally filtered by skill)",
	RunE: func(cmd *cobra.Command, args []string) error {
		skillVal, _ := cmd.Flags().GetString("skill")
		limit, _ := cmd.Flags().GetInt("limit")

		var skill cefr.Skill
		if skillVal != "" {
			s, err := cefr.ParseSkill(skillVal)
			if err != nil {
				return err
			}
			skill = s
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		qs, err := e.store.Questions().List(cmd.Context(), skill, store.QueryOpts{Limit: limit})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, report.QuestionList(qs))

		counts, err := e.store.Questions().Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		for _, sk := range cefr.AllSkills() {
			fmt.Fprintf(out, "%-10s %d\n", sk.DisplayName(), counts[sk])
		}
		return nil
	},
}

func init() {
	questionsLoadCmd.Flags().Bool("dry-run", false, "Validate only, do not write to the database")
	questionsListCmd.Flags().String("skill", "", "Filter by skill (reading, listening, writing, speaking)")
	questionsListCmd.Flags().Int("limit", 0, "Maximum number of questions to show (0 = all)")

	questionsCmd.AddCommand(questionsLoadCmd)
	questionsCmd.AddCommand(questionsListCmd)
}

func parseBankFile(path string) ([]question.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	qs, err := question.ParseBank(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return qs, nil
}
