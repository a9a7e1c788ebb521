package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/cefrplace/internal/config"
	"github.com/abhisek/cefrplace/internal/placement"
	"github.com/abhisek/cefrplace/internal/report"
	"github.com/abhisek/cefrplace/internal/session"
	"github.com/abhisek/cefrplace/internal/store"
)

var resultCmd = &cobra.Command{
	Use:   "result [session-id]",
	Short: "Show a session's placement result",
	Long: `Show the placement result of a session. Without an ID, the most recent
session is shown. Unfinished sessions show a provisional result computed from
the answers so far.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		var rec *store.SessionRecord
		if len(args) == 1 {
			rec, err = e.store.Sessions().Get(ctx, args[0])
			if err != nil {
				return err
			}
		} else {
			recs, err := e.store.Sessions().List(ctx, store.QueryOpts{Limit: 1})
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				return fmt.Errorf("no sessions yet; start one with `cefrplace take`")
			}
			rec = recs[0]
		}

		result := rec.Result
		if result == nil {
			weights, err := config.ParseWeights(e.cfg.Weights)
			if err != nil {
				return err
			}
			if weights == nil {
				weights = placement.EqualWeights(rec.Session.Scores.Skills())
			}
			r := placement.Calculate(rec.Session.Scores, weights)
			result = &r
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				SessionID string            `json:"session_id"`
				Status    string            `json:"status"`
				Result    *placement.Result `json:"result"`
			}{rec.Session.ID, rec.Status, result})
		}

		fmt.Fprintf(out, "Session %s (%s)\n", rec.Session.ID, rec.Status)
		if rec.Status != store.StatusCompleted {
			fmt.Fprintln(out, report.Progress(session.BuildProgress(rec.Session)))
			fmt.Fprintln(out, "Provisional result:")
		}
		fmt.Fprintln(out, report.Result(*result))
		fmt.Fprintln(out, report.LevelScale(result.Level))
		return nil
	},
}

func init() {
	resultCmd.Flags().Bool("json", false, "Print the result as JSON")
}
