package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/cefrplace/internal/cefr"
	"github.com/abhisek/cefrplace/internal/config"
	"github.com/abhisek/cefrplace/internal/placement"
	"github.com/abhisek/cefrplace/internal/report"
	"github.com/abhisek/cefrplace/internal/scoring"
	"github.com/abhisek/cefrplace/internal/session"
	"github.com/abhisek/cefrplace/internal/store"
)

var takeCmd = &cobra.Command{
	Use:   "take",
	Short: "Take a placement test",
	Long: `Take an adaptive placement test. Questions are chosen to match your
current level and later questions adjust as you answer.

Enter an empty line to stop; progress is saved and the test can be resumed
with --resume.`,
	RunE: runTake,
}

func init() {
	takeCmd.Flags().String("mode", "", "Test mode: quick or full (overrides CEFRPLACE_MODE)")
	takeCmd.Flags().String("skills", "", "Comma-separated skills to test (overrides CEFRPLACE_SKILLS)")
	takeCmd.Flags().Int("per-skill", 0, "Questions per skill (0 = mode default)")
	takeCmd.Flags().String("resume", "", "Resume an unfinished session by ID")
}

func runTake(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()

	orch := session.NewOrchestrator(e.store.Questions(), e.log)

	var rec *store.SessionRecord
	if id, _ := cmd.Flags().GetString("resume"); id != "" {
		rec, err = e.store.Sessions().Get(ctx, id)
		if err != nil {
			return err
		}
		if rec.Status == store.StatusCompleted {
			return fmt.Errorf("session %s is already completed; see `cefrplace result %s`", id, id)
		}
	} else {
		rec, err = startSession(ctx, cmd, e.cfg, orch, e.store)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s (%s mode)\n\n", rec.Session.ID, rec.Session.Mode)

	done, err := answerLoop(ctx, cmd.InOrStdin(), out, e, orch, rec)
	if err != nil {
		return err
	}
	if !done {
		fmt.Fprintf(out, "\nProgress saved. Resume with: cefrplace take --resume %s\n", rec.Session.ID)
		return nil
	}

	weights, err := config.ParseWeights(e.cfg.Weights)
	if err != nil {
		return err
	}
	if weights == nil {
		weights = placement.EqualWeights(rec.Session.Scores.Skills())
	}
	result := placement.Calculate(rec.Session.Scores, weights)
	if err := e.store.Sessions().Complete(ctx, rec, result); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, report.Result(result))
	return nil
}

// startSession builds and stores a new session from flags and config.
func startSession(ctx context.Context, cmd *cobra.Command, cfg config.Config, orch *session.Orchestrator, st *store.Store) (*store.SessionRecord, error) {
	modeName := cfg.Mode
	if m, _ := cmd.Flags().GetString("mode"); m != "" {
		modeName = m
	}
	mode, err := session.ParseMode(modeName)
	if err != nil {
		return nil, err
	}

	skillList := cfg.Skills
	if s, _ := cmd.Flags().GetString("skills"); s != "" {
		skillList = s
	}
	skills, err := cefr.ParseSkills(skillList)
	if err != nil {
		return nil, err
	}

	perSkill := cfg.PerSkill(mode)
	if n, _ := cmd.Flags().GetInt("per-skill"); n > 0 {
		perSkill = n
	}

	sess, err := orch.NewSession(ctx, uuid.NewString(), mode, skills, perSkill)
	if err != nil {
		return nil, err
	}
	return st.Sessions().Create(ctx, sess)
}

// answerLoop asks questions until the session is complete or input ends.
// It reports whether the session is complete.
func answerLoop(ctx context.Context, in io.Reader, out io.Writer, e *env, orch *session.Orchestrator, rec *store.SessionRecord) (bool, error) {
	scanner := bufio.NewScanner(in)
	questions := e.store.Questions()

	for {
		idx := rec.Session.CurrentIndex()
		if idx < 0 {
			return true, nil
		}

		q, err := questions.QuestionByID(ctx, rec.Session.Order[idx].QuestionID)
		if err != nil {
			return false, err
		}

		fmt.Fprintln(out, report.Question(q, idx+1, len(rec.Session.Order)))
		fmt.Fprint(out, "> ")
		start := time.Now()
		if !scanner.Scan() {
			return false, scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			return false, nil
		}
		elapsed := int(time.Since(start).Seconds())

		next, outcome, err := orch.ProcessAnswer(ctx, rec.Session, session.AnswerInput{
			Index:            idx,
			Answer:           scoring.Text(text),
			TimeSpentSeconds: elapsed,
		})
		if err != nil {
			return false, err
		}

		prev := rec.Session
		rec.Session = next
		if err := e.store.Sessions().Save(ctx, rec); err != nil {
			rec.Session = prev
			if errors.Is(err, store.ErrConflict) {
				return false, fmt.Errorf("session was changed elsewhere, reload it with --resume: %w", err)
			}
			return false, err
		}

		if _, err := e.store.Answers().Append(ctx, store.AnswerEvent{
			SessionID:        rec.Session.ID,
			Slot:             idx,
			QuestionID:       outcome.QuestionID,
			Skill:            outcome.Skill,
			Answer:           text,
			IsCorrect:        outcome.IsCorrect,
			PointsEarned:     outcome.PointsEarned,
			NeedsReview:      outcome.NeedsReview,
			TimeSpentSeconds: outcome.TimeSpentSeconds,
		}); err != nil {
			e.log.Warn("answer not logged", zap.String("session_id", rec.Session.ID), zap.Error(err))
		}

		fmt.Fprintln(out, report.Outcome(outcome))
		fmt.Fprintln(out, report.Progress(session.BuildProgress(rec.Session)))
		fmt.Fprintln(out)
	}
}
