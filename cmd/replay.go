package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/obsly/session-replay/internal"
	"github.com/spf13/cobra"
)

var (
	rulesFile  string
	dryRun     bool
	replayName string
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay <session-id>",
	Short: "Re-run an archived session under a new session id",
	Long: `Replay an archived session turn by turn against the LLM gateway.

Each turn's request body is re-issued to its originating endpoint, tagged
with a freshly generated replay session id while keeping the original
session name and the turn's path and prompt id, so the replay shows up in
the observability service as a sibling of the original.

A YAML rule file (--rules) modifies selected turns before they are sent.
Rules are keyed by prompt id and append to, prepend to, or replace the
content of one message role (default: system). Turns with no matching rule
are replayed verbatim.

Turns run strictly in order: the provider regenerates assistant output, and
later turns may depend on it. A failed turn stops the run and leaves the
partial replay session visible upstream for inspection.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]

		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		session, err := archive.LoadSession(sessionID)
		if err != nil {
			return fmt.Errorf("%w (use `session-replay fetch %s` to archive it first)", err, sessionID)
		}
		if replayName != "" {
			session.Name = replayName
		}

		var rules internal.RuleSet
		if rulesFile != "" {
			rules, err = internal.LoadRuleSet(rulesFile)
			if err != nil {
				return err
			}
			internal.LogDebug("Loaded %d rule(s) from %s", len(rules), rulesFile)
		}

		if dryRun {
			return showDryRun(session, rules)
		}

		if err := cfg.RequireReplay(); err != nil {
			return err
		}

		replayer := internal.NewReplayer(cfg, nil)
		report, err := replayer.ReplaySession(cmd.Context(), session, rules, func(index, total int, turn internal.Turn) {
			label := turn.PromptID
			if label == "" {
				label = turn.Endpoint
			}
			internal.PrintInfo(fmt.Sprintf("[%d/%d] Replaying %s", index+1, total, label))
		})
		if err != nil {
			var replayErr *internal.ReplayError
			if errors.As(err, &replayErr) {
				internal.PrintError(fmt.Sprintf("Turn %d failed after %d completed turn(s)", replayErr.TurnIndex+1, len(report.Results)))
				internal.PrintWarning(fmt.Sprintf("Partial replay session: %s", report.SessionID))
			}
			return err
		}

		// Archive the replay too so both sessions can be listed, diffed and
		// exported locally.
		replayed := &internal.Session{
			ID:        report.SessionID,
			Name:      session.Name,
			Path:      session.Path,
			FetchedAt: time.Now().UTC(),
		}
		if rules != nil {
			replayed.Turns = rules.ApplyAll(session.Turns)
		} else {
			replayed.Turns = session.Turns
		}
		if err := archive.SaveSession(replayed); err != nil {
			internal.LogWarn("Failed to archive replay session: %v", err)
		}

		internal.PrintSuccess(fmt.Sprintf("Replay complete: %d turn(s) as session %s", len(report.Results), report.SessionID))
		return nil
	},
}

// showDryRun prints what a replay would send, without issuing any call.
func showDryRun(session *internal.Session, rules internal.RuleSet) error {
	internal.PrintInfo(fmt.Sprintf("Dry run: %d turn(s), no requests will be issued", len(session.Turns)))
	fmt.Println()

	for i, turn := range session.Turns {
		modified := turn
		if rules != nil {
			modified = rules.Apply(turn)
		}
		displayTurn(i+1, modified, len(session.Turns))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&rulesFile, "rules", "r", "", "YAML file of modification rules keyed by prompt id")
	replayCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the (modified) turns without issuing any request")
	replayCmd.Flags().StringVar(&replayName, "name", "", "Override the session name for the replay")
}
