package cmd

import (
	"errors"
	"fmt"

	"github.com/obsly/session-replay/internal"
	"github.com/spf13/cobra"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <session-id>",
	Short: "Fetch a logged session and archive it locally",
	Long: `Query the observability service for every logged call tagged with the
given session id, order the turns by creation time, and store the session in
the local archive for later show/export/replay.

Re-fetching a session replaces the archived copy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]

		if err := cfg.RequireFetch(); err != nil {
			return err
		}

		fetcher := internal.NewFetcher(cfg, nil)
		ctx := cmd.Context()

		var records []internal.RawRecord
		err := internal.ShowProgress(ctx, fmt.Sprintf("Fetching session %s", sessionID), func() error {
			var fetchErr error
			records, fetchErr = fetcher.FetchSession(ctx, sessionID)
			return fetchErr
		})
		if err != nil {
			var empty *internal.EmptySessionError
			if errors.As(err, &empty) {
				internal.PrintWarning(fmt.Sprintf("No logged turns for session %s — nothing to archive", sessionID))
				return nil
			}
			return err
		}

		session, err := internal.NewNormalizer().NormalizeSession(sessionID, records)
		if err != nil {
			return err
		}

		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		if err := archive.SaveSession(session); err != nil {
			return err
		}

		name := session.Name
		if name == "" {
			name = "Untitled"
		}
		internal.PrintSuccess(fmt.Sprintf("Archived %q: %d turn(s) for session %s", name, len(session.Turns), sessionID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
