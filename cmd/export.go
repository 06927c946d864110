package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/obsly/session-replay/internal"
	"github.com/obsly/session-replay/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
	exportAll bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export archived sessions to file",
	Long: `Export archived sessions to various formats (jsonl, md, yaml, json).

Pass a session id to export one session, or --all for every archived
session. Use 'session-replay list' to see available session ids.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !exportAll {
			return fmt.Errorf("pass a session id or --all")
		}

		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		var sessions []*internal.Session
		if exportAll {
			summaries, err := archive.ListSessions()
			if err != nil {
				return err
			}
			for _, entry := range summaries {
				session, err := archive.LoadSession(entry.ID)
				if err != nil {
					internal.LogWarn("Skipping session %s: %v", entry.ID, err)
					continue
				}
				sessions = append(sessions, session)
			}
		} else {
			session, err := archive.LoadSession(args[0])
			if err != nil {
				return fmt.Errorf("%w (use `session-replay fetch %s` to archive it first)", err, args[0])
			}
			sessions = append(sessions, session)
		}

		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		for _, session := range sessions {
			if err := exportSession(exporter, session); err != nil {
				return err
			}
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %d session(s) exported to %s", len(sessions), outputDir))
		return nil
	},
}

func exportSession(exporter export.Exporter, session *internal.Session) error {
	filename := fmt.Sprintf("session_%s.%s", session.ID, exporter.Extension())
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}

	if err := exporter.Export(session, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}

	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	internal.LogDebug("Exported %s", path)
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every archived session")
}
