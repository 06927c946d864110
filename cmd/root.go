package cmd

import (
	"fmt"
	"os"

	"github.com/obsly/session-replay/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	cfgFile     string
	archivePath string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// cfg is resolved once before any command runs and passed into components
// explicitly.
var cfg internal.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "session-replay",
	Short: "Fetch, inspect and replay logged LLM sessions",
	Long: `A CLI tool to fetch multi-turn LLM sessions from an observability
service, archive them locally, and replay them with modifications.

Sessions are grouped by the session id/name/path headers your application
attaches to each LLM call. This tool pulls the logged turns back down,
orders them, optionally rewrites selected prompts via a YAML rule file, and
re-issues the conversation under a fresh session id so the original and the
replay sit side by side in the service.

Quick Start:
  session-replay fetch <session-id>                 # Pull a session into the local archive
  session-replay list                               # List archived sessions
  session-replay show <session-id>                  # View a session's turns
  session-replay replay <session-id> --rules r.yaml # Re-run it with modifications
  session-replay export <session-id> --format md    # Export as Markdown

Credentials come from HELICONE_API_KEY and OPENAI_API_KEY (environment or
.env), or from ~/.session-replay.yaml.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)
		var err error
		cfg, err = internal.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		if archivePath != "" {
			cfg.ArchivePath = archivePath
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.session-replay.yaml)")
	rootCmd.PersistentFlags().StringVar(&archivePath, "archive", "", "Archive database location (default: ~/.session-replay/archive.db)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// openArchive opens the configured archive database.
func openArchive() (*internal.Archive, error) {
	archive, err := internal.OpenArchive(cfg.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", cfg.ArchivePath, err)
	}
	return archive, nil
}
