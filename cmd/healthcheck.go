package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/obsly/session-replay/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, service reachability and the local archive",
	Long: `Check the health of session-replay by verifying:
  • API credentials are configured
  • The observability service is reachable
  • The local archive opens and reports its session count

This command is useful for debugging configuration issues, especially in
CI/CD environments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(sectionStyle.Render("🔍 Session Replay Health Check"))
		fmt.Println()

		failed := false

		// Step 1: credentials
		fmt.Println(infoStyle.Render("Step 1: Checking credentials..."))
		if err := cfg.RequireFetch(); err != nil {
			fmt.Println(errorStyle.Render("❌ Observability key missing:"), err)
			failed = true
		} else {
			fmt.Println(successStyle.Render("✅ Observability API key configured"))
		}
		if err := cfg.RequireReplay(); err != nil {
			fmt.Println(warningStyle.Render("⚠️  Provider key missing (fetch/show/export still work):"), err)
		} else {
			fmt.Println(successStyle.Render("✅ Provider API key configured"))
		}
		if healthcheckVerbose {
			fmt.Printf("   Observability URL: %s\n", cfg.ObservabilityURL)
			fmt.Printf("   Gateway URL:       %s\n", cfg.GatewayURL)
			fmt.Printf("   Timeout:           %s\n", cfg.Timeout)
		}
		fmt.Println()

		// Step 2: service reachability
		fmt.Println(infoStyle.Render("Step 2: Checking observability service..."))
		if cfg.ObservabilityKey == "" {
			fmt.Println(warningStyle.Render("⚠️  Skipped (no key configured)"))
		} else {
			fetcher := internal.NewFetcher(cfg, nil)
			if err := fetcher.Ping(cmd.Context()); err != nil {
				fmt.Println(errorStyle.Render("❌ Service unreachable:"), err)
				failed = true
			} else {
				fmt.Println(successStyle.Render("✅ Service reachable"))
			}
		}
		fmt.Println()

		// Step 3: local archive
		fmt.Println(infoStyle.Render("Step 3: Checking local archive..."))
		archive, err := openArchive()
		if err != nil {
			fmt.Println(errorStyle.Render("❌ Failed to open archive:"), err)
			failed = true
		} else {
			defer archive.Close()
			summaries, err := archive.ListSessions()
			if err != nil {
				fmt.Println(errorStyle.Render("❌ Failed to list sessions:"), err)
				failed = true
			} else if len(summaries) > 0 {
				fmt.Println(successStyle.Render(fmt.Sprintf("✅ Archive open, %d session(s)", len(summaries))))
				if healthcheckVerbose {
					for i, entry := range summaries {
						if i >= 5 {
							fmt.Printf("   ... and %d more\n", len(summaries)-5)
							break
						}
						name := entry.Name
						if name == "" {
							name = "Untitled"
						}
						fmt.Printf("   [%d] %s (ID: %s)\n", i+1, name, entry.ID)
					}
				}
			} else {
				fmt.Println(warningStyle.Render("⚠️  Archive open but empty"))
				fmt.Println("   Run `session-replay fetch <session-id>` to archive a session.")
			}
			if healthcheckVerbose {
				fmt.Printf("   Archive path: %s\n", cfg.ArchivePath)
			}
		}
		fmt.Println()

		// Summary
		fmt.Println(sectionStyle.Render("📊 Summary"))
		fmt.Println()
		if failed {
			fmt.Println(errorStyle.Render("❌ Health check failed"))
			return fmt.Errorf("health check failed")
		}
		fmt.Println(successStyle.Render("✅ Health check passed!"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckVerbose, "details", false, "Show detailed diagnostic information")
}
