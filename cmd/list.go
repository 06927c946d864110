package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/obsly/session-replay/internal"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived sessions",
	Long:  `List all sessions in the local archive, originals and replays alike.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		summaries, err := archive.ListSessions()
		if err != nil {
			return err
		}

		displaySessions(summaries)
		return nil
	},
}

func displaySessions(summaries []internal.SessionSummary) {
	if len(summaries) == 0 {
		fmt.Println(headerStyle.Render("📋 No archived sessions — run `session-replay fetch <session-id>` first"))
		return
	}

	header := headerStyle.Render(fmt.Sprintf("📋 Found %d session(s)", len(summaries)))
	fmt.Println(header)
	fmt.Println()

	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', tabwriter.AlignRight)

	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Turns")+"\t"+titleStyle.Render("Fetched")+"\t"+titleStyle.Render("Path")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 110))

	for _, entry := range summaries {
		name := entry.Name
		if name == "" {
			name = "Untitled"
		}
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
		name = nameStyle.Render(name)

		turns := countStyle.Render(strconv.Itoa(entry.TurnCount))
		fetched := dateStyle.Render(relativeTime(entry.FetchedAt))

		path := "—"
		if entry.Path != "" {
			path = entry.Path
			if len(path) > 30 {
				path = path[:27] + "..."
			}
			path = pathStyle.Render(path)
		} else {
			path = dateStyle.Render(path)
		}

		id := entry.ID
		if len(id) > 14 {
			id = id[:14]
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", idStyle.Render(id), name, turns, fetched, path)
	}

	_ = w.Flush()
	fmt.Println()
	fmt.Println(idStyle.Render("💡 Tip: Use the full ID (e.g., ") +
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(summaries[0].ID) +
		idStyle.Render(") with `session-replay show <id>`"))
}

// relativeTime formats a timestamp compactly: today's time, a weekday within
// a week, then dates.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
