package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/obsly/session-replay/internal"
	"github.com/spf13/cobra"
)

var (
	showLimit int
	showTurn  int
)

var (
	// Styles for show command
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	turnHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Padding(0, 1)

	systemMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				Bold(true).
				Padding(0, 1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the turns of an archived session",
	Long:  `Display an archived session's turns with their prompt ids and message bodies.`,
	Args:  cobra.ExactArgs(1),
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

		displaySessionHeader(session)

		turns := session.Turns
		if showTurn > 0 {
			if showTurn > len(turns) {
				return fmt.Errorf("turn %d out of range: session has %d turn(s)", showTurn, len(turns))
			}
			displayTurn(showTurn, turns[showTurn-1], len(turns))
			return nil
		}

		total := len(turns)
		if showLimit > 0 && showLimit < len(turns) {
			turns = turns[:showLimit]
		}

		for i, turn := range turns {
			displayTurn(i+1, turn, total)
		}

		if showLimit > 0 && showLimit < total {
			remaining := total - showLimit
			fmt.Println()
			fmt.Println(timestampStyle.Render(fmt.Sprintf("... (%d more turn(s))", remaining)))
		}

		return nil
	},
}

func displaySessionHeader(session *internal.Session) {
	name := session.Name
	if name == "" {
		name = session.ID
	}
	fmt.Println(sessionHeaderStyle.Render(fmt.Sprintf("💬 %s", name)))

	var metaParts []string
	metaParts = append(metaParts, fmt.Sprintf("ID: %s", session.ID))
	if session.Path != "" {
		metaParts = append(metaParts, fmt.Sprintf("Path: %s", session.Path))
	}
	metaParts = append(metaParts, fmt.Sprintf("Turns: %d", len(session.Turns)))
	if !session.FetchedAt.IsZero() {
		metaParts = append(metaParts, fmt.Sprintf("Fetched: %s", session.FetchedAt.Format(time.RFC3339)))
	}

	fmt.Println(sessionMetaStyle.Render(strings.Join(metaParts, " • ")))
	fmt.Println()
}

func displayTurn(index int, turn internal.Turn, total int) {
	header := turnHeaderStyle.Render(fmt.Sprintf("Turn %d/%d", index, total))
	if turn.PromptID != "" {
		header += " " + pathStyle.Render(turn.PromptID)
	}
	if !turn.CreatedAt.IsZero() {
		header += " " + timestampStyle.Render(turn.CreatedAt.Format("15:04:05"))
	}
	if turn.Body.Model != "" {
		header += " " + timestampStyle.Render(turn.Body.Model)
	}
	fmt.Println(header)

	for _, msg := range turn.Body.Messages {
		displayMessage(msg)
	}
	fmt.Println()
}

func displayMessage(msg internal.Message) {
	var roleStyle lipgloss.Style
	var roleLabel string

	switch msg.Role {
	case internal.RoleSystem:
		roleStyle = systemMessageStyle
		roleLabel = "⚙️ System"
	case internal.RoleUser:
		roleStyle = userMessageStyle
		roleLabel = "👤 User"
	case internal.RoleAssistant:
		roleStyle = assistantMessageStyle
		roleLabel = "🤖 Assistant"
	default:
		roleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
		roleLabel = fmt.Sprintf("🔧 %s", msg.Role)
	}

	fmt.Println(roleStyle.Render(roleLabel))

	content := strings.TrimSpace(msg.Content)
	if content != "" {
		content = wrapText(content, 80)
		fmt.Println(messageContentStyle.Render(content))
	} else {
		fmt.Println(messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	}
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
					currentLine = word
				} else {
					wrapped = append(wrapped, word)
					currentLine = ""
				}
			} else {
				if currentLine == "" {
					currentLine = word
				} else {
					currentLine += " " + word
				}
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 0, "Limit number of turns to show")
	showCmd.Flags().IntVar(&showTurn, "turn", 0, "Show a single turn (1-based)")
}
