package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/obsly/session-replay/internal"
)

// MarkdownExporter exports sessions in Markdown format
type MarkdownExporter struct{}

// Export exports a session to Markdown format
func (e *MarkdownExporter) Export(session *internal.Session, w io.Writer) error {
	var sb strings.Builder

	title := session.Name
	if title == "" {
		title = session.ID
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))

	sb.WriteString(fmt.Sprintf("- **Session ID**: `%s`\n", session.ID))
	if session.Path != "" {
		sb.WriteString(fmt.Sprintf("- **Path**: `%s`\n", session.Path))
	}
	sb.WriteString(fmt.Sprintf("- **Turns**: %d\n", len(session.Turns)))
	if !session.FetchedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("- **Fetched**: %s\n", session.FetchedAt.Format(time.RFC3339)))
	}
	sb.WriteString("\n")

	for i, turn := range session.Turns {
		sb.WriteString(fmt.Sprintf("## Turn %d", i+1))
		if turn.PromptID != "" {
			sb.WriteString(fmt.Sprintf(" — `%s`", turn.PromptID))
		}
		sb.WriteString("\n\n")

		var meta []string
		if !turn.CreatedAt.IsZero() {
			meta = append(meta, turn.CreatedAt.Format(time.RFC3339))
		}
		if turn.Body.Model != "" {
			meta = append(meta, turn.Body.Model)
		}
		if turn.Endpoint != "" {
			meta = append(meta, turn.Endpoint)
		}
		if len(meta) > 0 {
			sb.WriteString(fmt.Sprintf("*%s*\n\n", strings.Join(meta, " · ")))
		}

		for _, msg := range turn.Body.Messages {
			sb.WriteString(fmt.Sprintf("**%s**:\n\n", msg.Role))
			sb.WriteString(msg.Content)
			sb.WriteString("\n\n")
		}
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
