package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/obsly/session-replay/internal"
)

// JSONLExporter exports sessions in JSONL format (one turn per line)
type JSONLExporter struct{}

// Export exports a session to JSONL format
func (e *JSONLExporter) Export(session *internal.Session, w io.Writer) error {
	enc := json.NewEncoder(w)

	for seq, turn := range session.Turns {
		obj := map[string]interface{}{
			"seq":   seq,
			"model": turn.Body.Model,
			"body":  turn.Body,
		}
		if !turn.CreatedAt.IsZero() {
			obj["created_at"] = turn.CreatedAt.Format(time.RFC3339)
		}
		if turn.PromptID != "" {
			obj["prompt_id"] = turn.PromptID
		}
		if turn.Endpoint != "" {
			obj["endpoint"] = turn.Endpoint
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode turn %d: %w", seq, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
