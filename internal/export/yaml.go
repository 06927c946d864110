package export

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/obsly/session-replay/internal"
)

// YAMLExporter exports sessions in YAML format
type YAMLExporter struct{}

// yamlSession is the document shape written by the YAML exporter. Turn
// bodies are flattened to role/content pairs; raw provider parameters do not
// render usefully in YAML.
type yamlSession struct {
	ID    string     `yaml:"id"`
	Name  string     `yaml:"name,omitempty"`
	Path  string     `yaml:"path,omitempty"`
	Turns []yamlTurn `yaml:"turns"`
}

type yamlTurn struct {
	CreatedAt string             `yaml:"created_at,omitempty"`
	PromptID  string             `yaml:"prompt_id,omitempty"`
	Endpoint  string             `yaml:"endpoint,omitempty"`
	Model     string             `yaml:"model,omitempty"`
	Messages  []internal.Message `yaml:"messages"`
}

// Export exports a session to YAML format
func (e *YAMLExporter) Export(session *internal.Session, w io.Writer) error {
	doc := yamlSession{
		ID:    session.ID,
		Name:  session.Name,
		Path:  session.Path,
		Turns: make([]yamlTurn, 0, len(session.Turns)),
	}
	for _, turn := range session.Turns {
		yt := yamlTurn{
			PromptID: turn.PromptID,
			Endpoint: turn.Endpoint,
			Model:    turn.Body.Model,
			Messages: turn.Body.Messages,
		}
		if !turn.CreatedAt.IsZero() {
			yt.CreatedAt = turn.CreatedAt.Format(time.RFC3339)
		}
		doc.Turns = append(doc.Turns, yt)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
