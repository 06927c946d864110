package internal

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message roles used in chat request bodies.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one element of a turn's request body.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatBody is the request payload of a logged LLM call. Provider parameters
// this tool does not model (temperature, tools, response_format, ...) are
// kept verbatim in Extra so a replayed request matches the original.
type ChatBody struct {
	Model    string
	Messages []Message
	Extra    map[string]json.RawMessage
}

// UnmarshalJSON pulls out the model and message list and stashes every other
// field untouched.
func (b *ChatBody) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["model"]; ok {
		if err := json.Unmarshal(raw, &b.Model); err != nil {
			return fmt.Errorf("invalid model field: %w", err)
		}
		delete(fields, "model")
	}
	if raw, ok := fields["messages"]; ok {
		if err := json.Unmarshal(raw, &b.Messages); err != nil {
			return fmt.Errorf("invalid messages field: %w", err)
		}
		delete(fields, "messages")
	}
	if len(fields) > 0 {
		b.Extra = fields
	}
	return nil
}

// MarshalJSON reassembles the original payload shape, extras included.
func (b ChatBody) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(b.Extra)+2)
	for k, v := range b.Extra {
		fields[k] = v
	}
	model, err := json.Marshal(b.Model)
	if err != nil {
		return nil, err
	}
	fields["model"] = model
	messages := b.Messages
	if messages == nil {
		messages = []Message{}
	}
	msgs, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}
	fields["messages"] = msgs
	return json.Marshal(fields)
}

// Clone returns a deep copy of the body. Modification rules edit the copy so
// the fetched turn stays replayable with a different rule set.
func (b ChatBody) Clone() ChatBody {
	out := ChatBody{Model: b.Model}
	if b.Messages != nil {
		out.Messages = make([]Message, len(b.Messages))
		copy(out.Messages, b.Messages)
	}
	if b.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(b.Extra))
		for k, v := range b.Extra {
			raw := make(json.RawMessage, len(v))
			copy(raw, v)
			out.Extra[k] = raw
		}
	}
	return out
}

// FindRole returns the index of the first message with the given role, or -1.
func (b ChatBody) FindRole(role string) int {
	for i, msg := range b.Messages {
		if msg.Role == role {
			return i
		}
	}
	return -1
}

// Turn is one logged LLM call within a session.
type Turn struct {
	RequestID string    `json:"request_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Endpoint  string    `json:"endpoint,omitempty"`  // originating request path, e.g. /v1/chat/completions
	Path      string    `json:"path,omitempty"`      // hierarchical session path
	PromptID  string    `json:"prompt_id,omitempty"` // selects the modification rule, if any
	BodyURL   string    `json:"body_url,omitempty"`  // signed pointer to the full payload
	Body      ChatBody  `json:"body"`
}

// Session is a named, identified group of ordered turns.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Path      string    `json:"path,omitempty"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
	Turns     []Turn    `json:"turns"`
}
