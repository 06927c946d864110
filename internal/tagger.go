package internal

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// Header names the observability service reads session metadata from.
// These travel out-of-band; the request body is never touched.
const (
	HeaderSessionID   = "Helicone-Session-Id"
	HeaderSessionName = "Helicone-Session-Name"
	HeaderSessionPath = "Helicone-Session-Path"
	HeaderPromptID    = "Helicone-Prompt-Id"
	HeaderRequestID   = "Helicone-Request-Id"
)

// SessionTag is the metadata attached to an outbound LLM call so the service
// can group calls into a session.
type SessionTag struct {
	SessionID   string
	SessionName string
	SessionPath string
	PromptID    string
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// NewReplaySessionID returns an identifier for a replay run. The prefix
// keeps originals and replays easy to tell apart in the service UI.
func NewReplaySessionID() string {
	return "replay-" + shortuuid.New()
}

// NewRequestID returns an identifier for a single outbound request.
func NewRequestID() string {
	return uuid.NewString()
}

// Apply sets the tag's headers on h. Empty fields are left unset so the
// service does not record blank properties.
func (t SessionTag) Apply(h http.Header) {
	if t.SessionID != "" {
		h.Set(HeaderSessionID, t.SessionID)
	}
	if t.SessionName != "" {
		h.Set(HeaderSessionName, t.SessionName)
	}
	if t.SessionPath != "" {
		h.Set(HeaderSessionPath, t.SessionPath)
	}
	if t.PromptID != "" {
		h.Set(HeaderPromptID, t.PromptID)
	}
}
