package internal

import (
	"encoding/json"
	"time"
)

// Property keys under which the observability service stores the session
// metadata attached to each logged request.
const (
	PropSessionID   = "Helicone-Session-Id"
	PropSessionName = "Helicone-Session-Name"
	PropSessionPath = "Helicone-Session-Path"
	PropPromptID    = "Helicone-Prompt-Id"
)

// RawRecord is one logged request as returned by the service's query
// endpoint. The service schema is wider than this; unknown fields are
// ignored on decode.
type RawRecord struct {
	RequestID         string            `json:"request_id"`
	RequestCreatedAt  time.Time         `json:"request_created_at"`
	RequestPath       string            `json:"request_path"`
	RequestProperties map[string]string `json:"request_properties"`
	RequestBody       json.RawMessage   `json:"request_body"`
	SignedBodyURL     string            `json:"signed_body_url"`
}

// Property returns a request property value, or "" when absent.
func (r *RawRecord) Property(key string) string {
	if r.RequestProperties == nil {
		return ""
	}
	return r.RequestProperties[key]
}

// SessionID returns the session identifier the record was tagged with.
func (r *RawRecord) SessionID() string {
	return r.Property(PropSessionID)
}

// SessionName returns the human-readable session name.
func (r *RawRecord) SessionName() string {
	return r.Property(PropSessionName)
}

// SessionPath returns the hierarchical session path.
func (r *RawRecord) SessionPath() string {
	return r.Property(PropSessionPath)
}

// PromptID returns the prompt identifier, used to select modification rules.
func (r *RawRecord) PromptID() string {
	return r.Property(PropPromptID)
}
