package testutil

import "time"

// RecordSpec describes one logged request for building query-API fixtures.
// Only wire-level shapes live here so both internal and cmd tests can use
// them without import cycles.
type RecordSpec struct {
	RequestID   string
	CreatedAt   time.Time
	Endpoint    string
	SessionID   string
	SessionName string
	SessionPath string
	PromptID    string
	Model       string
	System      string
	User        string
}

// RecordObject builds the JSON object the query endpoint returns for one
// logged request.
func RecordObject(spec RecordSpec) map[string]any {
	endpoint := spec.Endpoint
	if endpoint == "" {
		endpoint = "/v1/chat/completions"
	}
	model := spec.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	var messages []map[string]any
	if spec.System != "" {
		messages = append(messages, map[string]any{"role": "system", "content": spec.System})
	}
	if spec.User != "" {
		messages = append(messages, map[string]any{"role": "user", "content": spec.User})
	}

	properties := map[string]any{}
	if spec.SessionID != "" {
		properties["Helicone-Session-Id"] = spec.SessionID
	}
	if spec.SessionName != "" {
		properties["Helicone-Session-Name"] = spec.SessionName
	}
	if spec.SessionPath != "" {
		properties["Helicone-Session-Path"] = spec.SessionPath
	}
	if spec.PromptID != "" {
		properties["Helicone-Prompt-Id"] = spec.PromptID
	}

	return map[string]any{
		"request_id":         spec.RequestID,
		"request_created_at": spec.CreatedAt.Format(time.RFC3339Nano),
		"request_path":       endpoint,
		"request_properties": properties,
		"request_body": map[string]any{
			"model":    model,
			"messages": messages,
		},
	}
}

// QueryResponse builds the query endpoint's response envelope.
func QueryResponse(specs ...RecordSpec) map[string]any {
	records := make([]map[string]any, 0, len(specs))
	for _, spec := range specs {
		records = append(records, RecordObject(spec))
	}
	return map[string]any{"data": records}
}
