package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TurnResult records the outcome of one replayed turn.
type TurnResult struct {
	TurnIndex int    `json:"turn_index"`
	PromptID  string `json:"prompt_id,omitempty"`
	RequestID string `json:"request_id"`
	Status    int    `json:"status"`
}

// ReplayReport summarizes a replay run. When a turn fails, Results covers
// the turns that completed before it.
type ReplayReport struct {
	SessionID  string       `json:"session_id"` // the new replay session id
	OriginalID string       `json:"original_id"`
	Name       string       `json:"name,omitempty"`
	Results    []TurnResult `json:"results"`
}

// ReplayProgress is called before each turn is issued.
type ReplayProgress func(index, total int, turn Turn)

// Replayer re-issues a session's turns against the provider gateway under a
// fresh session identifier. The original session is never touched; the
// service logs the replay as a sibling session comparable side by side.
type Replayer struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewReplayer builds a replayer from cfg. A nil client gets a default one
// with the configured timeout; tests inject their own.
func NewReplayer(cfg Config, client *http.Client) *Replayer {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Replayer{
		client:  client,
		baseURL: strings.TrimRight(cfg.GatewayURL, "/"),
		apiKey:  cfg.ProviderKey,
	}
}

// ReplaySession replays the session's turns strictly in sequence order,
// applying rules to each turn first. Later turns may depend on content the
// provider regenerates for earlier ones, so there is no concurrency here.
// Failure of one turn stops the run and surfaces a ReplayError with the turn
// index and prompt id; the report still covers completed turns.
func (r *Replayer) ReplaySession(ctx context.Context, sess *Session, rules RuleSet, progress ReplayProgress) (*ReplayReport, error) {
	if sess == nil || len(sess.Turns) == 0 {
		var id string
		if sess != nil {
			id = sess.ID
		}
		return nil, &EmptySessionError{SessionID: id}
	}

	report := &ReplayReport{
		SessionID:  NewReplaySessionID(),
		OriginalID: sess.ID,
		Name:       sess.Name,
		Results:    make([]TurnResult, 0, len(sess.Turns)),
	}

	for i, turn := range sess.Turns {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if progress != nil {
			progress(i, len(sess.Turns), turn)
		}

		modified := turn
		if rules != nil {
			modified = rules.Apply(turn)
		}

		result, err := r.issueTurn(ctx, report, modified)
		if err != nil {
			return report, &ReplayError{
				TurnIndex: i,
				PromptID:  turn.PromptID,
				SessionID: report.SessionID,
				Err:       err,
			}
		}
		result.TurnIndex = i
		result.PromptID = turn.PromptID
		report.Results = append(report.Results, result)
	}

	return report, nil
}

// issueTurn posts the turn's body to its originating endpoint, tagged with
// the replay session id and the turn's original path and prompt id.
func (r *Replayer) issueTurn(ctx context.Context, report *ReplayReport, turn Turn) (TurnResult, error) {
	payload, err := json.Marshal(turn.Body)
	if err != nil {
		return TurnResult{}, fmt.Errorf("encoding body: %w", err)
	}

	endpoint := turn.Endpoint
	if endpoint == "" {
		endpoint = "/v1/chat/completions"
	}
	url := r.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return TurnResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	SessionTag{
		SessionID:   report.SessionID,
		SessionName: report.Name,
		SessionPath: turn.Path,
		PromptID:    turn.PromptID,
	}.Apply(req.Header)

	requestID := NewRequestID()
	req.Header.Set(HeaderRequestID, requestID)

	resp, err := r.client.Do(req)
	if err != nil {
		return TurnResult{}, err
	}
	defer resp.Body.Close()
	// The regenerated response is observable upstream; it is not consumed
	// here. Drain it so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TurnResult{}, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	return TurnResult{RequestID: requestID, Status: resp.StatusCode}, nil
}
