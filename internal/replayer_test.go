package internal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsly/session-replay/testutil"
)

func replayerConfig() Config {
	return Config{
		GatewayURL:  "https://gateway.example.com",
		ProviderKey: "provider-key",
		Timeout:     5 * time.Second,
	}
}

func debateSession() *Session {
	return &Session{
		ID:   "sess-1",
		Name: "Debate",
		Turns: []Turn{
			debateTurn("assistant-argument", "You argue a position.", "Argue for remote work."),
			debateTurn("assistant-argument", "You argue a position.", "Argue against remote work."),
			debateTurn("argument-evaluation", "You evaluate arguments.", "Who won?"),
		},
	}
}

func TestReplaySession(t *testing.T) {
	rt := &testutil.RecordingTransport{}
	r := NewReplayer(replayerConfig(), rt.Client())

	report, err := r.ReplaySession(context.Background(), debateSession(), nil, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(report.SessionID, "replay-"), "SessionID = %q", report.SessionID)
	assert.NotEqual(t, "sess-1", report.SessionID)
	assert.Equal(t, "sess-1", report.OriginalID)
	assert.Equal(t, "Debate", report.Name)
	require.Len(t, report.Results, 3)
	for i, result := range report.Results {
		assert.Equal(t, i, result.TurnIndex)
		assert.Equal(t, http.StatusOK, result.Status)
		assert.NotEmpty(t, result.RequestID)
	}

	reqs := rt.Requests()
	require.Len(t, reqs, 3)
	for i, req := range reqs {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "https://gateway.example.com/v1/chat/completions", req.URL)
		assert.Equal(t, "Bearer provider-key", req.Header.Get("Authorization"))
		assert.Equal(t, report.SessionID, req.Header.Get(HeaderSessionID))
		assert.Equal(t, "Debate", req.Header.Get(HeaderSessionName))
		assert.Equal(t, "/debate", req.Header.Get(HeaderSessionPath))
		assert.Equal(t, report.Results[i].RequestID, req.Header.Get(HeaderRequestID))
	}
	assert.Equal(t, "assistant-argument", reqs[0].Header.Get(HeaderPromptID))
	assert.Equal(t, "argument-evaluation", reqs[2].Header.Get(HeaderPromptID))
}

func TestReplaySessionSequentialOrder(t *testing.T) {
	rt := &testutil.RecordingTransport{}
	r := NewReplayer(replayerConfig(), rt.Client())

	var progressOrder []int
	progress := func(index, total int, turn Turn) {
		progressOrder = append(progressOrder, index)
		assert.Equal(t, 3, total)
	}

	_, err := r.ReplaySession(context.Background(), debateSession(), nil, progress)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, progressOrder)

	// Bodies must go out in session order.
	reqs := rt.Requests()
	wantUsers := []string{"Argue for remote work.", "Argue against remote work.", "Who won?"}
	for i, req := range reqs {
		var body ChatBody
		testutil.JSONUnmarshal(t, req.Body, &body)
		idx := body.FindRole(RoleUser)
		require.GreaterOrEqual(t, idx, 0)
		assert.Equal(t, wantUsers[i], body.Messages[idx].Content)
	}
}

func TestReplaySessionAppliesRules(t *testing.T) {
	rt := &testutil.RecordingTransport{}
	r := NewReplayer(replayerConfig(), rt.Client())

	rules := RuleSet{
		"argument-evaluation": {Action: ActionAppend, Text: " Keep it short."},
	}
	_, err := r.ReplaySession(context.Background(), debateSession(), rules, nil)
	require.NoError(t, err)

	reqs := rt.Requests()
	require.Len(t, reqs, 3)

	var last ChatBody
	testutil.JSONUnmarshal(t, reqs[2].Body, &last)
	idx := last.FindRole(RoleSystem)
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "You evaluate arguments. Keep it short.", last.Messages[idx].Content)

	var first ChatBody
	testutil.JSONUnmarshal(t, reqs[0].Body, &first)
	assert.Equal(t, "You argue a position.", first.Messages[first.FindRole(RoleSystem)].Content)
}

func TestReplaySessionFailureStopsRun(t *testing.T) {
	calls := 0
	rt := &testutil.RecordingTransport{
		Handler: func(req *http.Request) (*http.Response, error) {
			calls++
			if calls == 2 {
				return testutil.JSONResponse(http.StatusTooManyRequests, map[string]any{"error": "rate limited"}), nil
			}
			return testutil.JSONResponse(http.StatusOK, map[string]any{}), nil
		},
	}
	r := NewReplayer(replayerConfig(), rt.Client())

	report, err := r.ReplaySession(context.Background(), debateSession(), nil, nil)

	var replayErr *ReplayError
	require.ErrorAs(t, err, &replayErr)
	assert.Equal(t, 1, replayErr.TurnIndex)
	assert.Equal(t, "assistant-argument", replayErr.PromptID)
	assert.Equal(t, report.SessionID, replayErr.SessionID)

	// The run stops at the failed turn; the report covers what completed.
	require.NotNil(t, report)
	assert.Len(t, report.Results, 1)
	assert.Len(t, rt.Requests(), 2)
}

func TestReplaySessionEmpty(t *testing.T) {
	rt := &testutil.RecordingTransport{}
	r := NewReplayer(replayerConfig(), rt.Client())

	var emptyErr *EmptySessionError
	_, err := r.ReplaySession(context.Background(), nil, nil, nil)
	require.ErrorAs(t, err, &emptyErr)

	_, err = r.ReplaySession(context.Background(), &Session{ID: "sess-1"}, nil, nil)
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, "sess-1", emptyErr.SessionID)

	assert.Empty(t, rt.Requests(), "no requests should go out for an empty session")
}

func TestReplaySessionContextCancel(t *testing.T) {
	rt := &testutil.RecordingTransport{}
	r := NewReplayer(replayerConfig(), rt.Client())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := r.ReplaySession(ctx, debateSession(), nil, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, report.Results)
	assert.Empty(t, rt.Requests())
}

func TestReplaySessionCustomEndpoint(t *testing.T) {
	rt := &testutil.RecordingTransport{}
	r := NewReplayer(replayerConfig(), rt.Client())

	sess := debateSession()
	sess.Turns = sess.Turns[:1]
	sess.Turns[0].Endpoint = "/v1/completions"

	_, err := r.ReplaySession(context.Background(), sess, nil, nil)
	require.NoError(t, err)

	reqs := rt.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "https://gateway.example.com/v1/completions", reqs[0].URL)
}

func TestReplaySessionTransportError(t *testing.T) {
	client := testutil.NewClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset")
	})
	r := NewReplayer(replayerConfig(), client)

	_, err := r.ReplaySession(context.Background(), debateSession(), nil, nil)
	var replayErr *ReplayError
	require.ErrorAs(t, err, &replayErr)
	assert.Equal(t, 0, replayErr.TurnIndex)
}
