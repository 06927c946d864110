package internal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsly/session-replay/testutil"
)

func fetcherConfig() Config {
	return Config{
		ObservabilityURL: "https://api.example.com",
		ObservabilityKey: "test-key",
		Timeout:          5 * time.Second,
		PageSize:         2,
	}
}

func recordSpec(id string, minute int) testutil.RecordSpec {
	return testutil.RecordSpec{
		RequestID: id,
		CreatedAt: time.Date(2026, 8, 1, 12, minute, 0, 0, time.UTC),
		SessionID: "sess-1",
		System:    "Be concise.",
		User:      "Argue your side.",
	}
}

func TestFetchSession(t *testing.T) {
	rt := &testutil.RecordingTransport{
		Handler: func(req *http.Request) (*http.Response, error) {
			return testutil.JSONResponse(http.StatusOK, testutil.QueryResponse(recordSpec("r1", 0))), nil
		},
	}
	f := NewFetcher(fetcherConfig(), rt.Client())

	records, err := f.FetchSession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "r1", records[0].RequestID)
	assert.Equal(t, "sess-1", records[0].SessionID())

	reqs := rt.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "https://api.example.com/v1/request/query", reqs[0].URL)
	assert.Equal(t, "Bearer test-key", reqs[0].Header.Get("Authorization"))
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
}

func TestFetchSessionQueryBody(t *testing.T) {
	rt := &testutil.RecordingTransport{
		Handler: func(req *http.Request) (*http.Response, error) {
			return testutil.JSONResponse(http.StatusOK, testutil.QueryResponse(recordSpec("r1", 0))), nil
		},
	}
	f := NewFetcher(fetcherConfig(), rt.Client())

	_, err := f.FetchSession(context.Background(), "sess-1")
	require.NoError(t, err)

	var query struct {
		Filter struct {
			Properties map[string]struct {
				Equals string `json:"equals"`
			} `json:"properties"`
		} `json:"filter"`
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}
	testutil.JSONUnmarshal(t, rt.Requests()[0].Body, &query)
	assert.Equal(t, "sess-1", query.Filter.Properties[PropSessionID].Equals)
	assert.Equal(t, 2, query.Limit)
	assert.Equal(t, 0, query.Offset)
}

func TestFetchSessionPagination(t *testing.T) {
	pages := [][]testutil.RecordSpec{
		{recordSpec("r1", 0), recordSpec("r2", 1)},
		// r2 repeats across the page boundary; dedupe should drop it.
		{recordSpec("r2", 1), recordSpec("r3", 2)},
		{recordSpec("r4", 3)},
	}

	rt := &testutil.RecordingTransport{
		Handler: func(req *http.Request) (*http.Response, error) {
			var query struct {
				Offset int `json:"offset"`
			}
			if err := json.NewDecoder(req.Body).Decode(&query); err != nil {
				return testutil.JSONResponse(http.StatusBadRequest, map[string]any{"error": err.Error()}), nil
			}
			page := query.Offset / 2
			if page >= len(pages) {
				return testutil.JSONResponse(http.StatusOK, testutil.QueryResponse()), nil
			}
			return testutil.JSONResponse(http.StatusOK, testutil.QueryResponse(pages[page]...)), nil
		},
	}
	f := NewFetcher(fetcherConfig(), rt.Client())

	records, err := f.FetchSession(context.Background(), "sess-1")
	require.NoError(t, err)

	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.RequestID
	}
	assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, ids)

	// Third page was short, so exactly three requests went out.
	assert.Len(t, rt.Requests(), 3)
}

func TestFetchSessionEmpty(t *testing.T) {
	rt := &testutil.RecordingTransport{
		Handler: func(req *http.Request) (*http.Response, error) {
			return testutil.JSONResponse(http.StatusOK, testutil.QueryResponse()), nil
		},
	}
	f := NewFetcher(fetcherConfig(), rt.Client())

	_, err := f.FetchSession(context.Background(), "sess-404")
	var emptyErr *EmptySessionError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, "sess-404", emptyErr.SessionID)
}

func TestFetchSessionServerError(t *testing.T) {
	rt := &testutil.RecordingTransport{
		Handler: func(req *http.Request) (*http.Response, error) {
			return testutil.JSONResponse(http.StatusUnauthorized, map[string]any{"error": "invalid api key"}), nil
		},
	}
	f := NewFetcher(fetcherConfig(), rt.Client())

	_, err := f.FetchSession(context.Background(), "sess-1")
	var retErr *RetrievalError
	require.ErrorAs(t, err, &retErr)
	assert.Equal(t, http.StatusUnauthorized, retErr.Status)
	assert.Contains(t, retErr.Error(), "invalid api key")
}

func TestFetchSessionTransportError(t *testing.T) {
	client := testutil.NewClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	f := NewFetcher(fetcherConfig(), client)

	_, err := f.FetchSession(context.Background(), "sess-1")
	var retErr *RetrievalError
	require.ErrorAs(t, err, &retErr)
	assert.Zero(t, retErr.Status)
}

func TestFetcherPing(t *testing.T) {
	rt := &testutil.RecordingTransport{
		Handler: func(req *http.Request) (*http.Response, error) {
			return testutil.JSONResponse(http.StatusNotFound, map[string]any{}), nil
		},
	}
	f := NewFetcher(fetcherConfig(), rt.Client())

	// Any HTTP answer counts as reachable.
	require.NoError(t, f.Ping(context.Background()))

	reqs := rt.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "https://api.example.com/healthcheck", reqs[0].URL)

	down := NewFetcher(fetcherConfig(), testutil.NewClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("no route to host")
	}))
	require.Error(t, down.Ping(context.Background()))
}
