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

// queryRequest mirrors the service's request-search payload.
type queryRequest struct {
	Filter queryFilter `json:"filter"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

type queryFilter struct {
	Properties map[string]queryEquals `json:"properties"`
}

type queryEquals struct {
	Equals string `json:"equals"`
}

type queryResponse struct {
	Data []RawRecord `json:"data"`
}

// Fetcher retrieves logged session records from the observability service.
type Fetcher struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	pageSize int
}

// NewFetcher builds a fetcher from cfg. A nil client gets a default one with
// the configured timeout; tests inject their own.
func NewFetcher(cfg Config, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Fetcher{
		client:   client,
		baseURL:  strings.TrimRight(cfg.ObservabilityURL, "/"),
		apiKey:   cfg.ObservabilityKey,
		pageSize: pageSize,
	}
}

// FetchSession returns every logged record tagged with sessionID, paging
// through the query endpoint until a short page. Records duplicated across
// page boundaries are dropped before return.
func (f *Fetcher) FetchSession(ctx context.Context, sessionID string) ([]RawRecord, error) {
	var records []RawRecord
	for offset := 0; ; offset += f.pageSize {
		page, err := f.queryPage(ctx, sessionID, offset)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
		if len(page) < f.pageSize {
			break
		}
	}

	records = DedupeRecords(records)
	if len(records) == 0 {
		return nil, &EmptySessionError{SessionID: sessionID}
	}
	LogDebug("Fetched %d record(s) for session %s", len(records), sessionID)
	return records, nil
}

func (f *Fetcher) queryPage(ctx context.Context, sessionID string, offset int) ([]RawRecord, error) {
	url := f.baseURL + "/v1/request/query"

	payload, err := json.Marshal(queryRequest{
		Filter: queryFilter{
			Properties: map[string]queryEquals{
				PropSessionID: {Equals: sessionID},
			},
		},
		Limit:  f.pageSize,
		Offset: offset,
	})
	if err != nil {
		return nil, &RetrievalError{URL: url, Err: fmt.Errorf("encoding query: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &RetrievalError{URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &RetrievalError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &RetrievalError{
			URL:    url,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", strings.TrimSpace(string(detail))),
		}
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &RetrievalError{URL: url, Status: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return out.Data, nil
}

// Ping reports whether the service answers HTTP at all. Any status counts as
// reachable; only transport failures do not.
func (f *Fetcher) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/healthcheck", nil)
	if err != nil {
		return &RetrievalError{URL: f.baseURL, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return &RetrievalError{URL: f.baseURL, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
