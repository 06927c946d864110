package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// RoundTripFunc adapts a function to http.RoundTripper.
type RoundTripFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// NewClient returns an *http.Client backed by fn.
func NewClient(fn RoundTripFunc) *http.Client {
	return &http.Client{Transport: fn}
}

// RecordedRequest is a snapshot of one request seen by a RecordingTransport.
type RecordedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// RecordingTransport records every outbound request and answers each with
// Handler (or 200 {} when Handler is nil).
type RecordingTransport struct {
	mu       sync.Mutex
	Handler  func(*http.Request) (*http.Response, error)
	requests []RecordedRequest
}

// RoundTrip implements http.RoundTripper.
func (rt *RecordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	rt.mu.Lock()
	rt.requests = append(rt.requests, RecordedRequest{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})
	rt.mu.Unlock()

	if rt.Handler != nil {
		return rt.Handler(req)
	}
	return JSONResponse(http.StatusOK, map[string]any{}), nil
}

// Requests returns a copy of the recorded requests in arrival order.
func (rt *RecordingTransport) Requests() []RecordedRequest {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]RecordedRequest, len(rt.requests))
	copy(out, rt.requests)
	return out
}

// Client returns an *http.Client backed by the recording transport.
func (rt *RecordingTransport) Client() *http.Client {
	return &http.Client{Transport: rt}
}

// JSONResponse builds an *http.Response with a JSON-encoded body.
func JSONResponse(status int, v any) *http.Response {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: encoding response: %v", err))
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(data)),
	}
}
