package formflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// AnalyzeResult is the decoded body of a completed analyze request. Exactly one
// of JobID or Message is expected to be set; the server contract recognises no
// other shape.
type AnalyzeResult struct {
	JobID   string `json:"job_id"`
	Message string `json:"error"`
}

// Recognized reports whether the response carried either contract field.
func (r AnalyzeResult) Recognized() bool {
	return r.JobID != "" || r.Message != ""
}

// TransportError wraps failures that occurred before a response body was
// obtained, so callers can distinguish them from server-reported errors.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("formflow: network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ClientOption configures a Client before construction.
type ClientOption func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// Client issues analyze submissions against an underwriting server.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient constructs a Client for the given server base URL.
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("formflow: base URL is required")
	}
	base, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("formflow: parse base URL: %w", err)
	}
	client := &Client{base: base, http: http.DefaultClient}
	for _, opt := range options {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Analyze posts the payload as multipart form data to /api/analyze and decodes
// the JSON response. Transport failures are returned as *TransportError; a body
// that is not valid JSON is reported as a decode error.
func (c *Client) Analyze(ctx context.Context, payload url.Values) (AnalyzeResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, value := range payload[key] {
			if err := writer.WriteField(key, value); err != nil {
				return AnalyzeResult{}, fmt.Errorf("formflow: write field %q: %w", key, err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		return AnalyzeResult{}, fmt.Errorf("formflow: close payload: %w", err)
	}

	endpoint := c.base.JoinPath("/api/analyze")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), &buf)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("formflow: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return AnalyzeResult{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AnalyzeResult{}, &TransportError{Err: err}
	}

	var result AnalyzeResult
	if err := json.Unmarshal(body, &result); err != nil {
		return AnalyzeResult{}, fmt.Errorf("formflow: decode response: %w", err)
	}
	return result, nil
}
