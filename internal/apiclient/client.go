// Package apiclient is the single retry policy shared by every external
// JSON API the pipeline talks to. HTTP 429 responses are retried with
// exponential backoff; any other failure surfaces immediately as a typed
// error so callers can tell throttling, upstream faults and network
// faults apart.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Request describes one call to a remote JSON API.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Header http.Header
	Body   any // JSON-encoded when non-nil
}

// Client performs rate-limit-aware HTTP calls against JSON APIs.
type Client struct {
	httpClient *http.Client
	policy     BackoffPolicy
	sleeper    Sleeper
	logger     *slog.Logger

	// OnRetry is invoked once per backoff wait, before sleeping.
	OnRetry func()
}

// New creates a client with the given retry policy.
func New(policy BackoffPolicy, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		policy:  policy,
		sleeper: timerSleeper{},
		logger:  logger,
	}
}

// SetHTTPClient replaces the underlying HTTP client. Used by tests and by
// callers that need custom timeouts.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetSleeper replaces the backoff sleeper. Tests inject a recording
// implementation here.
func (c *Client) SetSleeper(s Sleeper) {
	c.sleeper = s
}

// DoJSON performs the request and decodes a 200 response body into out.
// A nil out discards the body. 429 responses are retried per the policy;
// exceeding it yields *RetriesExhaustedError. Any other non-200 status
// yields *UpstreamError and network failures yield *TransportError, both
// without retry.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			wait := c.policy.Delay(attempt - 1)
			c.logger.Warn("rate limited, backing off",
				"url", req.URL,
				"attempt", attempt,
				"wait", wait,
			)
			if c.OnRetry != nil {
				c.OnRetry()
			}
			if err := c.sleeper.Sleep(ctx, wait); err != nil {
				return &TransportError{Cause: err}
			}
		}

		status, body, err := c.doOnce(ctx, req)
		if err != nil {
			return &TransportError{Cause: err}
		}

		switch {
		case status == http.StatusOK:
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return &UpstreamError{Status: status, Body: fmt.Sprintf("malformed payload: %v", err)}
			}
			return nil
		case status == http.StatusTooManyRequests:
			continue
		default:
			return &UpstreamError{Status: status, Body: string(body)}
		}
	}

	return &RetriesExhaustedError{Attempts: c.policy.MaxAttempts, Last: errRateLimited}
}

func (c *Client) doOnce(ctx context.Context, req Request) (int, []byte, error) {
	var reqBody io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	u := req.URL
	if len(req.Query) > 0 {
		u = u + "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, body, nil
}
