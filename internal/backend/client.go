// Package backend implements the bug-tracking API client with retries.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/assisterr/bug-report-bot/internal/domain"
)

const maxErrorBodyLen = 512

// RetryPolicy controls how transient failures are retried.
type RetryPolicy struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	BackoffMultiplier float64
}

// DefaultRetryPolicy returns the standard policy: 3 attempts, 1s initial
// delay, doubling between attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialDelay:      time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Client talks to the bug-tracking backend. Transient failures (network
// errors, timeouts, HTTP 5xx) are retried per policy; HTTP 4xx fails
// immediately. Safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	policy  RetryPolicy
	logger  *slog.Logger

	// sleep is swappable in tests to observe backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a backend client. timeout bounds each individual attempt.
func New(baseURL, token string, timeout time.Duration, policy RetryPolicy) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		policy:  policy,
		logger:  slog.Default(),
		sleep:   sleepContext,
	}
}

// CreateBugResponse is the backend acknowledgement of a new report.
type CreateBugResponse struct {
	ID        string        `json:"id"`
	Status    domain.Status `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// CreateBug submits a completed bug report.
func (c *Client) CreateBug(ctx context.Context, report domain.BugReport) (*CreateBugResponse, error) {
	var resp CreateBugResponse
	if err := c.do(ctx, http.MethodPost, "/bugs", nil, report, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListBugs fetches the most recent reports filed by one Telegram user.
func (c *Client) ListBugs(ctx context.Context, telegramID int64, limit int) ([]domain.BugSummary, error) {
	query := url.Values{}
	query.Set("reporter.telegram_id", strconv.FormatInt(telegramID, 10))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("sort", "-created_at")

	var resp struct {
		Data []domain.BugSummary `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/bugs", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetBug fetches the full record for one bug.
func (c *Client) GetBug(ctx context.Context, id string) (*domain.BugDetails, error) {
	var bug domain.BugDetails
	if err := c.do(ctx, http.MethodGet, "/bugs/"+url.PathEscape(id), nil, nil, &bug); err != nil {
		return nil, err
	}
	return &bug, nil
}

// GetStats fetches tracker-wide aggregate counts.
func (c *Client) GetStats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	if err := c.do(ctx, http.MethodGet, "/bugs/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// UpdateBugStatus moves a bug to a new lifecycle state.
func (c *Client) UpdateBugStatus(ctx context.Context, id string, status domain.Status) (*domain.BugDetails, error) {
	body := map[string]domain.Status{"status": status}
	var bug domain.BugDetails
	if err := c.do(ctx, http.MethodPatch, "/bugs/"+url.PathEscape(id), nil, body, &bug); err != nil {
		return nil, err
	}
	return &bug, nil
}

// do runs one logical operation: an explicit attempt loop with exponential
// backoff between transient failures. The delay sequence for the default
// policy is 1s, 2s, with no delay after the final attempt.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	delay := c.policy.InitialDelay
	var last *Error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			c.logger.Info("retrying backend request",
				"method", method, "path", path, "attempt", attempt, "delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				return err
			}
			delay = time.Duration(float64(delay) * c.policy.BackoffMultiplier)
		}

		status, respBody, err := c.attempt(ctx, method, path, query, payload)
		switch {
		case err != nil:
			// Connection failure or timeout; no response arrived.
			c.logger.Warn("backend request failed",
				"method", method, "path", path, "attempt", attempt, "error", err)
			last = &Error{Kind: FailureNetworkExhausted, Attempts: attempt, Err: err}

		case status >= 500:
			c.logger.Warn("backend server error",
				"method", method, "path", path, "attempt", attempt, "status", status)
			last = &Error{Kind: FailureServerExhausted, StatusCode: status, Attempts: attempt, Body: truncate(respBody)}

		case status >= 400:
			// Client errors are permanent: retrying would not change the outcome.
			return &Error{Kind: FailurePermanent, StatusCode: status, Attempts: attempt, Body: truncate(respBody)}

		default:
			c.logger.Info("backend request ok", "method", method, "path", path, "status", status)
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decode backend response: %w", err)
			}
			return nil
		}
	}

	return last
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, payload []byte) (int, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Internal-Token", c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func truncate(body []byte) string {
	s := string(body)
	if len(s) > maxErrorBodyLen {
		return s[:maxErrorBodyLen] + "..."
	}
	return s
}

// sleepContext waits for d without blocking shutdown: it returns early
// with the context error if ctx is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
