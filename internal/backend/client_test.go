package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/assisterr/bug-report-bot/internal/domain"
)

// recordedSleeps swaps the client's sleep hook so tests can assert backoff
// delays without waiting for them.
func recordedSleeps(c *Client) *[]time.Duration {
	var delays []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return &delays
}

func testReport() domain.BugReport {
	env := domain.EnvironmentProd
	prio := domain.PriorityCritical
	draft := domain.Draft{Description: "Transfer button missing", Environment: &env, Priority: &prio}
	report, _ := draft.Report(domain.Reporter{TelegramID: 42, Username: "alice"})
	return report
}

func TestCreateBugRetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.Header.Get("X-Internal-Token") != "secret" {
			t.Errorf("missing internal token header")
		}
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"BUG-001","status":"OPEN","created_at":"2026-08-30T12:00:00Z"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", time.Second, DefaultRetryPolicy())
	delays := recordedSleeps(c)

	resp, err := c.CreateBug(context.Background(), testReport())
	if err != nil {
		t.Fatalf("CreateBug failed: %v", err)
	}
	if resp.ID != "BUG-001" || resp.Status != domain.StatusOpen {
		t.Errorf("unexpected response: %+v", resp)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected exactly 3 calls, got %d", got)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), *delays)
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Errorf("sleep %d: expected %v, got %v", i, d, (*delays)[i])
		}
	}
}

func TestCreateBugServerExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", time.Second, DefaultRetryPolicy())
	recordedSleeps(c)

	_, err := c.CreateBug(context.Background(), testReport())
	if err == nil {
		t.Fatal("expected failure")
	}
	var berr *Error
	if !errors.As(err, &berr) {
		t.Fatalf("expected *backend.Error, got %T", err)
	}
	if berr.Kind != FailureServerExhausted {
		t.Errorf("expected server-exhausted, got %v", berr.Kind)
	}
	if !berr.Transient() {
		t.Error("server-exhausted failure must classify as transient, not permanent")
	}
	if berr.Attempts != 3 {
		t.Errorf("expected 3 attempts recorded, got %d", berr.Attempts)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected exactly 3 calls, got %d", got)
	}
}

func TestCreateBugPermanentFailureNoRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"title is required"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", time.Second, DefaultRetryPolicy())
	delays := recordedSleeps(c)

	_, err := c.CreateBug(context.Background(), testReport())
	var berr *Error
	if !errors.As(err, &berr) {
		t.Fatalf("expected *backend.Error, got %v", err)
	}
	if berr.Kind != FailurePermanent {
		t.Errorf("expected permanent failure, got %v", berr.Kind)
	}
	if berr.Transient() {
		t.Error("4xx must not classify as transient")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 call, got %d", got)
	}
	if len(*delays) != 0 {
		t.Errorf("expected no sleeps, got %v", *delays)
	}
}

func TestNetworkFailureExhausted(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from now on

	c := New(srv.URL, "secret", time.Second, DefaultRetryPolicy())
	recordedSleeps(c)

	_, err := c.GetStats(context.Background())
	var berr *Error
	if !errors.As(err, &berr) {
		t.Fatalf("expected *backend.Error, got %v", err)
	}
	if berr.Kind != FailureNetworkExhausted {
		t.Errorf("expected network-exhausted, got %v", berr.Kind)
	}
	if berr.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", berr.Attempts)
	}
}

func TestListBugsQueryParameters(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("reporter.telegram_id") != "42" {
			t.Errorf("unexpected reporter filter: %q", q.Get("reporter.telegram_id"))
		}
		if q.Get("limit") != "10" || q.Get("sort") != "-created_at" {
			t.Errorf("unexpected query: %v", q)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"BUG-001","title":"t","status":"OPEN","priority":"LOW","environment":"DEV","created_at":"2026-08-30T12:00:00Z"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", time.Second, DefaultRetryPolicy())
	bugs, err := c.ListBugs(context.Background(), 42, 10)
	if err != nil {
		t.Fatalf("ListBugs failed: %v", err)
	}
	if len(bugs) != 1 || bugs[0].ID != "BUG-001" {
		t.Errorf("unexpected bugs: %+v", bugs)
	}
}

func TestGetBugNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", time.Second, DefaultRetryPolicy())
	_, err := c.GetBug(context.Background(), "BUG-404")
	var berr *Error
	if !errors.As(err, &berr) {
		t.Fatalf("expected *backend.Error, got %v", err)
	}
	if !berr.NotFound() {
		t.Errorf("expected NotFound classification, got %+v", berr)
	}
}

func TestRetrySleepAbortsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", time.Second, RetryPolicy{MaxAttempts: 3, InitialDelay: time.Minute, BackoffMultiplier: 2})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetStats(ctx)
		done <- err
	}()

	// Give the first attempt time to fail, then cancel during the backoff wait.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry sleep did not honor context cancellation")
	}
}
