package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
)

func noWait() backoff.BackOff { return &backoff.ZeroBackOff{} }

func TestExecutorTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	exec := NewExecutor(WithTimeout(20*time.Millisecond), WithRetries(0))

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}

	resp, err := exec.Do(context.Background(), req)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if resp.Duration <= 0 {
		t.Fatalf("expected duration to be set")
	}
}

func TestExecutorRetriesIdempotentRequests(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	exec := NewExecutor(WithRetries(3), WithBackOff(noWait))
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+"/health", nil)

	resp, err := exec.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != http.StatusOK || resp.Attempts != 3 {
		t.Fatalf("expected success on third attempt, got status=%d attempts=%d", resp.Status, resp.Attempts)
	}
	if !strings.Contains(string(resp.BodyBytes), "ok") {
		t.Fatalf("unexpected body %q", resp.BodyBytes)
	}
}

func TestExecutorReturnsLastResponseWhenRetriesRunOut(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	exec := NewExecutor(WithRetries(2), WithBackOff(noWait))
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)

	resp, err := exec.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("expected the final response, got error %v", err)
	}
	if resp.Status != http.StatusBadGateway || calls.Load() != 3 {
		t.Fatalf("expected 3 attempts ending in 502, got status=%d calls=%d", resp.Status, calls.Load())
	}
}

func TestExecutorDoesNotRetryPost(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	exec := NewExecutor(WithRetries(3), WithBackOff(noWait))
	req, err := BuildRequest(context.Background(), Request{Method: http.MethodPost, URL: server.URL, JSON: map[string]int{"quantity": 1}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	resp, err := exec.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 || resp.Attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}
