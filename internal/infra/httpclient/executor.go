package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ResponseData captures the response details and duration of the last
// attempt.
type ResponseData struct {
	Status    int
	Headers   http.Header
	BodyBytes []byte
	Duration  time.Duration
	Attempts  int
}

// Executor executes HTTP requests with timing and retries idempotent calls
// that fail with a retryable status.
type Executor struct {
	client  *http.Client
	timeout time.Duration
	retries int
	backoff func() backoff.BackOff
}

type ExecutorOption func(*Executor)

// WithTimeout sets the timeout applied to each attempt.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = timeout }
}

func WithClient(client *http.Client) ExecutorOption {
	return func(e *Executor) { e.client = client }
}

// WithRetries sets how many extra attempts a retryable response gets.
func WithRetries(n int) ExecutorOption {
	return func(e *Executor) { e.retries = n }
}

// WithBackOff replaces the exponential policy between attempts.
func WithBackOff(fn func() backoff.BackOff) ExecutorOption {
	return func(e *Executor) { e.backoff = fn }
}

func NewExecutor(opts ...ExecutorOption) *Executor {
	cfg := DefaultConfig()
	e := &Executor{
		client:  New(cfg),
		timeout: cfg.Timeout,
		retries: cfg.Retries,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.Multiplier = 2
			return b
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// retryStatus lists the statuses worth another attempt.
var retryStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

var errRetryableStatus = errors.New("retryable status")

// Do executes req. A retryable status that persists through every attempt is
// returned as a normal response, not an error.
func (e *Executor) Do(ctx context.Context, req *http.Request) (ResponseData, error) {
	if e.retries <= 0 || !idempotent(req.Method) {
		data, err := e.once(ctx, req)
		data.Attempts = 1
		return data, err
	}

	attempts := 0
	data, err := backoff.Retry(ctx, func() (ResponseData, error) {
		attempts++
		d, err := e.once(ctx, req)
		d.Attempts = attempts
		if err != nil {
			if ctx.Err() != nil {
				return d, backoff.Permanent(err)
			}
			return d, err
		}
		if retryStatus[d.Status] {
			return d, errRetryableStatus
		}
		return d, nil
	},
		backoff.WithBackOff(e.backoff()),
		backoff.WithMaxTries(uint(e.retries+1)),
	)
	if errors.Is(err, errRetryableStatus) {
		return data, nil
	}
	return data, err
}

func (e *Executor) once(ctx context.Context, req *http.Request) (ResponseData, error) {
	start := time.Now()
	attemptCtx := ctx
	cancel := func() {}
	if e.timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, e.timeout)
	}
	defer cancel()

	r := req.Clone(attemptCtx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return ResponseData{}, err
		}
		r.Body = body
	}

	resp, err := e.client.Do(r)
	duration := time.Since(start)
	if err != nil {
		return ResponseData{Duration: duration}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	duration = time.Since(start)
	if err != nil {
		return ResponseData{Duration: duration}, err
	}

	return ResponseData{
		Status:    resp.StatusCode,
		Headers:   resp.Header.Clone(),
		BodyBytes: body,
		Duration:  duration,
	}, nil
}
