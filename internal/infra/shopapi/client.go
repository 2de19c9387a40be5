// Package shopapi is the HTTP client for the REST API of the shop under test.
package shopapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/httpclient"
	"github.com/chiru781/cursior/internal/ports"
)

// maxLoggedBody caps how much of a response body reaches the log.
const maxLoggedBody = 2048

type Client struct {
	baseURL string
	exec    *httpclient.Executor
	log     *slog.Logger

	mu    sync.RWMutex
	token string
}

var _ ports.ShopAPI = (*Client)(nil)

type Option func(*Client)

func WithExecutor(e *httpclient.Executor) Option {
	return func(c *Client) { c.exec = e }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New builds a client for API_BASE_URL with the configured timeout and
// retries.
func New(cfg domain.Config, opts ...Option) *Client {
	hc := httpclient.ConfigFrom(cfg)
	c := &Client{
		baseURL: strings.TrimRight(cfg.App.APIBaseURL, "/"),
		exec: httpclient.NewExecutor(
			httpclient.WithClient(httpclient.New(hc)),
			httpclient.WithTimeout(hc.Timeout),
			httpclient.WithRetries(hc.Retries),
		),
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.log.Info("api.auth.token_set")
}

func (c *Client) ClearAuthToken() {
	c.mu.Lock()
	had := c.token != ""
	c.token = ""
	c.mu.Unlock()
	if had {
		c.log.Info("api.auth.token_cleared")
	}
}

// Do sends one request to endpoint, relative to the API base URL.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any, query url.Values) domain.APIResponse {
	const op = "shopapi.do"
	target := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")

	headers := map[string]string{}
	c.mu.RLock()
	if c.token != "" {
		headers["Authorization"] = "Bearer " + c.token
	}
	c.mu.RUnlock()

	c.log.Info("api.request", "method", strings.ToUpper(method), "url", target)
	if body != nil {
		if b, err := json.Marshal(body); err == nil {
			c.log.Debug("api.request.payload", "body", string(b))
		}
	}

	req, err := httpclient.BuildRequest(ctx, httpclient.Request{
		Method:  method,
		URL:     target,
		Query:   query,
		Headers: headers,
		JSON:    body,
	})
	if err != nil {
		c.log.Error("api.request.invalid", "url", target, "err", err)
		return domain.APIResponse{Err: err}
	}

	data, err := c.exec.Do(ctx, req)
	if err != nil {
		c.log.Error("api.request.failed", "url", target, "duration", data.Duration, "err", err)
		return domain.APIResponse{
			Duration: data.Duration,
			Err:      &domain.OpError{Op: op, Kind: domain.KindExecution, Path: endpoint, Err: err},
		}
	}

	resp := domain.APIResponse{
		StatusCode: data.Status,
		Headers:    map[string][]string(data.Headers),
		Raw:        data.BodyBytes,
		Duration:   data.Duration,
		Data:       string(data.BodyBytes),
	}
	if httpclient.IsJSON(data.Headers.Get("Content-Type")) && len(data.BodyBytes) > 0 {
		var v any
		if err := json.Unmarshal(data.BodyBytes, &v); err == nil {
			resp.Data = v
		} else {
			c.log.Warn("api.response.bad_json", "url", target, "err", err)
		}
	}

	c.log.Info("api.response", "status", data.Status, "duration", data.Duration, "attempts", data.Attempts)
	c.log.Debug("api.response.body", "body", truncate(data.BodyBytes, maxLoggedBody))
	return resp
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) domain.APIResponse {
	return c.Do(ctx, http.MethodGet, endpoint, nil, query)
}

func (c *Client) post(ctx context.Context, endpoint string, body any) domain.APIResponse {
	return c.Do(ctx, http.MethodPost, endpoint, body, nil)
}

func (c *Client) put(ctx context.Context, endpoint string, body any) domain.APIResponse {
	return c.Do(ctx, http.MethodPut, endpoint, body, nil)
}

func (c *Client) patch(ctx context.Context, endpoint string, body any) domain.APIResponse {
	return c.Do(ctx, http.MethodPatch, endpoint, body, nil)
}

func (c *Client) remove(ctx context.Context, endpoint string) domain.APIResponse {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// WaitReady polls the health endpoint until it answers 200.
func (c *Client) WaitReady(ctx context.Context, attempts int, delay time.Duration) bool {
	if attempts <= 0 {
		attempts = 30
	}
	if delay <= 0 {
		delay = time.Second
	}
	for i := 1; i <= attempts; i++ {
		if r := c.Health(ctx); r.StatusCode == http.StatusOK {
			c.log.Info("api.ready")
			return true
		}
		c.log.Info("api.not_ready", "attempt", i, "of", attempts)
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
	}
	c.log.Error("api.ready.timeout", "attempts", attempts)
	return false
}
