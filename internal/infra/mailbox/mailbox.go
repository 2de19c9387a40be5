// Package mailbox checks delivered mail through the HTTP API of a test
// mail catcher such as Mailpit.
package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/httpclient"
	"github.com/chiru781/cursior/internal/ports"
)

const DefaultInterval = 2 * time.Second

var errNotYet = errors.New("no matching email yet")

type Client struct {
	baseURL  string
	enabled  bool
	http     *http.Client
	interval time.Duration
	log      *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

var _ ports.Mailbox = (*Client)(nil)

// New builds a mailbox client. When email testing is disabled every wait
// succeeds immediately.
func New(cfg domain.Config, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.Email.MailboxURL, "/"),
		enabled:  cfg.Features.Email,
		http:     httpclient.New(httpclient.ConfigFrom(cfg)),
		interval: DefaultInterval,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Messages []struct {
		ID      string    `json:"ID"`
		From    address   `json:"From"`
		To      []address `json:"To"`
		Subject string    `json:"Subject"`
		Created time.Time `json:"Created"`
	} `json:"messages"`
}

type address struct {
	Name    string `json:"Name"`
	Address string `json:"Address"`
}

// Messages lists the mail delivered to recipient.
func (c *Client) Messages(ctx context.Context, recipient string) ([]domain.Email, error) {
	const op = "mailbox.search"
	if c.baseURL == "" {
		return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Err: fmt.Errorf("MAILBOX_API_URL is not set")}
	}

	req, err := httpclient.BuildRequest(ctx, httpclient.Request{
		URL:   c.baseURL + "/api/v1/search",
		Query: url.Values{"query": {"to:" + recipient}},
	})
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: c.baseURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: c.baseURL, Err: err}
	}

	out := make([]domain.Email, 0, len(sr.Messages))
	for _, m := range sr.Messages {
		e := domain.Email{ID: m.ID, From: m.From.Address, Subject: m.Subject, Created: m.Created}
		for _, to := range m.To {
			e.To = append(e.To, to.Address)
		}
		out = append(out, e)
	}
	return out, nil
}

// WaitForEmail polls until a message to recipient whose subject contains
// subjectContains arrives. A timeout yields (false, nil) unless the last
// check failed, in which case that failure is returned.
func (c *Client) WaitForEmail(ctx context.Context, recipient, subjectContains string, timeout time.Duration) (bool, error) {
	if !c.enabled {
		c.log.Info("email testing is disabled", "recipient", recipient)
		return true, nil
	}
	if c.baseURL == "" {
		return false, &domain.OpError{Op: "mailbox.wait", Kind: domain.KindInvalidConfig, Err: fmt.Errorf("MAILBOX_API_URL is not set")}
	}

	c.log.Info("waiting for email", "recipient", recipient, "subject", subjectContains, "timeout", timeout)
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	want := strings.ToLower(subjectContains)
	var lastErr error
	_, err := backoff.Retry(waitCtx, func() (bool, error) {
		msgs, err := c.Messages(waitCtx, recipient)
		if err != nil {
			if domain.IsKind(err, domain.KindInvalidConfig) {
				return false, backoff.Permanent(err)
			}
			if waitCtx.Err() == nil {
				lastErr = err
			}
			c.log.Warn("mailbox check failed", "err", err)
			return false, err
		}
		lastErr = nil
		for _, m := range msgs {
			if strings.Contains(strings.ToLower(m.Subject), want) {
				return true, nil
			}
		}
		return false, errNotYet
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.interval)),
		backoff.WithMaxElapsedTime(timeout),
	)

	switch {
	case err == nil:
		c.log.Info("email received", "recipient", recipient)
		return true, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case domain.IsKind(err, domain.KindInvalidConfig):
		return false, err
	case lastErr != nil:
		c.log.Warn("mailbox unreachable", "recipient", recipient, "err", lastErr)
		return false, lastErr
	default:
		c.log.Warn("email not received", "recipient", recipient, "subject", subjectContains)
		return false, nil
	}
}
