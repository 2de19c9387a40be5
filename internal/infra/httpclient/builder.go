package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
)

// Request describes one call to a JSON API.
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Headers map[string]string
	// JSON is marshalled as the body when non-nil.
	JSON any
}

// BuildRequest builds an HTTP request. Bodies are JSON and replayable, so the
// request can be retried.
func BuildRequest(ctx context.Context, r Request) (*http.Request, error) {
	const op = "httpclient.build"
	if strings.TrimSpace(r.URL) == "" {
		return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Err: domain.ErrInvalidConfig}
	}

	target := r.URL
	if len(r.Query) > 0 {
		u, err := url.Parse(r.URL)
		if err != nil {
			return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: r.URL, Err: err}
		}
		q := u.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	var payload []byte
	if r.JSON != nil {
		b, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: r.URL, Err: err}
		}
		payload = b
	}

	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: r.URL, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// IsJSON reports whether a Content-Type header names a JSON payload.
func IsJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}
