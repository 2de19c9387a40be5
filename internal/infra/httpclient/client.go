package httpclient

import (
	"net"
	"net/http"
	"time"

	"github.com/chiru781/cursior/internal/domain"
)

type Config struct {
	// Timeout bounds one attempt including reading the body.
	Timeout time.Duration

	DialTimeout     time.Duration
	KeepAlive       time.Duration
	TLSHandshake    time.Duration
	ResponseHeader  time.Duration
	IdleConnTimeout time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int

	// Retries is the number of extra attempts for retryable responses.
	Retries int
}

func DefaultConfig() Config {
	return Config{
		Timeout:             30 * time.Second,
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshake:        5 * time.Second,
		ResponseHeader:      30 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		Retries:             3,
	}
}

// ConfigFrom applies API_TIMEOUT and API_RETRIES to the defaults.
func ConfigFrom(cfg domain.Config) Config {
	c := DefaultConfig()
	if cfg.Runtime.APITimeout > 0 {
		c.Timeout = cfg.Runtime.APITimeout
		if c.ResponseHeader > c.Timeout {
			c.ResponseHeader = c.Timeout
		}
	}
	c.Retries = cfg.Runtime.APIRetries
	return c
}

func New(cfg Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	tr := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		ForceAttemptHTTP2: true,

		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,

		TLSHandshakeTimeout:   cfg.TLSHandshake,
		ResponseHeaderTimeout: cfg.ResponseHeader,
	}

	return &http.Client{
		Transport: tr,
		Timeout:   cfg.Timeout,
	}
}
