// Package browser opens the driver selected by configuration.
package browser

import (
	"context"
	"log/slog"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/browser/cdp"
	"github.com/chiru781/cursior/internal/infra/browser/pw"
	"github.com/chiru781/cursior/internal/infra/browser/wd"
	"github.com/chiru781/cursior/internal/ports"
)

type openFunc func(ctx context.Context, cfg domain.Config) (ports.Browser, error)

type Factory struct {
	log *slog.Logger

	chrome     openFunc
	playwright openFunc
	remote     openFunc
}

type Option func(*Factory)

func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) { f.log = l }
}

func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		log:        slog.Default(),
		chrome:     openChrome,
		playwright: openPlaywright,
		remote:     openRemote,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var _ ports.BrowserFactory = (*Factory)(nil)

// Open starts a session for cfg.Browser. A configured Selenium grid wins;
// otherwise chrome runs on chromedp and firefox/edge on playwright. When a
// non-chrome browser cannot start, chrome is used instead.
func (f *Factory) Open(ctx context.Context, cfg domain.Config) (ports.Browser, error) {
	name := strings.ToLower(cfg.Browser.Name)

	var (
		b   ports.Browser
		err error
	)
	switch {
	case cfg.Browser.RemoteURL != "":
		b, err = f.remote(ctx, cfg)
	case name == "firefox" || name == "edge":
		b, err = f.playwright(ctx, cfg)
		if err != nil && ctx.Err() == nil {
			f.log.Warn("browser.fallback", "requested", name, "using", "chrome", "err", err)
			b, err = f.chrome(ctx, cfg)
		}
	default:
		if name != "chrome" && name != "" {
			f.log.Warn("browser.unknown", "requested", name, "using", "chrome")
		}
		b, err = f.chrome(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}

	f.log.Debug("browser.opened", "browser", name, "remote", cfg.Browser.RemoteURL != "", "headless", cfg.Browser.Headless)
	return WithDefaultWait(b, cfg.Timeouts.Implicit), nil
}

func openChrome(ctx context.Context, cfg domain.Config) (ports.Browser, error) {
	b, err := cdp.Open(ctx, cdp.Options{
		Headless: cfg.Browser.Headless,
		Width:    cfg.Browser.Width,
		Height:   cfg.Browser.Height,
		PageLoad: cfg.Timeouts.PageLoad,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func openPlaywright(ctx context.Context, cfg domain.Config) (ports.Browser, error) {
	b, err := pw.Open(ctx, pw.Options{
		Browser:  cfg.Browser.Name,
		Headless: cfg.Browser.Headless,
		Width:    cfg.Browser.Width,
		Height:   cfg.Browser.Height,
		Wait:     cfg.Timeouts.Implicit,
		PageLoad: cfg.Timeouts.PageLoad,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func openRemote(ctx context.Context, cfg domain.Config) (ports.Browser, error) {
	b, err := wd.Open(ctx, wd.Options{
		URL:      cfg.Browser.RemoteURL,
		Browser:  cfg.Browser.Name,
		Headless: cfg.Browser.Headless,
		Width:    cfg.Browser.Width,
		Height:   cfg.Browser.Height,
		PageLoad: cfg.Timeouts.PageLoad,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}
