// Package cdp drives Chrome over the DevTools protocol with chromedp.
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/browser/dom"
	"github.com/chiru781/cursior/internal/ports"
)

type Options struct {
	Headless bool
	Width    int
	Height   int
	// PageLoad bounds Navigate, Refresh and Back.
	PageLoad time.Duration
	// ExecPath overrides the Chrome binary lookup.
	ExecPath string
	Logf     func(format string, args ...any)
}

// Browser is a chromedp tab with its own allocator.
type Browser struct {
	opts Options

	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	mu      sync.Mutex
	console []domain.ConsoleEntry
}

var _ ports.Browser = (*Browser)(nil)

// AllocatorOptions returns the exec allocator flags used for every session.
func AllocatorOptions(o Options) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("allow-running-insecure-content", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(o.Width, o.Height),
	)
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	return opts
}

// Open starts Chrome and waits for the first tab. The session outlives ctx;
// call Close to release it.
func Open(ctx context.Context, o Options) (*Browser, error) {
	op := "cdp.open"

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), AllocatorOptions(o)...)

	var ctxOpts []chromedp.ContextOption
	if o.Logf != nil {
		ctxOpts = append(ctxOpts, chromedp.WithErrorf(o.Logf))
	}
	tabCtx, cancel := chromedp.NewContext(allocCtx, ctxOpts...)

	b := &Browser{
		opts:        o,
		allocCancel: allocCancel,
		ctx:         tabCtx,
		cancel:      cancel,
	}

	chromedp.ListenTarget(tabCtx, func(ev any) {
		if e, ok := ev.(*runtime.EventConsoleAPICalled); ok {
			b.record(e)
		}
	})

	// The first Run launches the browser; bound it by the caller's ctx.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()
	select {
	case err := <-started:
		if err != nil {
			b.Close()
			return nil, &domain.OpError{Op: op, Kind: domain.KindBrowser, Err: err}
		}
	case <-ctx.Done():
		b.Close()
		return nil, &domain.OpError{Op: op, Kind: domain.KindTimeout, Err: ctx.Err()}
	}

	return b, nil
}

func (b *Browser) record(e *runtime.EventConsoleAPICalled) {
	msg := ""
	for i, arg := range e.Args {
		if i > 0 {
			msg += " "
		}
		switch {
		case len(arg.Value) > 0:
			var s string
			if json.Unmarshal(arg.Value, &s) == nil {
				msg += s
			} else {
				msg += string(arg.Value)
			}
		case arg.Description != "":
			msg += arg.Description
		}
	}

	b.mu.Lock()
	b.console = append(b.console, domain.ConsoleEntry{
		Level:   string(e.Type),
		Message: msg,
		Time:    time.Now(),
	})
	b.mu.Unlock()
}

// run executes actions on the tab, bounded by ctx.
func (b *Browser) run(ctx context.Context, op string, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return &domain.OpError{Op: op, Kind: domain.KindTimeout, Err: ctx.Err()}
	}
	return &domain.OpError{Op: op, Kind: domain.KindBrowser, Err: err}
}

func (b *Browser) withPageLoad(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.opts.PageLoad <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.opts.PageLoad)
}

func query(loc domain.Locator) (string, chromedp.QueryOption) {
	sel, isXPath := loc.Selector()
	if isXPath {
		return sel, chromedp.BySearch
	}
	return sel, chromedp.ByQuery
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	ctx, cancel := b.withPageLoad(ctx)
	defer cancel()
	return b.run(ctx, "cdp.navigate", chromedp.Navigate(url))
}

func (b *Browser) Refresh(ctx context.Context) error {
	ctx, cancel := b.withPageLoad(ctx)
	defer cancel()
	return b.run(ctx, "cdp.refresh", chromedp.Reload())
}

func (b *Browser) Back(ctx context.Context) error {
	ctx, cancel := b.withPageLoad(ctx)
	defer cancel()
	return b.run(ctx, "cdp.back", chromedp.NavigateBack())
}

func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	var u string
	err := b.run(ctx, "cdp.current_url", chromedp.Location(&u))
	return u, err
}

func (b *Browser) Title(ctx context.Context) (string, error) {
	var t string
	err := b.run(ctx, "cdp.title", chromedp.Title(&t))
	return t, err
}

func (b *Browser) WaitVisible(ctx context.Context, loc domain.Locator) error {
	sel, by := query(loc)
	return b.run(ctx, "cdp.wait_visible", chromedp.WaitVisible(sel, by))
}

func (b *Browser) WaitHidden(ctx context.Context, loc domain.Locator) error {
	for {
		ok, err := b.Visible(ctx, loc)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return &domain.OpError{Op: "cdp.wait_hidden", Kind: domain.KindTimeout, Path: loc.String(), Err: ctx.Err()}
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (b *Browser) Visible(ctx context.Context, loc domain.Locator) (bool, error) {
	var ok bool
	err := b.Eval(ctx, dom.Visible(loc), &ok)
	return ok, err
}

func (b *Browser) Count(ctx context.Context, loc domain.Locator) (int, error) {
	var n int
	err := b.Eval(ctx, dom.Count(loc), &n)
	return n, err
}

func (b *Browser) Click(ctx context.Context, loc domain.Locator) error {
	sel, by := query(loc)
	return b.run(ctx, "cdp.click", chromedp.Click(sel, by))
}

func (b *Browser) Type(ctx context.Context, loc domain.Locator, text string) error {
	sel, by := query(loc)
	return b.run(ctx, "cdp.type",
		chromedp.WaitVisible(sel, by),
		chromedp.Clear(sel, by),
		chromedp.SendKeys(sel, text, by),
	)
}

func (b *Browser) PressEnter(ctx context.Context, loc domain.Locator) error {
	sel, by := query(loc)
	return b.run(ctx, "cdp.press_enter", chromedp.SendKeys(sel, kb.Enter, by))
}

func (b *Browser) SelectOption(ctx context.Context, loc domain.Locator, label string) error {
	if err := b.WaitVisible(ctx, loc); err != nil {
		return err
	}
	var ok bool
	if err := b.Eval(ctx, dom.SelectOption(loc, label), &ok); err != nil {
		return err
	}
	if !ok {
		return &domain.OpError{
			Op:   "cdp.select_option",
			Kind: domain.KindNotFound,
			Path: loc.String(),
			Err:  fmt.Errorf("option %q not found", label),
		}
	}
	return nil
}

func (b *Browser) Text(ctx context.Context, loc domain.Locator) (string, error) {
	sel, by := query(loc)
	var s string
	err := b.run(ctx, "cdp.text", chromedp.WaitVisible(sel, by), chromedp.Text(sel, &s, by))
	return s, err
}

func (b *Browser) Texts(ctx context.Context, loc domain.Locator) ([]string, error) {
	var out []string
	err := b.Eval(ctx, dom.Texts(loc), &out)
	return out, err
}

func (b *Browser) Attribute(ctx context.Context, loc domain.Locator, name string) (string, error) {
	sel, by := query(loc)
	var (
		v  string
		ok bool
	)
	err := b.run(ctx, "cdp.attribute", chromedp.AttributeValue(sel, name, &v, &ok, by))
	return v, err
}

func (b *Browser) Selected(ctx context.Context, loc domain.Locator) (bool, error) {
	if err := b.WaitVisible(ctx, loc); err != nil {
		return false, err
	}
	var ok bool
	err := b.Eval(ctx, dom.Selected(loc), &ok)
	return ok, err
}

// Eval evaluates a JavaScript expression and decodes its JSON value into out.
// Undefined and null results leave out untouched.
func (b *Browser) Eval(ctx context.Context, script string, out any) error {
	var res *runtime.RemoteObject
	if err := b.run(ctx, "cdp.eval", chromedp.Evaluate(script, &res, chromedp.EvalAsValue)); err != nil {
		return err
	}
	if out == nil || res == nil || len(res.Value) == 0 || string(res.Value) == "null" {
		return nil
	}
	if err := json.Unmarshal(res.Value, out); err != nil {
		return &domain.OpError{Op: "cdp.eval", Kind: domain.KindBrowser, Err: err}
	}
	return nil
}

func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := b.run(ctx, "cdp.screenshot", chromedp.CaptureScreenshot(&buf))
	return buf, err
}

func (b *Browser) ConsoleLogs(context.Context) ([]domain.ConsoleEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.ConsoleEntry, len(b.console))
	copy(out, b.console)
	return out, nil
}

// Close shuts the tab and the browser process.
func (b *Browser) Close() error {
	var err error
	if b.ctx != nil {
		err = chromedp.Cancel(b.ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	}
	if b.cancel != nil {
		b.cancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	return err
}
