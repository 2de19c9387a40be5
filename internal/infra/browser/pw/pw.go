// Package pw drives Firefox and Edge through playwright-go.
package pw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/browser/dom"
	"github.com/chiru781/cursior/internal/ports"
)

type Options struct {
	// Browser is firefox or edge.
	Browser  string
	Headless bool
	Width    int
	Height   int
	// Wait is used for element operations when ctx has no deadline.
	Wait     time.Duration
	PageLoad time.Duration
}

type Browser struct {
	opts Options

	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page

	mu      sync.Mutex
	console []domain.ConsoleEntry
}

var _ ports.Browser = (*Browser)(nil)

// LaunchOptions maps a browser name onto the playwright engine and channel.
func LaunchOptions(o Options) (engine string, launch playwright.BrowserTypeLaunchOptions, err error) {
	launch = playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(o.Headless)}
	switch strings.ToLower(o.Browser) {
	case "firefox":
		return "firefox", launch, nil
	case "edge":
		launch.Channel = playwright.String("msedge")
		launch.Args = []string{"--no-sandbox", "--disable-dev-shm-usage", "--disable-gpu", "--disable-extensions"}
		return "chromium", launch, nil
	default:
		return "", launch, fmt.Errorf("browser %q is not served by playwright", o.Browser)
	}
}

func Open(ctx context.Context, o Options) (*Browser, error) {
	op := "pw.open"

	engine, launch, err := LaunchOptions(o)
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindUnsupported, Err: err}
	}

	type result struct {
		b   *Browser
		err error
	}
	done := make(chan result, 1)
	go func() {
		b, err := start(engine, launch, o)
		done <- result{b, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, &domain.OpError{Op: op, Kind: domain.KindBrowser, Err: r.err}
		}
		return r.b, nil
	case <-ctx.Done():
		go func() {
			if r := <-done; r.b != nil {
				_ = r.b.Close()
			}
		}()
		return nil, &domain.OpError{Op: op, Kind: domain.KindTimeout, Err: ctx.Err()}
	}
}

func start(engine string, launch playwright.BrowserTypeLaunchOptions, o Options) (*Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	bt := pw.Firefox
	if engine == "chromium" {
		bt = pw.Chromium
	}

	browser, err := bt.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", o.Browser, err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:          &playwright.Size{Width: o.Width, Height: o.Height},
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new page: %w", err)
	}

	b := &Browser{opts: o, pw: pw, browser: browser, page: page}
	if o.Wait > 0 {
		page.SetDefaultTimeout(ms(o.Wait))
	}
	if o.PageLoad > 0 {
		page.SetDefaultNavigationTimeout(ms(o.PageLoad))
	}
	page.OnConsole(func(m playwright.ConsoleMessage) {
		b.mu.Lock()
		b.console = append(b.console, domain.ConsoleEntry{Level: m.Type(), Message: m.Text(), Time: time.Now()})
		b.mu.Unlock()
	})
	page.OnDialog(func(d playwright.Dialog) { _ = d.Accept() })

	return b, nil
}

func ms(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}

// timeout converts the ctx deadline into a playwright timeout.
func (b *Browser) timeout(ctx context.Context, fallback time.Duration) *float64 {
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if left < time.Millisecond {
			left = time.Millisecond
		}
		return playwright.Float(ms(left))
	}
	if fallback > 0 {
		return playwright.Float(ms(fallback))
	}
	return nil
}

func selector(loc domain.Locator) string {
	sel, isXPath := loc.Selector()
	if isXPath {
		return "xpath=" + sel
	}
	return "css=" + sel
}

func (b *Browser) locate(loc domain.Locator) playwright.Locator {
	return b.page.Locator(selector(loc)).First()
}

func wrap(ctx context.Context, op string, loc *domain.Locator, err error) error {
	if err == nil {
		return nil
	}
	kind := domain.KindBrowser
	if ctx.Err() != nil || errors.Is(err, playwright.ErrTimeout) {
		kind = domain.KindTimeout
	}
	oe := &domain.OpError{Op: op, Kind: kind, Err: err}
	if loc != nil {
		oe.Path = loc.String()
	}
	return oe
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	_, err := b.page.Goto(url, playwright.PageGotoOptions{Timeout: b.timeout(ctx, b.opts.PageLoad)})
	return wrap(ctx, "pw.navigate", nil, err)
}

func (b *Browser) Refresh(ctx context.Context) error {
	_, err := b.page.Reload(playwright.PageReloadOptions{Timeout: b.timeout(ctx, b.opts.PageLoad)})
	return wrap(ctx, "pw.refresh", nil, err)
}

func (b *Browser) Back(ctx context.Context) error {
	_, err := b.page.GoBack(playwright.PageGoBackOptions{Timeout: b.timeout(ctx, b.opts.PageLoad)})
	return wrap(ctx, "pw.back", nil, err)
}

func (b *Browser) CurrentURL(context.Context) (string, error) {
	return b.page.URL(), nil
}

func (b *Browser) Title(ctx context.Context) (string, error) {
	t, err := b.page.Title()
	return t, wrap(ctx, "pw.title", nil, err)
}

func (b *Browser) WaitVisible(ctx context.Context, loc domain.Locator) error {
	err := b.locate(loc).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: b.timeout(ctx, b.opts.Wait),
	})
	return wrap(ctx, "pw.wait_visible", &loc, err)
}

func (b *Browser) WaitHidden(ctx context.Context, loc domain.Locator) error {
	err := b.locate(loc).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateHidden,
		Timeout: b.timeout(ctx, b.opts.Wait),
	})
	return wrap(ctx, "pw.wait_hidden", &loc, err)
}

func (b *Browser) Visible(ctx context.Context, loc domain.Locator) (bool, error) {
	ok, err := b.locate(loc).IsVisible()
	return ok, wrap(ctx, "pw.visible", &loc, err)
}

func (b *Browser) Count(ctx context.Context, loc domain.Locator) (int, error) {
	n, err := b.page.Locator(selector(loc)).Count()
	return n, wrap(ctx, "pw.count", &loc, err)
}

func (b *Browser) Click(ctx context.Context, loc domain.Locator) error {
	err := b.locate(loc).Click(playwright.LocatorClickOptions{Timeout: b.timeout(ctx, b.opts.Wait)})
	return wrap(ctx, "pw.click", &loc, err)
}

func (b *Browser) Type(ctx context.Context, loc domain.Locator, text string) error {
	err := b.locate(loc).Fill(text, playwright.LocatorFillOptions{Timeout: b.timeout(ctx, b.opts.Wait)})
	return wrap(ctx, "pw.type", &loc, err)
}

func (b *Browser) PressEnter(ctx context.Context, loc domain.Locator) error {
	err := b.locate(loc).Press("Enter", playwright.LocatorPressOptions{Timeout: b.timeout(ctx, b.opts.Wait)})
	return wrap(ctx, "pw.press_enter", &loc, err)
}

func (b *Browser) SelectOption(ctx context.Context, loc domain.Locator, label string) error {
	_, err := b.locate(loc).SelectOption(
		playwright.SelectOptionValues{Labels: &[]string{label}},
		playwright.LocatorSelectOptionOptions{Timeout: b.timeout(ctx, b.opts.Wait)},
	)
	return wrap(ctx, "pw.select_option", &loc, err)
}

func (b *Browser) Text(ctx context.Context, loc domain.Locator) (string, error) {
	s, err := b.locate(loc).InnerText(playwright.LocatorInnerTextOptions{Timeout: b.timeout(ctx, b.opts.Wait)})
	return strings.TrimSpace(s), wrap(ctx, "pw.text", &loc, err)
}

func (b *Browser) Texts(ctx context.Context, loc domain.Locator) ([]string, error) {
	texts, err := b.page.Locator(selector(loc)).AllInnerTexts()
	for i := range texts {
		texts[i] = strings.TrimSpace(texts[i])
	}
	return texts, wrap(ctx, "pw.texts", &loc, err)
}

func (b *Browser) Attribute(ctx context.Context, loc domain.Locator, name string) (string, error) {
	v, err := b.locate(loc).GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: b.timeout(ctx, b.opts.Wait)})
	return v, wrap(ctx, "pw.attribute", &loc, err)
}

func (b *Browser) Selected(ctx context.Context, loc domain.Locator) (bool, error) {
	var ok bool
	if err := b.WaitVisible(ctx, loc); err != nil {
		return false, err
	}
	err := b.Eval(ctx, dom.Selected(loc), &ok)
	return ok, err
}

func (b *Browser) Eval(ctx context.Context, script string, out any) error {
	v, err := b.page.Evaluate(script)
	if err != nil {
		return wrap(ctx, "pw.eval", nil, err)
	}
	if out == nil || v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return wrap(ctx, "pw.eval", nil, err)
	}
	return wrap(ctx, "pw.eval", nil, json.Unmarshal(raw, out))
}

func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	png, err := b.page.Screenshot()
	return png, wrap(ctx, "pw.screenshot", nil, err)
}

func (b *Browser) ConsoleLogs(context.Context) ([]domain.ConsoleEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.ConsoleEntry, len(b.console))
	copy(out, b.console)
	return out, nil
}

func (b *Browser) Close() error {
	var errs []error
	if b.browser != nil {
		errs = append(errs, b.browser.Close())
	}
	if b.pw != nil {
		errs = append(errs, b.pw.Stop())
	}
	return errors.Join(errs...)
}
