// Package pages wraps the shop's screens behind one object per page. Every
// page is written against ports.Browser and never touches a driver directly.
package pages

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/browser/dom"
	"github.com/chiru781/cursior/internal/ports"
)

const (
	// LongWait bounds page loads and slow transitions.
	LongWait = 30 * time.Second
	// ProbeWait bounds presence checks that are allowed to fail.
	ProbeWait = 2 * time.Second
)

// Settings are the page defaults derived from the run configuration.
type Settings struct {
	BaseURL string
	Wait    time.Duration
	Log     *slog.Logger
}

func SettingsFrom(cfg domain.Config, log *slog.Logger) Settings {
	return Settings{BaseURL: cfg.App.BaseURL, Wait: cfg.Timeouts.Explicit, Log: log}
}

// Base carries the browser and the element helpers shared by every page.
type Base struct {
	b       ports.Browser
	baseURL string
	wait    time.Duration
	log     *slog.Logger
}

func NewBase(b ports.Browser, s Settings) Base {
	if s.Wait <= 0 {
		s.Wait = 10 * time.Second
	}
	if s.Log == nil {
		s.Log = slog.New(slog.DiscardHandler)
	}
	return Base{b: b, baseURL: strings.TrimRight(s.BaseURL, "/"), wait: s.Wait, log: s.Log}
}

func (p Base) Browser() ports.Browser { return p.b }

// within bounds ctx by d unless ctx already ends sooner.
func within(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < d {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// URL resolves path against the base URL. Absolute URLs pass through.
func (p Base) URL(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	if path == "" {
		return p.baseURL
	}
	return p.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (p Base) Open(ctx context.Context, path string) error {
	target := p.URL(path)
	p.log.Info("page.navigate", "url", target)
	if err := p.b.Navigate(ctx, target); err != nil {
		return err
	}
	p.WaitForPageLoad(ctx)
	return nil
}

// WaitForPageLoad polls document.readyState for up to LongWait. A page that
// never settles is logged and tolerated.
func (p Base) WaitForPageLoad(ctx context.Context) {
	ctx, cancel := within(ctx, LongWait)
	defer cancel()

	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		var state string
		if err := p.b.Eval(ctx, dom.ReadyState, &state); err == nil && state == "complete" {
			return
		}
		select {
		case <-ctx.Done():
			p.log.Warn("page.load.timeout")
			return
		case <-tick.C:
		}
	}
}

func (p Base) WaitVisible(ctx context.Context, loc domain.Locator, d time.Duration) error {
	if d <= 0 {
		d = p.wait
	}
	ctx, cancel := within(ctx, d)
	defer cancel()
	return p.b.WaitVisible(ctx, loc)
}

// Visible waits up to ProbeWait for loc to show.
func (p Base) Visible(ctx context.Context, loc domain.Locator) bool {
	return p.WaitVisible(ctx, loc, ProbeWait) == nil
}

// Present reports whether loc matches anything right now.
func (p Base) Present(ctx context.Context, loc domain.Locator) bool {
	n, err := p.b.Count(ctx, loc)
	return err == nil && n > 0
}

func (p Base) Count(ctx context.Context, loc domain.Locator) int {
	if p.WaitVisible(ctx, loc, 0) != nil {
		return 0
	}
	n, err := p.b.Count(ctx, loc)
	if err != nil {
		return 0
	}
	return n
}

// Click waits for loc and clicks it. A native click that fails on a present
// element is retried through the DOM.
func (p Base) Click(ctx context.Context, loc domain.Locator) error {
	if err := p.WaitVisible(ctx, loc, 0); err != nil {
		return err
	}
	p.log.Debug("page.click", "locator", loc.String())
	cctx, cancel := within(ctx, p.wait)
	defer cancel()
	err := p.b.Click(cctx, loc)
	if err == nil {
		return nil
	}
	var ok bool
	if jerr := p.b.Eval(ctx, dom.Click(loc), &ok); jerr == nil && ok {
		p.log.Debug("page.click.js_fallback", "locator", loc.String())
		return nil
	}
	return err
}

// ClickFirst clicks the first of locs that can be clicked.
func (p Base) ClickFirst(ctx context.Context, locs ...domain.Locator) error {
	var errs []error
	for _, loc := range locs {
		err := p.Click(ctx, loc)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (p Base) Type(ctx context.Context, loc domain.Locator, text string) error {
	ctx, cancel := within(ctx, p.wait)
	defer cancel()
	p.log.Debug("page.type", "locator", loc.String())
	return p.b.Type(ctx, loc, text)
}

// TypeFirst types into the first of locs that accepts input.
func (p Base) TypeFirst(ctx context.Context, text string, locs ...domain.Locator) error {
	var errs []error
	for _, loc := range locs {
		err := p.Type(ctx, loc, text)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (p Base) PressEnter(ctx context.Context, loc domain.Locator) error {
	ctx, cancel := within(ctx, p.wait)
	defer cancel()
	return p.b.PressEnter(ctx, loc)
}

func (p Base) Text(ctx context.Context, loc domain.Locator) (string, error) {
	ctx, cancel := within(ctx, p.wait)
	defer cancel()
	return p.b.Text(ctx, loc)
}

// FirstText returns the text of the first visible locator, or fallback.
// Locators after the first are probed briefly.
func (p Base) FirstText(ctx context.Context, fallback string, locs ...domain.Locator) string {
	for i, loc := range locs {
		d := ProbeWait
		if i == 0 {
			d = p.wait
		}
		if p.WaitVisible(ctx, loc, d) != nil {
			continue
		}
		if t, err := p.b.Text(ctx, loc); err == nil {
			return t
		}
	}
	return fallback
}

// TextOr reads loc without waiting and returns fallback when it is absent.
func (p Base) TextOr(ctx context.Context, loc domain.Locator, fallback string) string {
	if !p.Present(ctx, loc) {
		return fallback
	}
	t, err := p.b.Text(ctx, loc)
	if err != nil {
		return fallback
	}
	return t
}

func (p Base) Attribute(ctx context.Context, loc domain.Locator, name string) (string, error) {
	ctx, cancel := within(ctx, p.wait)
	defer cancel()
	return p.b.Attribute(ctx, loc, name)
}

func (p Base) Select(ctx context.Context, loc domain.Locator, label string) error {
	ctx, cancel := within(ctx, p.wait)
	defer cancel()
	p.log.Debug("page.select", "locator", loc.String(), "option", label)
	return p.b.SelectOption(ctx, loc, label)
}

func (p Base) Checked(ctx context.Context, loc domain.Locator) bool {
	ok, err := p.b.Selected(ctx, loc)
	return err == nil && ok
}

func (p Base) Hover(ctx context.Context, loc domain.Locator) error {
	return p.script(ctx, "page.hover", loc, dom.Hover(loc))
}

func (p Base) ScrollTo(ctx context.Context, loc domain.Locator) error {
	return p.script(ctx, "page.scroll", loc, dom.ScrollIntoView(loc))
}

func (p Base) script(ctx context.Context, op string, loc domain.Locator, js string) error {
	var ok bool
	if err := p.b.Eval(ctx, js, &ok); err != nil {
		return err
	}
	if !ok {
		return &domain.OpError{Op: op, Kind: domain.KindNotFound, Path: loc.String(), Err: errors.New("element not found")}
	}
	return nil
}

// AcceptConfirm makes upcoming confirm and alert dialogs succeed.
func (p Base) AcceptConfirm(ctx context.Context) error {
	return p.b.Eval(ctx, dom.AcceptDialogs, nil)
}

func (p Base) Refresh(ctx context.Context) error {
	if err := p.b.Refresh(ctx); err != nil {
		return err
	}
	p.WaitForPageLoad(ctx)
	return nil
}

func (p Base) Back(ctx context.Context) error {
	if err := p.b.Back(ctx); err != nil {
		return err
	}
	p.WaitForPageLoad(ctx)
	return nil
}

func (p Base) CurrentURL(ctx context.Context) string {
	u, err := p.b.CurrentURL(ctx)
	if err != nil {
		return ""
	}
	return u
}

func (p Base) URLContains(ctx context.Context, part string) bool {
	return strings.Contains(p.CurrentURL(ctx), part)
}

func (p Base) Title(ctx context.Context) string {
	t, _ := p.b.Title(ctx)
	return t
}

func (p Base) Screenshot(ctx context.Context) ([]byte, error) {
	return p.b.Screenshot(ctx)
}

// WaitForSpinner waits for a loading indicator to come and go. Both phases
// are best effort.
func (p Base) WaitForSpinner(ctx context.Context, loc domain.Locator) {
	if !p.Visible(ctx, loc) {
		return
	}
	ctx, cancel := within(ctx, p.wait)
	defer cancel()
	if err := p.b.WaitHidden(ctx, loc); err != nil {
		p.log.Warn("page.spinner.stuck", "locator", loc.String())
	}
}

// waitUntil polls cond every 100ms until it holds or d elapses.
func (p Base) waitUntil(ctx context.Context, d time.Duration, cond func() bool) bool {
	ctx, cancel := within(ctx, d)
	defer cancel()

	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		if cond() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-tick.C:
		}
	}
}

// cartBadge is the item counter of the header, shared by every shop page.
var cartBadge = domain.Class("cart-count")

// CartCount reads the header cart counter without waiting. A missing or
// unreadable badge counts as an empty cart.
func (p Base) CartCount(ctx context.Context) int {
	n, err := strconv.Atoi(strings.TrimSpace(p.TextOr(ctx, cartBadge, "0")))
	if err != nil {
		return 0
	}
	return n
}

// nth and child turn locator indexing errors into OpErrors.
func nth(op string, loc domain.Locator, i int) (domain.Locator, error) {
	l, err := loc.Nth(i)
	if err != nil {
		return domain.Locator{}, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: loc.String(), Err: err}
	}
	return l, nil
}

func child(op string, loc domain.Locator, i int, c domain.Locator) (domain.Locator, error) {
	l, err := loc.Child(i, c)
	if err != nil {
		return domain.Locator{}, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: loc.String(), Err: err}
	}
	return l, nil
}
