// Package wd drives a remote Selenium grid through the WebDriver protocol.
package wd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
	wdlog "github.com/tebeka/selenium/log"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/browser/dom"
	"github.com/chiru781/cursior/internal/ports"
)

type Options struct {
	// URL is the grid endpoint, e.g. http://localhost:4444/wd/hub.
	URL      string
	Browser  string
	Headless bool
	Width    int
	Height   int
	PageLoad time.Duration
	// Poll is the interval between element lookups while waiting.
	Poll time.Duration
}

type Browser struct {
	opts Options
	wd   selenium.WebDriver
}

var _ ports.Browser = (*Browser)(nil)

// Capabilities builds the session request for the configured browser.
func Capabilities(o Options) selenium.Capabilities {
	args := []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-gpu",
		"--disable-extensions",
		fmt.Sprintf("--window-size=%d,%d", o.Width, o.Height),
	}
	if o.Headless {
		args = append(args, "--headless")
	}

	switch strings.ToLower(o.Browser) {
	case "firefox":
		caps := selenium.Capabilities{"browserName": "firefox", "acceptInsecureCerts": true}
		fa := []string{fmt.Sprintf("--width=%d", o.Width), fmt.Sprintf("--height=%d", o.Height)}
		if o.Headless {
			fa = append(fa, "--headless")
		}
		caps.AddFirefox(firefox.Capabilities{Args: fa})
		return caps
	case "edge":
		caps := selenium.Capabilities{"browserName": "MicrosoftEdge", "acceptInsecureCerts": true}
		caps["ms:edgeOptions"] = map[string]any{"args": args}
		return caps
	default:
		caps := selenium.Capabilities{"browserName": "chrome", "acceptInsecureCerts": true}
		caps.AddChrome(chrome.Capabilities{Args: append(args,
			"--disable-web-security",
			"--allow-running-insecure-content",
			"--ignore-certificate-errors",
		)})
		caps.SetLogLevel(wdlog.Browser, wdlog.All)
		return caps
	}
}

func Open(ctx context.Context, o Options) (*Browser, error) {
	op := "wd.open"
	if o.Poll <= 0 {
		o.Poll = 200 * time.Millisecond
	}

	type result struct {
		wd  selenium.WebDriver
		err error
	}
	done := make(chan result, 1)
	go func() {
		d, err := selenium.NewRemote(Capabilities(o), o.URL)
		done <- result{d, err}
	}()

	var d selenium.WebDriver
	select {
	case r := <-done:
		if r.err != nil {
			return nil, &domain.OpError{Op: op, Kind: domain.KindBrowser, Path: o.URL, Err: r.err}
		}
		d = r.wd
	case <-ctx.Done():
		go func() {
			if r := <-done; r.wd != nil {
				_ = r.wd.Quit()
			}
		}()
		return nil, &domain.OpError{Op: op, Kind: domain.KindTimeout, Path: o.URL, Err: ctx.Err()}
	}

	if o.PageLoad > 0 {
		if err := d.SetPageLoadTimeout(o.PageLoad); err != nil {
			_ = d.Quit()
			return nil, &domain.OpError{Op: op, Kind: domain.KindBrowser, Path: o.URL, Err: err}
		}
	}
	return &Browser{opts: o, wd: d}, nil
}

func by(loc domain.Locator) (string, string) {
	switch loc.By {
	case domain.ByID:
		return selenium.ByID, loc.Value
	case domain.ByName:
		return selenium.ByName, loc.Value
	case domain.ByClassName:
		return selenium.ByClassName, loc.Value
	case domain.ByLinkText:
		return selenium.ByLinkText, loc.Value
	case domain.ByXPath:
		return selenium.ByXPATH, loc.Value
	default:
		return selenium.ByCSSSelector, loc.Value
	}
}

func fail(op string, loc *domain.Locator, kind domain.ErrorKind, err error) error {
	oe := &domain.OpError{Op: op, Kind: kind, Err: err}
	if loc != nil {
		oe.Path = loc.String()
	}
	return oe
}

// find polls until an element matching loc satisfies ready or ctx ends.
func (b *Browser) find(ctx context.Context, op string, loc domain.Locator, ready func(selenium.WebElement) bool) (selenium.WebElement, error) {
	how, value := by(loc)
	var last error
	for {
		el, err := b.wd.FindElement(how, value)
		if err == nil && (ready == nil || ready(el)) {
			return el, nil
		}
		if err != nil {
			last = err
		}
		select {
		case <-ctx.Done():
			if last == nil {
				last = ctx.Err()
			}
			return nil, fail(op, &loc, domain.KindTimeout, last)
		case <-time.After(b.opts.Poll):
		}
	}
}

func displayed(el selenium.WebElement) bool {
	ok, err := el.IsDisplayed()
	return err == nil && ok
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	if err := b.wd.Get(url); err != nil {
		return fail("wd.navigate", nil, domain.KindBrowser, err)
	}
	return nil
}

func (b *Browser) Refresh(ctx context.Context) error {
	if err := b.wd.Refresh(); err != nil {
		return fail("wd.refresh", nil, domain.KindBrowser, err)
	}
	return nil
}

func (b *Browser) Back(ctx context.Context) error {
	if err := b.wd.Back(); err != nil {
		return fail("wd.back", nil, domain.KindBrowser, err)
	}
	return nil
}

func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	u, err := b.wd.CurrentURL()
	if err != nil {
		return "", fail("wd.current_url", nil, domain.KindBrowser, err)
	}
	return u, nil
}

func (b *Browser) Title(ctx context.Context) (string, error) {
	t, err := b.wd.Title()
	if err != nil {
		return "", fail("wd.title", nil, domain.KindBrowser, err)
	}
	return t, nil
}

func (b *Browser) WaitVisible(ctx context.Context, loc domain.Locator) error {
	_, err := b.find(ctx, "wd.wait_visible", loc, displayed)
	return err
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
			return fail("wd.wait_hidden", &loc, domain.KindTimeout, ctx.Err())
		case <-time.After(b.opts.Poll):
		}
	}
}

func (b *Browser) Visible(ctx context.Context, loc domain.Locator) (bool, error) {
	how, value := by(loc)
	els, err := b.wd.FindElements(how, value)
	if err != nil || len(els) == 0 {
		return false, nil
	}
	return displayed(els[0]), nil
}

func (b *Browser) Count(ctx context.Context, loc domain.Locator) (int, error) {
	how, value := by(loc)
	els, err := b.wd.FindElements(how, value)
	if err != nil {
		return 0, nil
	}
	return len(els), nil
}

func (b *Browser) Click(ctx context.Context, loc domain.Locator) error {
	el, err := b.find(ctx, "wd.click", loc, displayed)
	if err != nil {
		return err
	}
	if err := el.Click(); err != nil {
		return fail("wd.click", &loc, domain.KindBrowser, err)
	}
	return nil
}

func (b *Browser) Type(ctx context.Context, loc domain.Locator, text string) error {
	el, err := b.find(ctx, "wd.type", loc, displayed)
	if err != nil {
		return err
	}
	if err := el.Clear(); err != nil {
		return fail("wd.type", &loc, domain.KindBrowser, err)
	}
	if err := el.SendKeys(text); err != nil {
		return fail("wd.type", &loc, domain.KindBrowser, err)
	}
	return nil
}

func (b *Browser) PressEnter(ctx context.Context, loc domain.Locator) error {
	el, err := b.find(ctx, "wd.press_enter", loc, nil)
	if err != nil {
		return err
	}
	if err := el.SendKeys(selenium.EnterKey); err != nil {
		return fail("wd.press_enter", &loc, domain.KindBrowser, err)
	}
	return nil
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
		return fail("wd.select_option", &loc, domain.KindNotFound, fmt.Errorf("option %q not found", label))
	}
	return nil
}

func (b *Browser) Text(ctx context.Context, loc domain.Locator) (string, error) {
	el, err := b.find(ctx, "wd.text", loc, displayed)
	if err != nil {
		return "", err
	}
	s, err := el.Text()
	if err != nil {
		return "", fail("wd.text", &loc, domain.KindBrowser, err)
	}
	return strings.TrimSpace(s), nil
}

func (b *Browser) Texts(ctx context.Context, loc domain.Locator) ([]string, error) {
	how, value := by(loc)
	els, err := b.wd.FindElements(how, value)
	if err != nil {
		return nil, nil
	}
	out := make([]string, 0, len(els))
	for _, el := range els {
		s, err := el.Text()
		if err != nil {
			return nil, fail("wd.texts", &loc, domain.KindBrowser, err)
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out, nil
}

func (b *Browser) Attribute(ctx context.Context, loc domain.Locator, name string) (string, error) {
	el, err := b.find(ctx, "wd.attribute", loc, nil)
	if err != nil {
		return "", err
	}
	v, err := el.GetAttribute(name)
	if err != nil {
		// WebDriver reports a missing attribute as an error.
		return "", nil
	}
	return v, nil
}

func (b *Browser) Selected(ctx context.Context, loc domain.Locator) (bool, error) {
	el, err := b.find(ctx, "wd.selected", loc, nil)
	if err != nil {
		return false, err
	}
	ok, err := el.IsSelected()
	if err != nil {
		return false, fail("wd.selected", &loc, domain.KindBrowser, err)
	}
	return ok, nil
}

func (b *Browser) Eval(ctx context.Context, script string, out any) error {
	v, err := b.wd.ExecuteScript("return ("+script+");", nil)
	if err != nil {
		return fail("wd.eval", nil, domain.KindBrowser, err)
	}
	if out == nil || v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err == nil {
		err = json.Unmarshal(raw, out)
	}
	if err != nil {
		return fail("wd.eval", nil, domain.KindBrowser, err)
	}
	return nil
}

func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	png, err := b.wd.Screenshot()
	if err != nil {
		return nil, fail("wd.screenshot", nil, domain.KindBrowser, err)
	}
	return png, nil
}

// ConsoleLogs reads the browser log. Grids that do not expose it yield none.
func (b *Browser) ConsoleLogs(ctx context.Context) ([]domain.ConsoleEntry, error) {
	msgs, err := b.wd.Log(wdlog.Browser)
	if err != nil {
		return nil, nil
	}
	out := make([]domain.ConsoleEntry, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, domain.ConsoleEntry{Level: string(m.Level), Message: m.Message, Time: m.Timestamp})
	}
	return out, nil
}

func (b *Browser) Close() error {
	if b.wd == nil {
		return nil
	}
	err := b.wd.Quit()
	b.wd = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return fail("wd.close", nil, domain.KindBrowser, err)
	}
	return nil
}
