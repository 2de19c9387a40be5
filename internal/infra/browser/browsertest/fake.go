// Package browsertest provides an in-memory ports.Browser for tests.
package browsertest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/browser/dom"
	"github.com/chiru781/cursior/internal/ports"
)

// Element is the state of one matched node. The zero value is a visible,
// empty element.
type Element struct {
	Text     string
	Value    string
	Hidden   bool
	Selected bool
	Attrs    map[string]string
	Options  []string
}

// Fake keeps a page as a map from locator to matching elements. Lookups never
// wait: a missing element fails with a timeout immediately.
type Fake struct {
	mu sync.Mutex

	url     string
	title   string
	history []string
	els     map[string][]*Element
	scripts map[string]any

	onClick    map[string]func(*Fake)
	onNavigate func(f *Fake, url string)

	clicks  []string
	typed   map[string]string
	evals   []string
	console []domain.ConsoleEntry
	closed  bool
	shots   int
}

var _ ports.Browser = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		els:     map[string][]*Element{},
		scripts: map[string]any{},
		onClick: map[string]func(*Fake){},
		typed:   map[string]string{},
	}
}

// Set replaces the elements matched by loc.
func (f *Fake) Set(loc domain.Locator, els ...*Element) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.els[loc.String()] = els
	return f
}

// SetText is shorthand for a single visible element with text.
func (f *Fake) SetText(loc domain.Locator, text string) *Fake {
	return f.Set(loc, &Element{Text: text})
}

// SetChild registers child elements inside the i-th match of parent.
func (f *Fake) SetChild(parent domain.Locator, i int, child domain.Locator, els ...*Element) *Fake {
	loc, err := parent.Child(i, child)
	if err != nil {
		panic(err)
	}
	return f.Set(loc, els...)
}

func (f *Fake) Remove(loc domain.Locator) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.els, loc.String())
	return f
}

// Element returns the first element matched by loc, or nil.
func (f *Fake) Element(loc domain.Locator) *Element {
	f.mu.Lock()
	defer f.mu.Unlock()
	if els := f.els[loc.String()]; len(els) > 0 {
		return els[0]
	}
	return nil
}

// OnClick runs fn after loc is clicked.
func (f *Fake) OnClick(loc domain.Locator, fn func(*Fake)) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onClick[loc.String()] = fn
	return f
}

// OnNavigate runs fn after every navigation.
func (f *Fake) OnNavigate(fn func(f *Fake, url string)) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onNavigate = fn
	return f
}

// SetURL changes the current URL without recording history.
func (f *Fake) SetURL(u string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = u
	return f
}

func (f *Fake) SetTitle(t string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.title = t
	return f
}

// SetScript fixes the result of an exact script passed to Eval.
func (f *Fake) SetScript(script string, result any) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[script] = result
	return f
}

func (f *Fake) Log(level, msg string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.console = append(f.console, domain.ConsoleEntry{Level: level, Message: msg, Time: time.Now()})
	return f
}

func (f *Fake) Clicks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.clicks...)
}

// Clicked reports whether loc was clicked at least once.
func (f *Fake) Clicked(loc domain.Locator) bool {
	for _, c := range f.Clicks() {
		if c == loc.String() {
			return true
		}
	}
	return false
}

// Typed returns the last text typed into loc.
func (f *Fake) Typed(loc domain.Locator) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.typed[loc.String()]
	return v, ok
}

func (f *Fake) Evals() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.evals...)
}

func (f *Fake) History() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.history...)
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Fake) Screenshots() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shots
}

func (f *Fake) first(op string, loc domain.Locator, visible bool) (*Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	els := f.els[loc.String()]
	if len(els) == 0 || (visible && els[0].Hidden) {
		return nil, &domain.OpError{
			Op:   op,
			Kind: domain.KindTimeout,
			Path: loc.String(),
			Err:  context.DeadlineExceeded,
		}
	}
	return els[0], nil
}

func (f *Fake) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	f.url = url
	f.history = append(f.history, url)
	fn := f.onNavigate
	f.mu.Unlock()
	if fn != nil {
		fn(f, url)
	}
	return nil
}

func (f *Fake) Refresh(ctx context.Context) error {
	return f.Navigate(ctx, f.currentURL())
}

func (f *Fake) Back(ctx context.Context) error {
	f.mu.Lock()
	if len(f.history) > 1 {
		f.history = f.history[:len(f.history)-1]
		f.url = f.history[len(f.history)-1]
	}
	f.mu.Unlock()
	return nil
}

func (f *Fake) currentURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

func (f *Fake) CurrentURL(context.Context) (string, error) {
	return f.currentURL(), nil
}

func (f *Fake) Title(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title, nil
}

func (f *Fake) WaitVisible(_ context.Context, loc domain.Locator) error {
	_, err := f.first("fake.wait_visible", loc, true)
	return err
}

func (f *Fake) WaitHidden(_ context.Context, loc domain.Locator) error {
	if el, _ := f.first("fake.wait_hidden", loc, true); el != nil {
		return &domain.OpError{Op: "fake.wait_hidden", Kind: domain.KindTimeout, Path: loc.String(), Err: context.DeadlineExceeded}
	}
	return nil
}

func (f *Fake) Visible(_ context.Context, loc domain.Locator) (bool, error) {
	el, _ := f.first("fake.visible", loc, true)
	return el != nil, nil
}

func (f *Fake) Count(_ context.Context, loc domain.Locator) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.els[loc.String()]), nil
}

func (f *Fake) Click(_ context.Context, loc domain.Locator) error {
	el, err := f.first("fake.click", loc, true)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.clicks = append(f.clicks, loc.String())
	if el.Attrs["type"] == "checkbox" {
		el.Selected = !el.Selected
	}
	fn := f.onClick[loc.String()]
	f.mu.Unlock()
	if fn != nil {
		fn(f)
	}
	return nil
}

func (f *Fake) Type(_ context.Context, loc domain.Locator, text string) error {
	el, err := f.first("fake.type", loc, true)
	if err != nil {
		return err
	}
	f.mu.Lock()
	el.Value = text
	f.typed[loc.String()] = text
	f.mu.Unlock()
	return nil
}

func (f *Fake) PressEnter(ctx context.Context, loc domain.Locator) error {
	_, err := f.first("fake.press_enter", loc, false)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.clicks = append(f.clicks, "enter:"+loc.String())
	f.mu.Unlock()
	return nil
}

func (f *Fake) SelectOption(_ context.Context, loc domain.Locator, label string) error {
	el, err := f.first("fake.select_option", loc, true)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(el.Options) > 0 {
		found := false
		for _, o := range el.Options {
			if o == label {
				found = true
				break
			}
		}
		if !found {
			return &domain.OpError{Op: "fake.select_option", Kind: domain.KindNotFound, Path: loc.String(), Err: fmt.Errorf("option %q not found", label)}
		}
	}
	el.Value = label
	f.typed[loc.String()] = label
	return nil
}

func (f *Fake) Text(_ context.Context, loc domain.Locator) (string, error) {
	el, err := f.first("fake.text", loc, true)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(el.Text), nil
}

func (f *Fake) Texts(_ context.Context, loc domain.Locator) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.els[loc.String()]))
	for _, el := range f.els[loc.String()] {
		out = append(out, strings.TrimSpace(el.Text))
	}
	return out, nil
}

func (f *Fake) Attribute(_ context.Context, loc domain.Locator, name string) (string, error) {
	el, err := f.first("fake.attribute", loc, false)
	if err != nil {
		return "", err
	}
	if name == "value" && el.Attrs["value"] == "" {
		return el.Value, nil
	}
	return el.Attrs[name], nil
}

func (f *Fake) Selected(_ context.Context, loc domain.Locator) (bool, error) {
	el, err := f.first("fake.selected", loc, false)
	if err != nil {
		return false, err
	}
	return el.Selected, nil
}

// Eval answers document.readyState with "complete" and scripts registered
// with SetScript. Every other script evaluates to undefined.
func (f *Fake) Eval(_ context.Context, script string, out any) error {
	f.mu.Lock()
	f.evals = append(f.evals, script)
	res, ok := f.scripts[script]
	f.mu.Unlock()

	if script == dom.ReadyState {
		res, ok = "complete", true
	}
	if !ok || out == nil {
		return nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *Fake) Screenshot(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shots++
	// 1x1 transparent PNG.
	return []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
		0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
		0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
		0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
	}, nil
}

func (f *Fake) ConsoleLogs(context.Context) ([]domain.ConsoleEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ConsoleEntry(nil), f.console...), nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
