package browser

import (
	"context"
	"time"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/ports"
)

// WithDefaultWait bounds element operations by d whenever the caller's
// context carries no deadline of its own.
func WithDefaultWait(b ports.Browser, d time.Duration) ports.Browser {
	if d <= 0 {
		return b
	}
	if w, ok := b.(*waiting); ok {
		b = w.Browser
	}
	return &waiting{Browser: b, wait: d}
}

type waiting struct {
	ports.Browser
	wait time.Duration
}

func (w *waiting) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, w.wait)
}

func (w *waiting) WaitVisible(ctx context.Context, loc domain.Locator) error {
	ctx, cancel := w.bound(ctx)
	defer cancel()
	return w.Browser.WaitVisible(ctx, loc)
}

func (w *waiting) WaitHidden(ctx context.Context, loc domain.Locator) error {
	ctx, cancel := w.bound(ctx)
	defer cancel()
	return w.Browser.WaitHidden(ctx, loc)
}

func (w *waiting) Click(ctx context.Context, loc domain.Locator) error {
	ctx, cancel := w.bound(ctx)
	defer cancel()
	return w.Browser.Click(ctx, loc)
}

func (w *waiting) Type(ctx context.Context, loc domain.Locator, text string) error {
	ctx, cancel := w.bound(ctx)
	defer cancel()
	return w.Browser.Type(ctx, loc, text)
}

func (w *waiting) PressEnter(ctx context.Context, loc domain.Locator) error {
	ctx, cancel := w.bound(ctx)
	defer cancel()
	return w.Browser.PressEnter(ctx, loc)
}

func (w *waiting) SelectOption(ctx context.Context, loc domain.Locator, label string) error {
	ctx, cancel := w.bound(ctx)
	defer cancel()
	return w.Browser.SelectOption(ctx, loc, label)
}

func (w *waiting) Text(ctx context.Context, loc domain.Locator) (string, error) {
	ctx, cancel := w.bound(ctx)
	defer cancel()
	return w.Browser.Text(ctx, loc)
}

func (w *waiting) Attribute(ctx context.Context, loc domain.Locator, name string) (string, error) {
	ctx, cancel := w.bound(ctx)
	defer cancel()
	return w.Browser.Attribute(ctx, loc, name)
}

func (w *waiting) Selected(ctx context.Context, loc domain.Locator) (bool, error) {
	ctx, cancel := w.bound(ctx)
	defer cancel()
	return w.Browser.Selected(ctx, loc)
}
