package ports

import (
	"context"

	"github.com/chiru781/cursior/internal/domain"
)

// Browser is the driver surface page objects are written against.
// Element operations wait for the element until ctx is done.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Refresh(ctx context.Context) error
	Back(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)

	WaitVisible(ctx context.Context, loc domain.Locator) error
	WaitHidden(ctx context.Context, loc domain.Locator) error
	// Visible checks the current state without waiting.
	Visible(ctx context.Context, loc domain.Locator) (bool, error)
	// Count returns the current number of matches without waiting.
	Count(ctx context.Context, loc domain.Locator) (int, error)

	Click(ctx context.Context, loc domain.Locator) error
	Type(ctx context.Context, loc domain.Locator, text string) error
	PressEnter(ctx context.Context, loc domain.Locator) error
	SelectOption(ctx context.Context, loc domain.Locator, label string) error

	Text(ctx context.Context, loc domain.Locator) (string, error)
	Texts(ctx context.Context, loc domain.Locator) ([]string, error)
	Attribute(ctx context.Context, loc domain.Locator, name string) (string, error)
	Selected(ctx context.Context, loc domain.Locator) (bool, error)

	Eval(ctx context.Context, script string, out any) error
	Screenshot(ctx context.Context) ([]byte, error)
	ConsoleLogs(ctx context.Context) ([]domain.ConsoleEntry, error)
	Close() error
}

// BrowserFactory opens a fresh browser session.
type BrowserFactory interface {
	Open(ctx context.Context, cfg domain.Config) (Browser, error)
}
