// Package steps holds the step definitions and the scenario lifecycle hooks
// that bind feature files to page objects and the shop's API, database and
// mail helpers.
package steps

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/pages"
	"github.com/chiru781/cursior/internal/ports"
)

// Deps are the collaborators shared by every scenario of a run. Optional
// subsystems are nil when their feature flag is off or they could not be
// reached.
type Deps struct {
	Config      domain.Config
	Log         *slog.Logger
	Browsers    ports.BrowserFactory
	API         ports.ShopAPI
	Store       ports.ShopStore
	Mailbox     ports.Mailbox
	Queue       ports.EmailQueue
	Screenshots ports.ScreenshotStore
	Recorder    *Recorder
	// Vars are bound into every scenario's resolver (-D overrides).
	Vars domain.Vars
	// Pause separates repeated UI attempts such as failed logins.
	Pause time.Duration
	// EmailTimeout bounds mailbox polling.
	EmailTimeout time.Duration
	// APIReadyAttempts and APIReadyDelay bound the health polling done
	// before the first scenario. Zero values use the client defaults.
	APIReadyAttempts int
	APIReadyDelay    time.Duration
	DryRun       bool
}

func (d *Deps) logger() *slog.Logger {
	if d.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Log
}

type pageKind int

const (
	pageNone pageKind = iota
	pageLogin
	pageRegistration
	pageCheckout
)

// World is the state of one scenario. It is created by the scenario
// initializer and discarded when the scenario ends.
type World struct {
	deps *Deps
	log  *slog.Logger
	vars *domain.RuntimeResolver

	scenario *godog.Scenario
	browser  ports.Browser
	last     pageKind

	detail       *pages.ProductDetail
	checkout     *pages.Checkout
	confirmation *pages.OrderConfirmation

	loginData   map[string]string
	userData    map[string]string
	paymentData map[string]string
	filters     map[string]string
	apiUser     map[string]any
	product     string
	orderID     string
	apiResp     *domain.APIResponse
	apiAuthed   bool

	createdUsers  []string
	createdOrders []string

	result    domain.ScenarioResult
	stepStart time.Time
}

func newWorld(d *Deps) *World {
	return &World{
		deps:        d,
		log:         d.logger(),
		loginData:   map[string]string{},
		userData:    map[string]string{},
		paymentData: map[string]string{},
		filters:     map[string]string{},
	}
}

// begin prepares the world for sc.
func (w *World) begin(sc *godog.Scenario) error {
	vars, err := domain.NewVarResolver().NewRuntime(w.deps.Vars)
	if err != nil {
		return err
	}
	w.vars = vars
	w.scenario = sc

	tags := make([]string, 0, len(sc.Tags))
	for _, t := range sc.Tags {
		tags = append(tags, t.Name)
	}
	w.result = domain.ScenarioResult{
		ID:      sc.Id,
		Name:    sc.Name,
		URI:     sc.Uri,
		Tags:    tags,
		Started: time.Now(),
	}
	if w.deps.Recorder != nil {
		w.result.Feature = w.deps.Recorder.Feature(sc.Uri)
	}
	return nil
}

// resolve expands {{var}} placeholders in a step argument.
func (w *World) resolve(s string) (string, error) {
	if w.vars == nil {
		return s, nil
	}
	return w.vars.ResolveString(s)
}

// payload resolves the placeholders of a request body. defaults are bound
// for names the run did not define, so -D values take precedence.
func (w *World) payload(body map[string]any, defaults domain.Vars) (map[string]any, error) {
	if w.vars == nil {
		vars, err := domain.NewVarResolver().NewRuntime(w.deps.Vars)
		if err != nil {
			return nil, err
		}
		w.vars = vars
	}
	for k, v := range defaults {
		if _, ok := w.vars.Lookup(k); ok {
			continue
		}
		rv, err := w.vars.ResolveString(v)
		if err != nil {
			return nil, err
		}
		w.vars.Bind(k, rv)
	}
	out, err := w.vars.ResolveJSONValue(body)
	if err != nil {
		return nil, err
	}
	m, _ := out.(map[string]any)
	return m, nil
}

// openBrowser starts the scenario's browser on first use.
func (w *World) openBrowser(ctx context.Context) (ports.Browser, error) {
	if w.browser != nil {
		return w.browser, nil
	}
	if w.deps.Browsers == nil {
		return nil, &domain.OpError{Op: "steps.browser", Kind: domain.KindInvalidConfig, Err: fmt.Errorf("no browser factory configured")}
	}
	b, err := w.deps.Browsers.Open(ctx, w.deps.Config)
	if err != nil {
		return nil, err
	}
	w.log.Info("browser.opened", "browser", w.deps.Config.Browser.Name, "headless", w.deps.Config.Browser.Headless)
	w.browser = b
	return b, nil
}

// closeBrowser quits the browser. Errors are logged only.
func (w *World) closeBrowser() {
	if w.browser == nil {
		return
	}
	if err := w.browser.Close(); err != nil {
		w.log.Warn("browser.close.failed", "err", err)
	} else {
		w.log.Info("browser.closed")
	}
	w.browser = nil
	w.detail, w.checkout, w.confirmation = nil, nil, nil
}

func (w *World) base(ctx context.Context) (pages.Base, error) {
	b, err := w.openBrowser(ctx)
	if err != nil {
		return pages.Base{}, err
	}
	return pages.NewBase(b, pages.SettingsFrom(w.deps.Config, w.log)), nil
}

func (w *World) loginPage(ctx context.Context) (*pages.Login, error) {
	b, err := w.base(ctx)
	if err != nil {
		return nil, err
	}
	return pages.NewLogin(b), nil
}

func (w *World) registrationPage(ctx context.Context) (*pages.Registration, error) {
	b, err := w.base(ctx)
	if err != nil {
		return nil, err
	}
	return pages.NewRegistration(b), nil
}

func (w *World) dashboardPage(ctx context.Context) (*pages.Dashboard, error) {
	b, err := w.base(ctx)
	if err != nil {
		return nil, err
	}
	return pages.NewDashboard(b), nil
}

func (w *World) productsPage(ctx context.Context) (*pages.Products, error) {
	b, err := w.base(ctx)
	if err != nil {
		return nil, err
	}
	return pages.NewProducts(b), nil
}

func (w *World) cartPage(ctx context.Context) (*pages.Cart, error) {
	b, err := w.base(ctx)
	if err != nil {
		return nil, err
	}
	return pages.NewCart(b), nil
}

func (w *World) checkoutPage(ctx context.Context) (*pages.Checkout, error) {
	if w.checkout != nil {
		return w.checkout, nil
	}
	b, err := w.base(ctx)
	if err != nil {
		return nil, err
	}
	w.checkout = pages.NewCheckout(b)
	return w.checkout, nil
}

func (w *World) detailPage(ctx context.Context) (*pages.ProductDetail, error) {
	if w.detail != nil {
		return w.detail, nil
	}
	b, err := w.base(ctx)
	if err != nil {
		return nil, err
	}
	w.detail = pages.NewProductDetail(b)
	return w.detail, nil
}

// waitForURL polls the current URL until it contains one of parts or the
// explicit wait runs out.
func (w *World) waitForURL(ctx context.Context, parts ...string) bool {
	b, err := w.base(ctx)
	if err != nil {
		return false
	}
	deadline := time.Now().Add(w.deps.Config.Timeouts.Explicit)
	for {
		for _, part := range parts {
			if b.URLContains(ctx, part) {
				return true
			}
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func (w *World) pause(ctx context.Context) {
	if w.deps.Pause <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(w.deps.Pause):
	}
}

func (w *World) trackUser(email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		return
	}
	for _, e := range w.createdUsers {
		if e == email {
			return
		}
	}
	w.createdUsers = append(w.createdUsers, email)
}

func (w *World) trackOrder(id string) {
	if id != "" {
		w.createdOrders = append(w.createdOrders, id)
	}
}

func (w *World) api(op string) (ports.ShopAPI, error) {
	if !w.deps.Config.Features.API || w.deps.API == nil {
		return nil, domain.Disabled(op, "ENABLE_API_TESTING")
	}
	return w.deps.API, nil
}

func (w *World) store(op string) (ports.ShopStore, error) {
	if !w.deps.Config.Features.Database || w.deps.Store == nil {
		return nil, domain.Disabled(op, "ENABLE_DATABASE_TESTING")
	}
	return w.deps.Store, nil
}

func (w *World) emailTimeout() time.Duration {
	if w.deps.EmailTimeout > 0 {
		return w.deps.EmailTimeout
	}
	return 30 * time.Second
}

// waitForEmail treats a disabled email feature as delivered.
func (w *World) waitForEmail(ctx context.Context, op, recipient, subject string) error {
	if !w.deps.Config.Features.Email {
		w.log.Info("email.check.skipped", "recipient", recipient, "subject", subject)
		return nil
	}
	if w.deps.Mailbox == nil {
		return &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Err: fmt.Errorf("no mailbox configured")}
	}
	ok, err := w.deps.Mailbox.WaitForEmail(ctx, recipient, subject, w.emailTimeout())
	if err != nil {
		return err
	}
	if !ok {
		return failf(op, "%s email not received by %s", subject, recipient)
	}
	return nil
}
