package steps

import (
	"context"
	"errors"
	"time"

	"github.com/cucumber/godog"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/config"
)

// InitializeSuite logs the run boundaries, creates the output and data
// directories and waits for the shop API when API steps are enabled.
func InitializeSuite(ts *godog.TestSuiteContext, d *Deps) {
	log := d.logger()
	var started time.Time

	ts.BeforeSuite(func() {
		started = time.Now()
		cfg := d.Config
		if err := config.EnsureDirectories(cfg); err != nil {
			log.Warn("suite.mkdir.failed", "err", err)
		}
		log.Info("suite.start",
			"environment", cfg.Environment,
			"browser", cfg.Browser.Name,
			"headless", cfg.Browser.Headless,
			"base_url", cfg.App.BaseURL,
			"dry_run", d.DryRun,
		)
		if d.DryRun || !cfg.Features.API || d.API == nil {
			return
		}
		if !d.API.WaitReady(context.Background(), d.APIReadyAttempts, d.APIReadyDelay) {
			log.Warn("suite.api.unavailable", "api_base_url", cfg.App.APIBaseURL)
		}
	})

	ts.AfterSuite(func() {
		attrs := []any{"duration", time.Since(started).Round(time.Millisecond)}
		if d.Recorder != nil {
			for _, f := range d.Recorder.Features() {
				log.Info("feature.end", "feature", f.Feature, "total", f.Total, "passed", f.Passed, "failed", f.Failed)
			}
			s := d.Recorder.Summary()
			attrs = append(attrs, "total", s.Total, "passed", s.Passed, "failed", s.Failed, "skipped", s.Skipped, "undefined", s.Undefined)
		}
		log.Info("suite.end", attrs...)
	})
}

// InitializeScenario creates the scenario's World, registers every step
// module against it and installs the lifecycle hooks.
func InitializeScenario(sc *godog.ScenarioContext, d *Deps) {
	w := newWorld(d)
	register(sc, w, d.DryRun)

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		if err := w.begin(s); err != nil {
			return ctx, err
		}
		if d.Recorder != nil && d.Recorder.Begin(s.Uri) {
			d.logger().Info("feature.start", "feature", w.result.Feature, "uri", s.Uri)
		}
		w.log = d.logger().With("scenario", s.Name)
		w.log.Info("scenario.start", "uri", s.Uri, "tags", w.result.Tags)
		return ctx, nil
	})

	sc.StepContext().Before(func(ctx context.Context, st *godog.Step) (context.Context, error) {
		w.stepStart = time.Now()
		w.log.Debug("step.start", "step", st.Text)
		return ctx, nil
	})

	sc.StepContext().After(func(ctx context.Context, st *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
		res := domain.StepResult{
			Text:     st.Text,
			Status:   stepStatus(status),
			Started:  w.stepStart,
			Duration: time.Since(w.stepStart),
		}
		if w.stepStart.IsZero() {
			res.Started, res.Duration = time.Now(), 0
		}
		if err != nil && res.Status == domain.StatusFailed {
			res.Error = err.Error()
			w.log.Error("step.failed", "step", st.Text, "err", err)
			w.screenshot(ctx, "failed_step_"+st.Text)
		}
		w.result.Steps = append(w.result.Steps, res)
		w.stepStart = time.Time{}
		return ctx, nil
	})

	sc.After(func(ctx context.Context, s *godog.Scenario, err error) (context.Context, error) {
		w.result.Duration = time.Since(w.result.Started)
		w.result.Status = scenarioStatus(w.result.Steps, err)
		if err != nil {
			w.result.Error = err.Error()
		}
		w.log.Info("scenario.end", "status", w.result.Status, "duration", w.result.Duration.Round(time.Millisecond))

		if w.result.Status == domain.StatusFailed {
			w.screenshot(ctx, "failed_scenario_"+s.Name)
		}
		w.collectConsole(ctx)
		w.cleanup(ctx)
		if w.apiAuthed && d.API != nil {
			d.API.ClearAuthToken()
			w.apiAuthed = false
		}
		w.closeBrowser()

		if d.Recorder != nil {
			d.Recorder.Add(w.result)
		}
		return ctx, nil
	})
}

func stepStatus(s godog.StepResultStatus) domain.Status {
	switch s.String() {
	case "passed":
		return domain.StatusPassed
	case "skipped":
		return domain.StatusSkipped
	case "undefined":
		return domain.StatusUndefined
	case "pending":
		return domain.StatusPending
	case "ambiguous":
		return domain.StatusAmbiguous
	default:
		return domain.StatusFailed
	}
}

// scenarioStatus derives the outcome from the step results, falling back to
// the error godog reports for the scenario.
func scenarioStatus(steps []domain.StepResult, err error) domain.Status {
	seen := map[domain.Status]bool{}
	for _, st := range steps {
		seen[st.Status] = true
	}
	switch {
	case seen[domain.StatusFailed]:
		return domain.StatusFailed
	case seen[domain.StatusAmbiguous]:
		return domain.StatusAmbiguous
	case seen[domain.StatusUndefined] || errors.Is(err, godog.ErrUndefined):
		return domain.StatusUndefined
	case seen[domain.StatusPending] || errors.Is(err, godog.ErrPending):
		return domain.StatusPending
	case errors.Is(err, godog.ErrSkip):
		return domain.StatusSkipped
	case err != nil:
		return domain.StatusFailed
	case len(steps) > 0 && !seen[domain.StatusPassed]:
		return domain.StatusSkipped
	default:
		return domain.StatusPassed
	}
}

// screenshot captures the open browser when failure screenshots are on.
func (w *World) screenshot(ctx context.Context, name string) {
	if w.browser == nil || !w.deps.Config.Features.ScreenshotsOnFailure || w.deps.Screenshots == nil {
		return
	}
	png, err := w.browser.Screenshot(ctx)
	if err != nil {
		w.log.Warn("screenshot.failed", "name", name, "err", err)
		return
	}
	shot, err := w.deps.Screenshots.Save(name, png)
	if err != nil {
		w.log.Warn("screenshot.save.failed", "name", name, "err", err)
		return
	}
	w.log.Info("screenshot.saved", "path", shot.Path)
	w.result.Screenshots = append(w.result.Screenshots, shot)
}

func (w *World) collectConsole(ctx context.Context) {
	if w.browser == nil {
		return
	}
	entries, err := w.browser.ConsoleLogs(ctx)
	if err != nil {
		w.log.Debug("console.unavailable", "err", err)
		return
	}
	for _, e := range entries {
		w.log.Debug("console", "level", e.Level, "message", e.Message)
	}
}

// cleanup removes the users and orders the scenario created.
func (w *World) cleanup(ctx context.Context) {
	if len(w.createdUsers) == 0 && len(w.createdOrders) == 0 {
		return
	}
	st, err := w.store("steps.cleanup")
	if err != nil {
		return
	}
	for _, id := range w.createdOrders {
		if _, err := st.DeleteOrder(ctx, id); err != nil {
			w.log.Warn("cleanup.order.failed", "order_id", id, "err", err)
		}
	}
	for _, email := range w.createdUsers {
		if _, err := st.DeleteUserByEmail(ctx, email); err != nil {
			w.log.Warn("cleanup.user.failed", "email", email, "err", err)
		}
	}
	w.log.Debug("cleanup.done", "users", len(w.createdUsers), "orders", len(w.createdOrders))
	w.createdUsers, w.createdOrders = nil, nil
}
