package cli

import (
	"context"
	"io/fs"
	"log/slog"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/allure"
	"github.com/chiru781/cursior/internal/infra/browser"
	"github.com/chiru781/cursior/internal/infra/emailqueue"
	"github.com/chiru781/cursior/internal/infra/mailbox"
	"github.com/chiru781/cursior/internal/infra/runstore"
	"github.com/chiru781/cursior/internal/infra/s3publish"
	"github.com/chiru781/cursior/internal/infra/screenshots"
	"github.com/chiru781/cursior/internal/infra/shopapi"
	"github.com/chiru781/cursior/internal/infra/smtpmail"
	"github.com/chiru781/cursior/internal/infra/sqlstore"
	"github.com/chiru781/cursior/internal/steps"
	"github.com/chiru781/cursior/internal/usecase"
)

// suite bundles the collaborators of one run and how to release them.
type suite struct {
	deps     steps.Deps
	warnings []string
	closers  []func() error
}

func (s *suite) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

// buildSuite connects the subsystems enabled in cfg. A subsystem that
// cannot be reached is left out with a warning; its steps then fail as
// unavailable instead of aborting the whole run.
func buildSuite(ctx context.Context, cfg domain.Config, log *slog.Logger, vars domain.Vars, dryRun bool) *suite {
	s := &suite{deps: steps.Deps{
		Config:      cfg,
		Log:         log,
		Browsers:    browser.NewFactory(browser.WithLogger(log)),
		Screenshots: screenshots.New(cfg.Paths.Screenshots),
		Vars:        vars,
	}}
	if dryRun {
		return s
	}
	warn := func(what string, err error) {
		log.Warn("suite.subsystem.unavailable", "subsystem", what, "err", err)
		s.warnings = append(s.warnings, what+" unavailable: "+err.Error())
	}

	if cfg.Features.API {
		s.deps.API = shopapi.New(cfg, shopapi.WithLogger(log))
	}
	if cfg.Features.Database {
		st, err := sqlstore.Open(ctx, cfg.Database, sqlstore.WithLogger(log))
		if err != nil {
			warn("database", err)
		} else {
			s.deps.Store = st
			s.closers = append(s.closers, st.Close)
		}
	}
	if cfg.Features.Email {
		s.deps.Mailbox = mailbox.New(cfg, mailbox.WithLogger(log))
		q, err := emailqueue.Open(ctx, cfg.Queue, log)
		if err != nil {
			warn("email queue", err)
		} else {
			s.deps.Queue = q
			s.closers = append(s.closers, q.Close)
		}
	}
	return s
}

// newRunSuite wires the report writers. Upload and notification are only
// attached when REPORT_BUCKET or NOTIFY_EMAIL are set.
func newRunSuite(ctx context.Context, ws *workspaceCtx, fsys fs.FS, s *suite, log *slog.Logger) *usecase.RunSuite {
	cfg := ws.cfg
	opts := []usecase.RunOption{
		usecase.WithLogger(log),
		usecase.WithReportStore(runstore.NewJSONStore(cfg, runstore.WithIndex(true))),
		usecase.WithResultWriter(allure.NewWriter(cfg, allure.WithLogger(log))),
		usecase.WithRenderer(allure.CLI{}),
	}
	if ws.project != nil {
		opts = append(opts, usecase.WithSuiteName(ws.project.Name))
	}
	if cfg.Reports.Bucket != "" {
		pub, err := s3publish.New(ctx, cfg, s3publish.WithLogger(log))
		if err != nil {
			s.warnings = append(s.warnings, "report upload unavailable: "+err.Error())
		} else {
			opts = append(opts, usecase.WithPublisher(pub))
		}
	}
	if cfg.Email.NotifyTo != "" {
		opts = append(opts, usecase.WithNotifier(smtpmail.New(cfg.Email, log)))
	}
	return usecase.NewRunSuite(cfg, fsys, s.deps, opts...)
}
