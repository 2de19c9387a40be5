package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/ports"
	"github.com/chiru781/cursior/internal/steps"
)

// Exit statuses follow godog: 0 passed, 1 failed, 2 could not run.
const (
	StatusPassed  = 0
	StatusFailed  = 1
	StatusInvalid = 2
)

type RunSuite struct {
	name     string
	cfg      domain.Config
	features fs.FS
	deps     steps.Deps

	reports   ports.ReportStore
	results   ports.ResultWriter
	publisher ports.ArtifactPublisher
	notifier  ports.Notifier
	renderer  ports.ReportRenderer
	log       *slog.Logger
	now       func() time.Time
}

type RunOption func(*RunSuite)

func WithSuiteName(name string) RunOption {
	return func(uc *RunSuite) {
		if name != "" {
			uc.name = name
		}
	}
}

func WithReportStore(s ports.ReportStore) RunOption {
	return func(uc *RunSuite) { uc.reports = s }
}

// WithResultWriter enables Allure result files.
func WithResultWriter(w ports.ResultWriter) RunOption {
	return func(uc *RunSuite) { uc.results = w }
}

func WithPublisher(p ports.ArtifactPublisher) RunOption {
	return func(uc *RunSuite) { uc.publisher = p }
}

func WithNotifier(n ports.Notifier) RunOption {
	return func(uc *RunSuite) { uc.notifier = n }
}

func WithRenderer(r ports.ReportRenderer) RunOption {
	return func(uc *RunSuite) { uc.renderer = r }
}

func WithLogger(l *slog.Logger) RunOption {
	return func(uc *RunSuite) {
		if l != nil {
			uc.log = l
		}
	}
}

// WithClock is useful for tests.
func WithClock(now func() time.Time) RunOption {
	return func(uc *RunSuite) { uc.now = now }
}

// NewRunSuite runs the features in fsys against cfg. deps carries the
// browser factory and the optional API, database and mail collaborators.
func NewRunSuite(cfg domain.Config, fsys fs.FS, deps steps.Deps, opts ...RunOption) *RunSuite {
	uc := &RunSuite{
		name:     "cursior",
		cfg:      cfg,
		features: fsys,
		deps:     deps,
		log:      slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// RunOptions select what to run and where the output goes.
type RunOptions struct {
	Tags  string
	Paths []string
	// Features replaces the feature source given to NewRunSuite.
	Features      fs.FS
	Format        string
	Concurrency   int
	Strict        bool
	StopOnFailure bool
	DryRun        bool
	// Randomize is a shuffle seed; -1 picks one, 0 keeps file order.
	Randomize int64
	Output    io.Writer
	NoColors  bool

	Publish        bool
	Notify         bool
	GenerateReport bool
	OpenReport     bool

	// Parameters are recorded in the report (effective settings, -D values).
	Parameters domain.Vars
}

// RunOutcome is the result of Execute. Artifact failures never fail the
// run; they are collected in Warnings.
type RunOutcome struct {
	Report     domain.SuiteReport
	Status     int
	ReportPath string
	JUnitPath  string
	Artifacts  []string
	Published  []string
	Warnings   []string
}

// Execute runs the suite and writes its artifacts.
func (uc *RunSuite) Execute(ctx context.Context, opts RunOptions) (RunOutcome, error) {
	fsys := opts.Features
	if fsys == nil {
		fsys = uc.features
	}
	infos, err := ListFeatures(fsys, opts.Paths)
	if err != nil {
		return RunOutcome{Status: StatusInvalid}, err
	}
	if errs := featureErrors(infos); len(errs) > 0 {
		return RunOutcome{Status: StatusInvalid}, errors.Join(errs...)
	}
	if len(infos) == 0 {
		return RunOutcome{Status: StatusInvalid}, &domain.OpError{
			Op:   "suite.run",
			Kind: domain.KindNotFound,
			Err:  fmt.Errorf("no feature files found: %w", domain.ErrNotFound),
		}
	}

	reportsDir := uc.cfg.Paths.Reports
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return RunOutcome{Status: StatusInvalid}, &domain.OpError{Op: "suite.mkdir", Kind: domain.KindExecution, Path: reportsDir, Err: err}
	}

	rec := steps.NewRecorder()
	for _, f := range infos {
		rec.SetFeature(f.Path, f.Name)
	}

	deps := uc.deps
	deps.Config = uc.cfg
	deps.Vars = uc.cfg.Vars()
	for k, v := range uc.deps.Vars {
		deps.Vars[k] = v
	}
	deps.Recorder = rec
	deps.DryRun = opts.DryRun
	if deps.Log == nil {
		deps.Log = uc.log
	}

	var out RunOutcome
	format := consoleFormat(opts.Format)
	if !opts.DryRun {
		out.JUnitPath = filepath.Join(reportsDir, "junit.xml")
		format += ",junit:" + out.JUnitPath + ",cucumber:" + filepath.Join(reportsDir, "cucumber.json")
	}

	paths := opts.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	output := opts.Output
	if output == nil {
		output = io.Discard
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	uc.log.Info("suite.run",
		"features", len(infos),
		"tags", opts.Tags,
		"format", format,
		"concurrency", concurrency,
		"dry_run", opts.DryRun,
	)

	started := uc.now()
	out.Status = godog.TestSuite{
		Name:                 uc.name,
		TestSuiteInitializer: func(ts *godog.TestSuiteContext) { steps.InitializeSuite(ts, &deps) },
		ScenarioInitializer:  func(sc *godog.ScenarioContext) { steps.InitializeScenario(sc, &deps) },
		Options: &godog.Options{
			Format:         format,
			Output:         output,
			FS:             fsys,
			Paths:          paths,
			Tags:           opts.Tags,
			Concurrency:    concurrency,
			Strict:         opts.Strict,
			StopOnFailure:  opts.StopOnFailure,
			Randomize:      opts.Randomize,
			NoColors:       opts.NoColors,
			DefaultContext: ctx,
		},
	}.Run()

	out.Report = domain.SuiteReport{
		ID:          uuid.NewString(),
		Name:        uc.name,
		Environment: uc.cfg.Environment,
		Browser:     uc.cfg.Browser.Name,
		Tags:        opts.Tags,
		StartedAt:   started,
		FinishedAt:  uc.now(),
		Scenarios:   rec.Results(),
		ExitStatus:  out.Status,
		Parameters:  opts.Parameters,
	}
	if err := ctx.Err(); err != nil {
		return out, &domain.OpError{Op: "suite.run", Kind: domain.KindTimeout, Err: err}
	}
	if opts.DryRun {
		return out, nil
	}

	uc.writeArtifacts(ctx, opts, &out)
	return out, nil
}

func (uc *RunSuite) writeArtifacts(ctx context.Context, opts RunOptions, out *RunOutcome) {
	warn := func(what string, err error) {
		uc.log.Warn("suite.artifact.failed", "artifact", what, "err", err)
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %v", what, err))
	}

	if uc.reports != nil {
		p, err := uc.reports.SaveReport(out.Report)
		if err != nil {
			warn("run report", err)
		} else {
			out.ReportPath = p
			out.Artifacts = append(out.Artifacts, p)
		}
	}

	if uc.results != nil {
		files, err := uc.results.Write(out.Report)
		out.Artifacts = append(out.Artifacts, files...)
		if err != nil {
			warn("allure results", err)
		}
	}

	if opts.GenerateReport && uc.renderer != nil && uc.results != nil {
		dir := filepath.Join(uc.cfg.Paths.Reports, "allure-report")
		if err := uc.renderer.Generate(ctx, uc.results.Dir(), dir); err != nil {
			warn("allure report", err)
		} else if opts.OpenReport {
			if err := uc.renderer.Open(ctx, dir); err != nil {
				warn("allure open", err)
			}
		}
	}

	if opts.Publish && uc.publisher != nil {
		files := append([]string{out.JUnitPath, filepath.Join(uc.cfg.Paths.Reports, "cucumber.json")}, out.Artifacts...)
		for _, sc := range out.Report.Scenarios {
			for _, shot := range sc.Screenshots {
				files = append(files, shot.Path)
			}
		}
		keys, err := uc.publisher.Publish(ctx, out.Report.ID, existing(files))
		out.Published = keys
		if err != nil {
			warn("publish", err)
		}
	}

	if opts.Notify && uc.notifier != nil && uc.cfg.Email.NotifyTo != "" {
		msg := SummaryEmail(out.Report, uc.cfg.Email.NotifyTo)
		if err := uc.notifier.Send(ctx, msg); err != nil {
			warn("summary email", err)
		}
	}
}

// consoleFormat maps the CLI format names onto godog formatters.
func consoleFormat(f string) string {
	switch strings.ToLower(strings.TrimSpace(f)) {
	case "", "pretty":
		return "pretty"
	case "json", "cucumber":
		return "cucumber"
	default:
		return strings.ToLower(strings.TrimSpace(f))
	}
}

func existing(files []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(files))
	for _, f := range files {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		if _, err := os.Stat(f); err == nil {
			out = append(out, f)
		}
	}
	return out
}
