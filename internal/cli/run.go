package cli

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/usecase"
)

type runOptions struct {
	tags           string
	features       []string
	dryRun         bool
	browser        string
	headless       bool
	environment    string
	defines        []string
	parallel       int
	stopOnFailure  bool
	strict         bool
	format         string
	randomize      int64
	generateReport bool
	openReport     bool
	noUpload       bool
	noNotify       bool
}

var flagValues = validator.New()

// check validates the enumerated flags.
func (o *runOptions) check() error {
	rules := []struct{ flag, value, rule string }{
		{"browser", o.browser, "omitempty,oneof=chrome firefox edge"},
		{"environment", o.environment, "omitempty,oneof=development staging production"},
		{"format", o.format, "omitempty,oneof=pretty progress json junit"},
	}
	for _, r := range rules {
		if err := flagValues.Var(r.value, r.rule); err != nil {
			return &domain.OpError{
				Op:   "cli.run.flags",
				Kind: domain.KindInvalidConfig,
				Err:  fmt.Errorf("invalid --%s %q", r.flag, r.value),
			}
		}
	}
	if o.parallel < 0 {
		return &domain.OpError{Op: "cli.run.flags", Kind: domain.KindInvalidConfig, Err: fmt.Errorf("--parallel must be positive")}
	}
	return nil
}

// overrides turns flags into configuration keys; flags beat -D values.
func (o *runOptions) overrides(cmd *cobra.Command, base map[string]string) map[string]string {
	out := make(map[string]string, len(base)+4)
	for k, v := range base {
		out[k] = v
	}
	if o.browser != "" {
		out["browser"] = o.browser
	}
	if o.environment != "" {
		out["environment"] = o.environment
	}
	if cmd.Flags().Changed("headless") {
		out["headless"] = strconv.FormatBool(o.headless)
	}
	if o.parallel > 0 {
		out["parallel_processes"] = strconv.Itoa(o.parallel)
	}
	return out
}

func runCmd(g *globalOptions) *cobra.Command {
	o := &runOptions{}

	c := &cobra.Command{
		Use:   "run",
		Short: "Run the feature files",
		Example: `  cursior run --tags @smoke
  cursior run -f features/login.feature -b firefox --headless
  cursior run -e production -D base_url=https://shop.example.com --generate-report`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.check(); err != nil {
				return &exitError{code: exitInvalid, err: err}
			}
			defined, vars, err := splitDefines(o.defines)
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}
			ws, err := loadWorkspace(g, o.overrides(cmd, defined))
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}

			log, closeLog := setupLogging(ws.cfg, g.verbose, g.verbose, cmd.ErrOrStderr())
			defer closeLog()

			fsys, paths, source, err := featureSource(ws, o.features)
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}

			ctx := cmd.Context()
			s := buildSuite(ctx, ws.cfg, log, vars, o.dryRun)
			defer s.Close()
			uc := newRunSuite(ctx, ws, fsys, s, log)

			tags := o.tags
			if tags == "" && ws.project != nil {
				tags = ws.project.Defaults.Tags
			}
			log.Info("run.start", "features", source, "paths", paths, "tags", tags)

			out, err := uc.Execute(ctx, usecase.RunOptions{
				Tags:           tags,
				Paths:          paths,
				Format:         o.format,
				Concurrency:    ws.cfg.Runtime.Parallel,
				Strict:         o.strict,
				StopOnFailure:  o.stopOnFailure,
				DryRun:         o.dryRun,
				Randomize:      o.randomize,
				Output:         cmd.OutOrStdout(),
				NoColors:       g.noColor,
				Publish:        !o.noUpload,
				Notify:         !o.noNotify,
				GenerateReport: o.generateReport || o.openReport,
				OpenReport:     o.openReport,
				Parameters:     runParameters(ws.cfg, vars),
			})
			out.Warnings = append(s.warnings, out.Warnings...)
			printSummary(cmd.OutOrStdout(), out, newStyles(g.noColor))
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}
			if out.Status != usecase.StatusPassed {
				return &exitError{code: out.Status}
			}
			return nil
		},
	}

	f := c.Flags()
	f.StringVarP(&o.tags, "tags", "t", "", "Tag expression, e.g. \"@smoke && ~@wip\"")
	f.StringArrayVarP(&o.features, "feature", "f", nil, "Feature file or directory (repeatable; file:line selects a scenario)")
	f.BoolVar(&o.dryRun, "dry-run", false, "Match steps without executing them")
	f.StringVarP(&o.browser, "browser", "b", "", "Browser: chrome|firefox|edge")
	f.BoolVar(&o.headless, "headless", false, "Run the browser headless")
	f.StringVarP(&o.environment, "environment", "e", "", "Environment: development|staging|production")
	f.StringArrayVarP(&o.defines, "define", "D", nil, "Set a variable or configuration key (key=value, repeatable)")
	f.IntVarP(&o.parallel, "parallel", "p", 0, "Scenarios to run concurrently (default PARALLEL_PROCESSES)")
	f.BoolVar(&o.stopOnFailure, "stop-on-failure", false, "Stop at the first failing scenario")
	f.BoolVar(&o.strict, "strict", true, "Fail on undefined or pending steps")
	f.StringVar(&o.format, "format", "pretty", "Console format: pretty|progress|json|junit")
	f.Int64Var(&o.randomize, "randomize", 0, "Shuffle scenarios with this seed (-1 picks one)")
	f.BoolVar(&o.generateReport, "generate-report", false, "Build the Allure HTML report after the run")
	f.BoolVar(&o.openReport, "open-report", false, "Build and open the Allure report")
	f.BoolVar(&o.noUpload, "no-upload", false, "Skip uploading reports even when REPORT_BUCKET is set")
	f.BoolVar(&o.noNotify, "no-notify", false, "Skip the summary email even when NOTIFY_EMAIL is set")
	return c
}

// runParameters records what the run was started with.
func runParameters(cfg domain.Config, vars domain.Vars) domain.Vars {
	out := domain.Vars{
		"environment":  cfg.Environment,
		"browser":      cfg.Browser.Name,
		"headless":     strconv.FormatBool(cfg.Browser.Headless),
		"base_url":     cfg.App.BaseURL,
		"api_base_url": cfg.App.APIBaseURL,
		"parallel":     strconv.Itoa(cfg.Runtime.Parallel),
	}
	for k, v := range vars {
		out["D."+k] = v
	}
	return out
}
