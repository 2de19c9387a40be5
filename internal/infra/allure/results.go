// Package allure writes Allure result files for a suite run and drives the
// allure command line tool.
package allure

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/ports"
)

type label struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type statusDetails struct {
	Message string `json:"message,omitempty"`
}

type attachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

type step struct {
	Name          string        `json:"name"`
	Status        string        `json:"status"`
	Stage         string        `json:"stage"`
	StatusDetails statusDetails `json:"statusDetails"`
	Start         int64         `json:"start"`
	Stop          int64         `json:"stop"`
}

type result struct {
	UUID          string        `json:"uuid"`
	HistoryID     string        `json:"historyId"`
	Name          string        `json:"name"`
	FullName      string        `json:"fullName"`
	Status        string        `json:"status"`
	Stage         string        `json:"stage"`
	StatusDetails statusDetails `json:"statusDetails"`
	Start         int64         `json:"start"`
	Stop          int64         `json:"stop"`
	Labels        []label       `json:"labels"`
	Parameters    []label       `json:"parameters"`
	Steps         []step        `json:"steps"`
	Attachments   []attachment  `json:"attachments"`
}

var severities = map[string]bool{"blocker": true, "critical": true, "normal": true, "minor": true, "trivial": true}

// Writer emits one <uuid>-result.json per scenario.
type Writer struct {
	dir string
	env map[string]string
	log *slog.Logger
}

var _ ports.ResultWriter = (*Writer)(nil)

type WriterOption func(*Writer)

func WithLogger(l *slog.Logger) WriterOption {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWriter writes into <REPORT_DIR>/allure-results.
func NewWriter(cfg domain.Config, opts ...WriterOption) *Writer {
	w := &Writer{
		dir: ResultsDir(cfg),
		log: slog.New(slog.DiscardHandler),
		env: map[string]string{
			"Environment":  cfg.Environment,
			"Browser":      cfg.Browser.Name,
			"Headless":     strconv.FormatBool(cfg.Browser.Headless),
			"Base.URL":     cfg.App.BaseURL,
			"API.Base.URL": cfg.App.APIBaseURL,
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func ResultsDir(cfg domain.Config) string {
	return filepath.Join(cfg.Paths.Reports, "allure-results")
}

func (w *Writer) Dir() string { return w.dir }

// Write emits the results of report and returns the files written. A
// screenshot that cannot be attached is logged and left out of its result.
func (w *Writer) Write(report domain.SuiteReport) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, &domain.OpError{Op: "allure.mkdir", Kind: domain.KindExecution, Path: w.dir, Err: err}
	}

	var files []string
	for _, sc := range report.Scenarios {
		res := w.convert(report, sc)

		for _, shot := range sc.Screenshots {
			src := uuid.NewString() + "-attachment.png"
			dst := filepath.Join(w.dir, src)
			if err := copyFile(shot.Path, dst); err != nil {
				w.log.Warn("allure.attach.failed", "scenario", sc.Name, "path", shot.Path, "err", err)
				continue
			}
			res.Attachments = append(res.Attachments, attachment{Name: shot.Name, Source: src, Type: "image/png"})
			files = append(files, dst)
		}

		path := filepath.Join(w.dir, res.UUID+"-result.json")
		if err := writeJSON(path, res); err != nil {
			return files, err
		}
		files = append(files, path)
	}

	envPath, err := w.writeEnvironment(report)
	if err != nil {
		return files, err
	}
	return append(files, envPath), nil
}

func (w *Writer) convert(report domain.SuiteReport, sc domain.ScenarioResult) result {
	fullName := sc.Feature + ": " + sc.Name
	if sc.URI != "" {
		fullName = sc.URI + ": " + sc.Name
	}
	start := sc.Started.UnixMilli()

	res := result{
		UUID:          uuid.NewString(),
		HistoryID:     uuid.NewSHA1(uuid.NameSpaceURL, []byte(fullName)).String(),
		Name:          sc.Name,
		FullName:      fullName,
		Status:        Status(sc.Status),
		Stage:         "finished",
		StatusDetails: statusDetails{Message: sc.Error},
		Start:         start,
		Stop:          start + sc.Duration.Milliseconds(),
		Parameters: []label{
			{Name: "environment", Value: report.Environment},
			{Name: "browser", Value: report.Browser},
		},
		Steps:       make([]step, 0, len(sc.Steps)),
		Attachments: []attachment{},
	}

	res.Labels = []label{
		{Name: "feature", Value: sc.Feature},
		{Name: "suite", Value: sc.Feature},
		{Name: "framework", Value: "godog"},
		{Name: "language", Value: "go"},
	}
	severity := "normal"
	for _, tag := range sc.Tags {
		t := strings.TrimPrefix(tag, "@")
		res.Labels = append(res.Labels, label{Name: "tag", Value: t})
		if severities[t] {
			severity = t
		}
	}
	res.Labels = append(res.Labels, label{Name: "severity", Value: severity})

	for _, st := range sc.Steps {
		s := st.Started.UnixMilli()
		res.Steps = append(res.Steps, step{
			Name:          strings.TrimSpace(st.Keyword + " " + st.Text),
			Status:        Status(st.Status),
			Stage:         "finished",
			StatusDetails: statusDetails{Message: st.Error},
			Start:         s,
			Stop:          s + st.Duration.Milliseconds(),
		})
	}
	return res
}

// Status maps a scenario status to its Allure name.
func Status(s domain.Status) string {
	switch s {
	case domain.StatusPassed:
		return "passed"
	case domain.StatusFailed:
		return "failed"
	case domain.StatusSkipped, domain.StatusPending:
		return "skipped"
	default:
		return "broken"
	}
}

func (w *Writer) writeEnvironment(report domain.SuiteReport) (string, error) {
	props := map[string]string{}
	for k, v := range w.env {
		props[k] = v
	}
	if report.Environment != "" {
		props["Environment"] = report.Environment
	}
	if report.Browser != "" {
		props["Browser"] = report.Browser
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, props[k])
	}

	path := filepath.Join(w.dir, "environment.properties")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", &domain.OpError{Op: "allure.environment", Kind: domain.KindExecution, Path: path, Err: err}
	}
	return path, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &domain.OpError{Op: "allure.marshal", Kind: domain.KindExecution, Path: path, Err: err}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return &domain.OpError{Op: "allure.write", Kind: domain.KindExecution, Path: path, Err: err}
	}
	return nil
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o644)
}
