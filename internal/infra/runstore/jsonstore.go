package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/ports"
)

const maskValue = "********"

// JSONStore writes one JSON document per suite run under dir.
type JSONStore struct {
	dir            string
	maskingEnabled bool
	writeIndex     bool
	now            func() time.Time
}

type Option func(*JSONStore)

// WithIndex enables a simple JSONL index: <dir>/index.jsonl
func WithIndex(enabled bool) Option {
	return func(s *JSONStore) { s.writeIndex = enabled }
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *JSONStore) { s.now = now }
}

// NewJSONStore stores runs in <REPORT_DIR>/runs.
func NewJSONStore(cfg domain.Config, opts ...Option) *JSONStore {
	s := &JSONStore{
		dir:            filepath.Join(cfg.Paths.Reports, "runs"),
		maskingEnabled: cfg.Reports.Mask,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.ReportStore = (*JSONStore)(nil)

// SaveReport writes report and returns the file path.
func (s *JSONStore) SaveReport(report domain.SuiteReport) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", &domain.OpError{Op: "runstore.mkdir", Kind: domain.KindExecution, Path: s.dir, Err: err}
	}

	ts := report.StartedAt
	if ts.IsZero() {
		ts = s.now()
	}
	ts = ts.UTC()

	toSave := report
	if toSave.StartedAt.IsZero() {
		toSave.StartedAt = ts
	}
	slug := slugify(report.Name)
	if slug == "" {
		slug = "run"
	}

	filename := fmt.Sprintf("%s_%s.json", ts.Format("20060102T150405Z"), slug)
	id := strings.TrimSuffix(filename, ".json")
	if toSave.ID == "" {
		toSave.ID = id
	}
	path := filepath.Join(s.dir, filename)

	if s.maskingEnabled {
		toSave = maskReport(toSave)
	}

	b, err := json.MarshalIndent(toSave, "", "  ")
	if err != nil {
		return "", &domain.OpError{Op: "runstore.marshal", Kind: domain.KindExecution, Path: path, Err: err}
	}

	// Atomic-ish write: tmp then rename.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return "", &domain.OpError{Op: "runstore.write", Kind: domain.KindExecution, Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", &domain.OpError{Op: "runstore.rename", Kind: domain.KindExecution, Path: path, Err: err}
	}

	if s.writeIndex {
		_ = s.appendIndex(toSave.ID, filename, toSave)
	}
	return path, nil
}

func (s *JSONStore) appendIndex(id, filename string, r domain.SuiteReport) error {
	type idx struct {
		ID          string    `json:"id"`
		File        string    `json:"file"`
		Name        string    `json:"name"`
		Environment string    `json:"environment"`
		Browser     string    `json:"browser"`
		Passed      int       `json:"passed"`
		Failed      int       `json:"failed"`
		StartedAt   time.Time `json:"started_at"`
	}
	sum := r.Summarize()
	line, err := json.Marshal(idx{
		ID:          id,
		File:        filename,
		Name:        r.Name,
		Environment: r.Environment,
		Browser:     r.Browser,
		Passed:      sum.Passed,
		Failed:      sum.Failed,
		StartedAt:   r.StartedAt,
	})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(s.dir, "index.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, _ = f.Write(append(line, '\n'))
	return nil
}

// maskReport returns a masked copy (does NOT mutate the input). Sensitive
// parameter values are also scrubbed from error texts.
func maskReport(r domain.SuiteReport) domain.SuiteReport {
	out := r
	out.Parameters = domain.Vars{}
	var secrets []string
	for k, v := range r.Parameters {
		if isSensitiveKey(k) {
			out.Parameters[k] = maskValue
			if v != "" {
				secrets = append(secrets, v)
			}
			continue
		}
		out.Parameters[k] = v
	}
	scrub := func(s string) string {
		for _, secret := range secrets {
			s = strings.ReplaceAll(s, secret, maskValue)
		}
		return s
	}

	out.Scenarios = make([]domain.ScenarioResult, len(r.Scenarios))
	for i, sc := range r.Scenarios {
		c := sc
		c.Error = scrub(sc.Error)
		c.Steps = make([]domain.StepResult, len(sc.Steps))
		for j, st := range sc.Steps {
			st.Text = scrub(st.Text)
			st.Error = scrub(st.Error)
			c.Steps[j] = st
		}
		out.Scenarios[i] = c
	}
	return out
}

func isSensitiveKey(k string) bool {
	kk := strings.ToLower(k)
	return strings.Contains(kk, "token") ||
		strings.Contains(kk, "secret") ||
		strings.Contains(kk, "password") ||
		strings.Contains(kk, "api_key") ||
		strings.Contains(kk, "card_number") ||
		strings.Contains(kk, "cvv")
}

// slugify produces a safe filename component.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
