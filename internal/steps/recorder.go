package steps

import (
	"path"
	"strings"
	"sync"

	"github.com/chiru781/cursior/internal/domain"
)

// Recorder collects scenario results from concurrently running scenarios.
type Recorder struct {
	mu       sync.Mutex
	features map[string]string
	started  map[string]bool
	results  []domain.ScenarioResult
}

func NewRecorder() *Recorder {
	return &Recorder{features: map[string]string{}, started: map[string]bool{}}
}

// Begin reports whether uri is seen for the first time in this run.
func (r *Recorder) Begin(uri string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started[uri] {
		return false
	}
	r.started[uri] = true
	return true
}

// SetFeature names the feature declared in the file at uri.
func (r *Recorder) SetFeature(uri, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.features[uri] = name
}

// Feature returns the feature name of uri, or the file name without its
// extension when the feature was never named.
func (r *Recorder) Feature(uri string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.features[uri]; ok {
		return n
	}
	return strings.TrimSuffix(path.Base(uri), path.Ext(uri))
}

func (r *Recorder) Add(res domain.ScenarioResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// Results returns a copy of everything recorded so far.
func (r *Recorder) Results() []domain.ScenarioResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ScenarioResult(nil), r.results...)
}

func (r *Recorder) Summary() domain.Summary {
	return domain.SuiteReport{Scenarios: r.Results()}.Summarize()
}

// FeatureSummary is the outcome of the scenarios of one feature.
type FeatureSummary struct {
	Feature string
	domain.Summary
}

// Features summarizes the recorded results per feature, in the order the
// features first finished a scenario.
func (r *Recorder) Features() []FeatureSummary {
	var order []string
	byFeature := map[string][]domain.ScenarioResult{}
	for _, res := range r.Results() {
		if _, ok := byFeature[res.Feature]; !ok {
			order = append(order, res.Feature)
		}
		byFeature[res.Feature] = append(byFeature[res.Feature], res)
	}
	out := make([]FeatureSummary, 0, len(order))
	for _, f := range order {
		out = append(out, FeatureSummary{
			Feature: f,
			Summary: domain.SuiteReport{Scenarios: byFeature[f]}.Summarize(),
		})
	}
	return out
}
