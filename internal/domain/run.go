package domain

import "time"

// Status is the outcome of a scenario or step.
type Status string

const (
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusUndefined Status = "undefined"
	StatusPending   Status = "pending"
	StatusAmbiguous Status = "ambiguous"
)

// StepResult records one executed step.
type StepResult struct {
	Keyword  string
	Text     string
	Status   Status
	Started  time.Time
	Duration time.Duration
	Error    string
}

// Screenshot is a PNG captured during a scenario.
type Screenshot struct {
	Name  string
	Path  string
	Taken time.Time
}

// ScenarioResult records one executed scenario.
type ScenarioResult struct {
	ID          string
	Name        string
	Feature     string
	URI         string
	Tags        []string
	Status      Status
	Started     time.Time
	Duration    time.Duration
	Steps       []StepResult
	Screenshots []Screenshot
	Error       string
}

// Failed reports whether the scenario should fail the run.
func (s ScenarioResult) Failed() bool {
	return s.Status == StatusFailed || s.Status == StatusUndefined || s.Status == StatusAmbiguous
}

// Summary aggregates scenario counts.
type Summary struct {
	Total     int
	Passed    int
	Failed    int
	Skipped   int
	Undefined int
	Pending   int
}

// SuiteReport is the persisted record of one suite run.
type SuiteReport struct {
	ID          string
	Name        string
	Environment string
	Browser     string
	Tags        string
	StartedAt   time.Time
	FinishedAt  time.Time
	Scenarios   []ScenarioResult
	ExitStatus  int
	// Parameters holds the effective settings and -D overrides of the run.
	Parameters Vars
}

// Summarize counts scenarios by status.
func (r SuiteReport) Summarize() Summary {
	var s Summary
	for _, sc := range r.Scenarios {
		s.Total++
		switch sc.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed, StatusAmbiguous:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusUndefined:
			s.Undefined++
		case StatusPending:
			s.Pending++
		}
	}
	return s
}

// Duration is the wall time of the run.
func (r SuiteReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailedScenarios returns the scenarios that failed the run.
func (r SuiteReport) FailedScenarios() []ScenarioResult {
	var out []ScenarioResult
	for _, sc := range r.Scenarios {
		if sc.Failed() {
			out = append(out, sc)
		}
	}
	return out
}

// CheckResult is the output of a single response check.
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
}

// JSONPathCheck is a set of expectations applied to one JSONPath expression.
type JSONPathCheck struct {
	Exists   bool
	Eq       *string
	Contains *string
	Matches  *string
	Gt       *float64
	Lt       *float64
}

// ResponseExpectation describes what an API response must satisfy.
type ResponseExpectation struct {
	Status       *int
	MaxLatencyMS *int
	JSONPath     map[string]JSONPathCheck
}

// ExtractSpec maps variable names to JSONPath expressions.
type ExtractSpec map[string]string

// ExtractResult reports one extraction rule.
type ExtractResult struct {
	Name    string
	Success bool
	Message string
}
