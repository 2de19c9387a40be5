package domain

import (
	"errors"
	"testing"
	"time"
)

func TestSummarizeCountsByStatus(t *testing.T) {
	r := SuiteReport{
		Scenarios: []ScenarioResult{
			{Name: "a", Status: StatusPassed},
			{Name: "b", Status: StatusFailed},
			{Name: "c", Status: StatusUndefined},
			{Name: "d", Status: StatusSkipped},
			{Name: "e", Status: StatusPassed},
		},
	}

	s := r.Summarize()
	if s.Total != 5 || s.Passed != 2 || s.Failed != 1 || s.Undefined != 1 || s.Skipped != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}

	failed := r.FailedScenarios()
	if len(failed) != 2 || failed[0].Name != "b" || failed[1].Name != "c" {
		t.Fatalf("unexpected failed scenarios %+v", failed)
	}
}

func TestDurationZeroUntilFinished(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	r := SuiteReport{StartedAt: start}
	if r.Duration() != 0 {
		t.Fatalf("expected zero duration")
	}
	r.FinishedAt = start.Add(90 * time.Second)
	if r.Duration() != 90*time.Second {
		t.Fatalf("unexpected duration %s", r.Duration())
	}
}

func TestOpErrorWrapping(t *testing.T) {
	root := errors.New("connection refused")
	err := &OpError{Op: "shopapi.do", Kind: KindExecution, Path: "/health", Err: root}

	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is to reach the cause")
	}
	if got := err.Error(); got != "shopapi.do: execution (path=/health): connection refused" {
		t.Fatalf("unexpected message %q", got)
	}
	if KindOf(errors.New("plain")) != KindExecution {
		t.Fatalf("expected plain errors to classify as execution")
	}
}

func TestDisabledIsUnsupported(t *testing.T) {
	err := Disabled("steps.db", "ENABLE_DATABASE_TESTING")
	if !IsKind(err, KindUnsupported) || !errors.Is(err, ErrDisabled) {
		t.Fatalf("unexpected error %v", err)
	}
}
