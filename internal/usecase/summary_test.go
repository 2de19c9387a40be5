package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chiru781/cursior/internal/domain"
)

func TestSummaryEmail(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := domain.SuiteReport{
		Name:        "shop",
		Environment: "staging",
		Browser:     "firefox",
		StartedAt:   start,
		FinishedAt:  start.Add(90 * time.Second),
		ExitStatus:  StatusFailed,
		Scenarios: []domain.ScenarioResult{
			{Name: "Successful login", Feature: "User Login", Status: domain.StatusPassed},
			{Name: "Checkout <fast>", Feature: "Shopping", Status: domain.StatusFailed, Error: "cart empty\ntrace"},
		},
	}

	msg := SummaryEmail(r, "qa@example.com; ")
	assert.Equal(t, []string{"qa@example.com"}, msg.To)
	assert.Equal(t, "[shop] FAILED: 1/2 scenarios passed", msg.Subject)
	assert.Contains(t, msg.Text, "2 total, 1 passed, 1 failed")
	assert.Contains(t, msg.Text, "Duration: 1m30s")
	assert.Contains(t, msg.Text, "- Shopping: Checkout <fast> (failed)")
	assert.Contains(t, msg.HTML, "Checkout &lt;fast&gt;")
	assert.Contains(t, msg.HTML, "<i>cart empty</i>")
	assert.NotContains(t, msg.HTML, "trace")
}

func TestSummaryEmail_Passed(t *testing.T) {
	msg := SummaryEmail(domain.SuiteReport{Name: "shop", Scenarios: []domain.ScenarioResult{{Status: domain.StatusPassed}}}, "a@example.com")
	assert.Equal(t, "[shop] PASSED: 1/1 scenarios passed", msg.Subject)
	assert.NotContains(t, msg.Text, "Failed scenarios")
}
