package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/usecase"
)

func clampString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))

	n := 0
	for _, r := range s {
		if n >= maxLen {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String() + "…"
}

func featureDescription(f domain.FeatureInfo) string {
	if f.ParseError != "" {
		return f.Path + " · parse error: " + clampString(f.ParseError, 60)
	}
	desc := fmt.Sprintf("%s · %d scenario(s)", f.Path, f.ScenarioCount())
	if len(f.Tags) > 0 {
		desc += " · " + strings.Join(f.Tags, " ")
	}
	return desc
}

// renderOutcome is the body of the result card.
func renderOutcome(t Theme, out usecase.RunOutcome, width int) string {
	r := out.Report
	s := r.Summarize()

	var b strings.Builder
	if out.Status == usecase.StatusPassed {
		b.WriteString(t.Pass.Render("PASSED"))
	} else {
		b.WriteString(t.Fail.Render("FAILED"))
	}
	fmt.Fprintf(&b, "  %s\n\n", r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "Scenarios: %d total, %d passed, %d failed, %d skipped, %d undefined\n",
		s.Total, s.Passed, s.Failed, s.Skipped, s.Undefined)

	if failed := r.FailedScenarios(); len(failed) > 0 {
		b.WriteString("\nFailed:\n")
		for _, sc := range failed {
			fmt.Fprintf(&b, "  ✗ %s\n", clampString(sc.Name, width))
			if sc.Error != "" {
				fmt.Fprintf(&b, "    %s\n", clampString(firstLine(sc.Error), width))
			}
		}
	}
	if out.ReportPath != "" {
		fmt.Fprintf(&b, "\nReport: %s\n", out.ReportPath)
	}
	for _, w := range out.Warnings {
		b.WriteString(t.Warn.Render("warning: "+clampString(w, width)) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
