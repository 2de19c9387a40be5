package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/usecase"
)

type styles struct {
	title lipgloss.Style
	pass  lipgloss.Style
	fail  lipgloss.Style
	warn  lipgloss.Style
	faint lipgloss.Style
	box   lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{title: plain, pass: plain, fail: plain, warn: plain, faint: plain, box: plain}
	}
	return styles{
		title: lipgloss.NewStyle().Bold(true),
		pass:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		fail:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		faint: lipgloss.NewStyle().Faint(true),
		box: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")),
	}
}

func printSummary(w io.Writer, out usecase.RunOutcome, st styles) {
	r := out.Report
	s := r.Summarize()

	verdict := st.pass.Render("PASSED")
	if out.Status != usecase.StatusPassed {
		verdict = st.fail.Render("FAILED")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", st.title.Render("Test run"), verdict)
	fmt.Fprintf(&b, "Environment: %s   Browser: %s\n", r.Environment, r.Browser)
	if r.Tags != "" {
		fmt.Fprintf(&b, "Tags:        %s\n", r.Tags)
	}
	fmt.Fprintf(&b, "Duration:    %s\n", r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "Scenarios:   %d total, %s, %s, %d skipped, %d undefined, %d pending",
		s.Total,
		st.pass.Render(fmt.Sprintf("%d passed", s.Passed)),
		st.fail.Render(fmt.Sprintf("%d failed", s.Failed)),
		s.Skipped, s.Undefined, s.Pending,
	)
	fmt.Fprintln(w)
	fmt.Fprintln(w, st.box.Render(b.String()))

	for _, sc := range r.FailedScenarios() {
		fmt.Fprintf(w, "%s %s: %s\n", st.fail.Render("✗"), sc.Feature, sc.Name)
		if step := failedStep(sc); step != "" {
			fmt.Fprintf(w, "    %s\n", st.faint.Render(step))
		}
		for _, shot := range sc.Screenshots {
			fmt.Fprintf(w, "    screenshot: %s\n", shot.Path)
		}
	}

	if out.ReportPath != "" {
		fmt.Fprintf(w, "%s %s\n", st.faint.Render("report:"), out.ReportPath)
	}
	if out.JUnitPath != "" {
		fmt.Fprintf(w, "%s %s\n", st.faint.Render("junit: "), out.JUnitPath)
	}
	if n := len(out.Published); n > 0 {
		fmt.Fprintf(w, "%s %d file(s) uploaded\n", st.faint.Render("upload:"), n)
	}
	for _, warn := range out.Warnings {
		fmt.Fprintf(w, "%s %s\n", st.warn.Render("warning:"), warn)
	}
}

// failedStep describes the step that broke the scenario.
func failedStep(sc domain.ScenarioResult) string {
	for _, st := range sc.Steps {
		switch st.Status {
		case domain.StatusFailed:
			if st.Error != "" {
				return st.Text + ": " + st.Error
			}
			return st.Text
		case domain.StatusUndefined, domain.StatusAmbiguous:
			return st.Text + " (" + string(st.Status) + ")"
		}
	}
	return firstLine(sc.Error)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
