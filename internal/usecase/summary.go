package usecase

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chiru781/cursior/internal/domain"
)

// SummaryEmail renders a run report as a short plain/HTML message.
func SummaryEmail(r domain.SuiteReport, to string) domain.OutgoingEmail {
	s := r.Summarize()
	verdict := "PASSED"
	if r.ExitStatus != StatusPassed {
		verdict = "FAILED"
	}

	var text, body strings.Builder
	fmt.Fprintf(&text, "%s run %s on %s (%s)\n", r.Name, verdict, r.Environment, r.Browser)
	fmt.Fprintf(&text, "Scenarios: %d total, %d passed, %d failed, %d skipped, %d undefined\n",
		s.Total, s.Passed, s.Failed, s.Skipped, s.Undefined)
	fmt.Fprintf(&text, "Duration: %s\n", r.Duration().Round(time.Millisecond))

	fmt.Fprintf(&body, "<h2>%s run %s</h2>", html.EscapeString(r.Name), verdict)
	fmt.Fprintf(&body, "<p>Environment <b>%s</b>, browser <b>%s</b>, duration %s.</p>",
		html.EscapeString(r.Environment), html.EscapeString(r.Browser), r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&body, "<table><tr><th>Total</th><th>Passed</th><th>Failed</th><th>Skipped</th><th>Undefined</th></tr>"+
		"<tr><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td></tr></table>",
		s.Total, s.Passed, s.Failed, s.Skipped, s.Undefined)

	if failed := r.FailedScenarios(); len(failed) > 0 {
		text.WriteString("\nFailed scenarios:\n")
		body.WriteString("<h3>Failed scenarios</h3><ul>")
		for _, sc := range failed {
			fmt.Fprintf(&text, "- %s: %s (%s)\n", sc.Feature, sc.Name, sc.Status)
			fmt.Fprintf(&body, "<li>%s: %s <i>%s</i></li>",
				html.EscapeString(sc.Feature), html.EscapeString(sc.Name), html.EscapeString(firstLine(sc.Error)))
		}
		body.WriteString("</ul>")
	}

	return domain.OutgoingEmail{
		To:      splitRecipients(to),
		Subject: fmt.Sprintf("[%s] %s: %d/%d scenarios passed", r.Name, verdict, s.Passed, s.Total),
		Text:    text.String(),
		HTML:    body.String(),
	}
}

func splitRecipients(to string) []string {
	var out []string
	for _, a := range strings.FieldsFunc(to, func(r rune) bool { return r == ',' || r == ';' }) {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
