package ports

import "github.com/chiru781/cursior/internal/domain"

// ReportStore persists suite reports for later inspection.
type ReportStore interface {
	SaveReport(report domain.SuiteReport) (path string, err error)
}

// ScreenshotStore writes captured screenshots.
type ScreenshotStore interface {
	Save(name string, png []byte) (domain.Screenshot, error)
}

// ResultWriter emits per-scenario results for an external report viewer.
type ResultWriter interface {
	Write(report domain.SuiteReport) (files []string, err error)
	Dir() string
}
