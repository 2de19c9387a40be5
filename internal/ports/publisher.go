package ports

import "context"

// ArtifactPublisher copies local report artifacts to shared storage.
type ArtifactPublisher interface {
	Publish(ctx context.Context, runID string, files []string) ([]string, error)
}

// ReportRenderer turns raw results into a browsable report.
type ReportRenderer interface {
	Generate(ctx context.Context, resultsDir, outDir string) error
	Open(ctx context.Context, reportDir string) error
}
