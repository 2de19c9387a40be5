package usecase

import (
	"context"
	"io"
	"io/fs"

	"github.com/chiru781/cursior/internal/domain"
)

// ValidateFeatures checks feature files without driving a browser: every
// file must parse and every step must match exactly one definition.
type ValidateFeatures struct {
	run *RunSuite
}

func NewValidateFeatures(run *RunSuite) *ValidateFeatures {
	return &ValidateFeatures{run: run}
}

// StepIssue is a step that would not run.
type StepIssue struct {
	Feature  string
	Scenario string
	Step     string
	Status   domain.Status
}

type ValidationReport struct {
	Features    []domain.FeatureInfo
	ParseErrors []error
	Issues      []StepIssue
	Scenarios   int
}

func (r ValidationReport) OK() bool {
	return len(r.ParseErrors) == 0 && len(r.Issues) == 0
}

type ValidateOptions struct {
	Paths    []string
	Tags     string
	Features fs.FS
}

func (uc *ValidateFeatures) Execute(ctx context.Context, opts ValidateOptions) (ValidationReport, error) {
	fsys := opts.Features
	if fsys == nil {
		fsys = uc.run.features
	}
	infos, err := ListFeatures(fsys, opts.Paths)
	if err != nil {
		return ValidationReport{}, err
	}
	rep := ValidationReport{Features: infos, ParseErrors: featureErrors(infos)}
	if len(rep.ParseErrors) > 0 || len(infos) == 0 {
		return rep, nil
	}

	out, err := uc.run.Execute(ctx, RunOptions{
		Tags:     opts.Tags,
		Paths:    opts.Paths,
		Features: fsys,
		Format:   "progress",
		Strict:   true,
		DryRun:   true,
		Output:   io.Discard,
		NoColors: true,
	})
	if err != nil {
		return rep, err
	}

	rep.Scenarios = len(out.Report.Scenarios)
	for _, sc := range out.Report.Scenarios {
		for _, st := range sc.Steps {
			switch st.Status {
			case domain.StatusUndefined, domain.StatusPending, domain.StatusAmbiguous:
				rep.Issues = append(rep.Issues, StepIssue{
					Feature:  sc.Feature,
					Scenario: sc.Name,
					Step:     st.Text,
					Status:   st.Status,
				})
			}
		}
	}
	return rep, nil
}
