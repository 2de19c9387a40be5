package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chiru781/cursior/internal/steps"
	"github.com/chiru781/cursior/internal/usecase"
)

func validateCmd(g *globalOptions) *cobra.Command {
	var tags string
	var paths []string

	c := &cobra.Command{
		Use:   "validate",
		Short: "Check that every feature parses and every step is defined",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(g, nil)
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}
			fsys, fpaths, source, err := featureSource(ws, paths)
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}

			uc := usecase.NewValidateFeatures(usecase.NewRunSuite(ws.cfg, fsys, steps.Deps{}))
			rep, err := uc.Execute(cmd.Context(), usecase.ValidateOptions{Paths: fpaths, Tags: tags})
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}

			w := cmd.OutOrStdout()
			st := newStyles(g.noColor)
			fmt.Fprintf(w, "Features: %d (%s)\n", len(rep.Features), source)
			for _, perr := range rep.ParseErrors {
				fmt.Fprintf(w, "%s %v\n", st.fail.Render("parse error:"), perr)
			}
			for _, is := range rep.Issues {
				fmt.Fprintf(w, "%s %s: %s\n    %s\n", st.fail.Render(string(is.Status)), is.Feature, is.Scenario, is.Step)
			}
			if !rep.OK() {
				return &exitError{code: exitFailed}
			}
			fmt.Fprintf(w, "%s %d scenario(s), every step defined\n", st.pass.Render("OK"), rep.Scenarios)
			return nil
		},
	}

	c.Flags().StringVarP(&tags, "tags", "t", "", "Only validate scenarios matching this tag expression")
	c.Flags().StringArrayVarP(&paths, "feature", "f", nil, "Feature file or directory (repeatable)")
	return c
}
