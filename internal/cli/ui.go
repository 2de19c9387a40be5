package cli

import (
	"github.com/spf13/cobra"

	"github.com/chiru781/cursior/internal/ui/tui"
)

func uiCmd(g *globalOptions) *cobra.Command {
	var tags string
	c := &cobra.Command{
		Use:   "ui",
		Short: "Browse and run feature files interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUIWithTags(cmd, g, tags)
		},
	}
	c.Flags().StringVarP(&tags, "tags", "t", "", "Tag expression applied to every run")
	return c
}

func runUI(cmd *cobra.Command, g *globalOptions) error {
	return runUIWithTags(cmd, g, "")
}

func runUIWithTags(cmd *cobra.Command, g *globalOptions, tags string) error {
	ws, err := loadWorkspace(g, nil)
	if err != nil {
		return &exitError{code: exitInvalid, err: err}
	}
	// The terminal belongs to the UI; records only go to the log file.
	log, closeLog := setupLogging(ws.cfg, g.verbose, false, cmd.ErrOrStderr())
	defer closeLog()

	fsys, _, source, err := featureSource(ws, nil)
	if err != nil {
		return &exitError{code: exitInvalid, err: err}
	}
	if tags == "" && ws.project != nil {
		tags = ws.project.Defaults.Tags
	}

	ctx := cmd.Context()
	s := buildSuite(ctx, ws.cfg, log, nil, false)
	defer s.Close()

	return tui.Run(ctx, tui.Deps{
		WorkspaceRoot: ws.root,
		Features:      fsys,
		Source:        source,
		Runner:        newRunSuite(ctx, ws, fsys, s, log),
		Tags:          tags,
		Logger:        log,
		Debug:         g.verbose,
	})
}
