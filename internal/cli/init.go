package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chiru781/cursior/features"
	"github.com/chiru781/cursior/internal/infra/fsworkspace"
	"github.com/chiru781/cursior/internal/usecase"
)

func initCmd() *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "init [dir]",
		Short: "Scaffold a workspace with config templates and the sample features",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			root, err := filepath.Abs(dir)
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}

			uc := usecase.NewInitWorkspace(fsworkspace.NewInitializer(fsworkspace.WithFeatures(features.FS)))
			if err := uc.Execute(root, force); err != nil {
				return &exitError{code: exitInvalid, err: err}
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Workspace ready at %s\n", root)
			fmt.Fprintln(w, "Next: cursior setup-env, edit .env, then cursior run --tags @smoke")
			return nil
		},
	}

	c.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return c
}

func setupEnvCmd(g *globalOptions) *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "setup-env",
		Short: "Create .env from .env.example",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := resolveWorkspaceRoot(g.workspace)
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}
			if root == "" {
				if root, err = os.Getwd(); err != nil {
					return &exitError{code: exitInvalid, err: err}
				}
			}

			created, err := fsworkspace.SetupEnv(root, force)
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}
			w := cmd.OutOrStdout()
			if !created {
				fmt.Fprintf(w, ".env already exists in %s (use --force to overwrite)\n", root)
				return nil
			}
			fmt.Fprintf(w, "Created %s\n", filepath.Join(root, ".env"))
			return nil
		},
	}

	c.Flags().BoolVar(&force, "force", false, "Overwrite an existing .env")
	return c
}
