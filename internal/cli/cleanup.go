package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chiru781/cursior/internal/infra/sqlstore"
)

func cleanupCmd(g *globalOptions) *cobra.Command {
	c := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove test orders and users from the database and reset stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(g, nil)
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}
			log, closeLog := setupLogging(ws.cfg, g.verbose, g.verbose, cmd.ErrOrStderr())
			defer closeLog()

			st, err := sqlstore.Open(cmd.Context(), ws.cfg.Database, sqlstore.WithLogger(log))
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}
			defer st.Close()

			rep, err := st.CleanupTestData(cmd.Context())
			if err != nil {
				return &exitError{code: exitFailed, err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d order(s) and %d user(s); reset stock of %d product(s)\n",
				rep.Orders, rep.Users, rep.Products)
			return nil
		},
	}
	return c
}
