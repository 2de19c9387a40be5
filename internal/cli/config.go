package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chiru781/cursior/internal/domain"
)

func configCmd(g *globalOptions) *cobra.Command {
	var defines []string
	var format string

	c := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration (secrets masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides, _, err := splitDefines(defines)
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}
			ws, err := loadWorkspace(g, overrides)
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}
			return printConfig(cmd, ws, format)
		},
	}

	c.Flags().StringArrayVarP(&defines, "define", "D", nil, "Apply an override (key=value, repeatable)")
	c.Flags().StringVar(&format, "format", "yaml", "Output format: yaml|json")
	return c
}

func printConfig(cmd *cobra.Command, ws *workspaceCtx, format string) error {
	cfg := ws.cfg.Masked()
	w := cmd.OutOrStdout()

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "yaml", "":
		if ws.root != "" {
			fmt.Fprintf(w, "# workspace: %s\n", ws.root)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	default:
		return &exitError{code: exitInvalid, err: &domain.OpError{
			Op:   "cli.config",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("unsupported format %q (expected yaml|json)", format),
		}}
	}
}
