package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func envsCmd(g *globalOptions) *cobra.Command {
	var showValues bool

	c := &cobra.Command{
		Use:   "envs",
		Short: "List environment presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(g, nil)
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}

			presets, err := ws.catalog.ListPresets(ws.root)
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}

			w := cmd.OutOrStdout()
			if ws.root != "" {
				fmt.Fprintf(w, "Workspace: %s\n", ws.root)
			}
			fmt.Fprintf(w, "Current:   %s\n\n", ws.cfg.Environment)

			if len(presets) == 0 {
				fmt.Fprintln(w, "(no environments found)")
				return nil
			}
			for _, p := range presets {
				mark := " "
				if p.Name == ws.cfg.Environment {
					mark = "*"
				}
				src := p.Source
				if ws.root != "" && filepath.IsAbs(src) {
					if rel, err := filepath.Rel(ws.root, src); err == nil {
						src = rel
					}
				}
				fmt.Fprintf(w, "%s %-12s (%s)\n", mark, p.Name, src)
				if !showValues {
					continue
				}
				keys := make([]string, 0, len(p.Values))
				for k := range p.Values {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					v := p.Values[k]
					if isSecretKey(k) && v != "" {
						v = "****"
					}
					fmt.Fprintf(w, "    %s = %s\n", k, v)
				}
			}
			return nil
		},
	}

	c.Flags().BoolVar(&showValues, "values", false, "Show the values of each preset (secrets masked)")
	return c
}

func isSecretKey(k string) bool {
	k = strings.ToLower(k)
	for _, s := range []string{"password", "secret", "token", "key"} {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
