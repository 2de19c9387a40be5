package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chiru781/cursior/features"
	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/config"
	"github.com/chiru781/cursior/internal/infra/logger"
	"github.com/chiru781/cursior/internal/infra/workspacefinder"
	"github.com/chiru781/cursior/internal/infra/yamlenv"
)

type workspaceCtx struct {
	// root is empty when running outside a workspace.
	root    string
	project *domain.Project
	catalog *yamlenv.Catalog
	cfg     domain.Config
}

// loadWorkspace finds the workspace (if any) and assembles the effective
// configuration with overrides applied last.
func loadWorkspace(g *globalOptions, overrides map[string]string) (*workspaceCtx, error) {
	root, err := resolveWorkspaceRoot(g.workspace)
	if err != nil {
		return nil, err
	}

	ws := &workspaceCtx{root: root, catalog: yamlenv.NewCatalog()}
	if root != "" {
		p, err := workspacefinder.LoadProject(root)
		if err != nil {
			return nil, err
		}
		ws.project = &p
		ws.catalog = yamlenv.NewCatalog(yamlenv.WithEnvDir(p.Paths.EnvironmentsDir))
	}

	cfgRoot := root
	if cfgRoot == "" {
		cfgRoot, _ = os.Getwd()
	}
	ws.cfg, err = config.Load(config.Options{
		Root:      cfgRoot,
		EnvFile:   g.envFile,
		Project:   ws.project,
		Overrides: overrides,
		Catalog:   ws.catalog,
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// resolveWorkspaceRoot returns "" when no workspace is found and none was
// asked for explicitly.
func resolveWorkspaceRoot(workspaceFlag string) (string, error) {
	w := strings.TrimSpace(workspaceFlag)
	if w != "" {
		abs, err := filepath.Abs(w)
		if err != nil {
			return "", fmt.Errorf("invalid workspace path: %w", err)
		}
		if _, err := os.Stat(filepath.Join(abs, workspacefinder.ProjectFile)); err != nil {
			return "", &domain.OpError{
				Op:   "cli.workspace",
				Kind: domain.KindNotFound,
				Path: abs,
				Err:  fmt.Errorf("no %s in workspace (tip: run `cursior init`): %w", workspacefinder.ProjectFile, domain.ErrNotFound),
			}
		}
		return abs, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	root, err := workspacefinder.NewFinder().FindRoot(wd)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return "", nil
		}
		return "", err
	}
	return root, nil
}

// splitDefines parses -D key=value pairs. Configuration keys become
// overrides; every pair is also bound as a step variable.
func splitDefines(defs []string) (overrides map[string]string, vars domain.Vars, err error) {
	overrides = map[string]string{}
	vars = domain.Vars{}
	for _, d := range defs {
		k, v, ok := strings.Cut(d, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, nil, &domain.OpError{
				Op:   "cli.define",
				Kind: domain.KindInvalidConfig,
				Err:  fmt.Errorf("expected key=value, got %q", d),
			}
		}
		v = strings.TrimSpace(v)
		if domain.IsSettable(k) {
			overrides[k] = v
		}
		vars[k] = v
	}
	return overrides, vars, nil
}

var lineSuffix = regexp.MustCompile(`:\d+$`)

// featureSource picks where feature files come from. Paths that exist on
// disk are read from disk; otherwise paths are looked up in the workspace
// features directory, or in the embedded features when there is none.
func featureSource(ws *workspaceCtx, args []string) (fs.FS, []string, string, error) {
	if len(args) > 0 && existsOnDisk(args[0]) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, "", fmt.Errorf("get working directory: %w", err)
		}
		paths := make([]string, 0, len(args))
		for _, a := range args {
			file := lineSuffix.ReplaceAllString(a, "")
			abs, err := filepath.Abs(file)
			if err != nil {
				return nil, nil, "", err
			}
			rel, err := filepath.Rel(wd, abs)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return nil, nil, "", &domain.OpError{
					Op:   "cli.features",
					Kind: domain.KindInvalidConfig,
					Path: a,
					Err:  errors.New("feature paths must be inside the working directory"),
				}
			}
			paths = append(paths, filepath.ToSlash(rel)+strings.TrimPrefix(a, file))
		}
		return os.DirFS(wd), paths, wd, nil
	}

	if dir := ws.cfg.Paths.Features; dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return os.DirFS(dir), args, dir, nil
		}
	}
	return features.FS, args, "embedded", nil
}

func existsOnDisk(p string) bool {
	_, err := os.Stat(lineSuffix.ReplaceAllString(p, ""))
	return err == nil
}

// setupLogging installs the execution log under the configured log
// directory. console mirrors records to errOut.
func setupLogging(cfg domain.Config, verbose, console bool, errOut io.Writer) (*slog.Logger, func()) {
	cleanup, err := logger.Setup(logger.Config{
		Dir:     cfg.Paths.Logs,
		Level:   cfg.Runtime.LogLevel,
		Verbose: verbose,
		Console: console,
		Output:  errOut,
	})
	if err != nil {
		fmt.Fprintf(errOut, "warning: execution log disabled: %v\n", err)
		return logger.Discard(), func() {}
	}
	return logger.L(), func() { _ = cleanup() }
}
