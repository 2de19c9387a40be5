package yamlenv

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/ports"
	"gopkg.in/yaml.v3"
)

// Catalog serves environment presets: the builtin ones plus env/<name>.yaml
// files of a workspace. A file with a builtin name overrides its values.
type Catalog struct {
	envDir      string
	secretsFile string
}

type Option func(*Catalog)

func WithEnvDir(dir string) Option {
	return func(c *Catalog) { c.envDir = dir }
}

func WithSecretsFile(name string) Option {
	return func(c *Catalog) { c.secretsFile = name }
}

func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		envDir:      "env",
		secretsFile: "secrets.local.yaml",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.EnvironmentCatalog = (*Catalog)(nil)

func (c *Catalog) ListPresets(root string) ([]domain.Preset, error) {
	names := map[string]struct{}{}
	for name := range domain.BuiltinPresets() {
		names[name] = struct{}{}
	}

	if root != "" {
		dir := c.dir(root)
		entries, err := os.ReadDir(dir)
		if err != nil && !os.IsNotExist(err) {
			return nil, &domain.OpError{
				Op:   "yamlenv.list",
				Kind: domain.KindExecution,
				Path: dir,
				Err:  err,
			}
		}
		for _, e := range entries {
			if e.IsDir() || e.Name() == c.secretsFile {
				continue
			}
			ext := filepath.Ext(e.Name())
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			names[strings.TrimSuffix(e.Name(), ext)] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	out := make([]domain.Preset, 0, len(sorted))
	for _, n := range sorted {
		p, ok, err := c.Preset(root, n)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Preset resolves one environment by name. Secrets in secrets.local.yaml
// override the values of every preset loaded from the workspace.
func (c *Catalog) Preset(root, name string) (domain.Preset, bool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	p, ok := domain.BuiltinPresets()[name]

	if root == "" {
		return p, ok, nil
	}

	dir := c.dir(root)
	path, found := findFile(dir, name)
	if !found {
		return p, ok, nil
	}

	vars, err := readVars(path)
	if err != nil {
		return domain.Preset{}, false, err
	}
	secrets, err := readVarsOptional(filepath.Join(dir, c.secretsFile))
	if err != nil {
		return domain.Preset{}, false, err
	}

	return domain.Preset{
		Name:   name,
		Source: path,
		Values: domain.Merge(domain.Merge(p.Values, vars), secrets),
	}, true, nil
}

func (c *Catalog) dir(root string) string {
	if filepath.IsAbs(c.envDir) {
		return c.envDir
	}
	return filepath.Join(root, c.envDir)
}

func findFile(dir, name string) (string, bool) {
	for _, ext := range []string{".yaml", ".yml"} {
		p := filepath.Join(dir, name+ext)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, true
		}
	}
	return "", false
}

type yamlEnv struct {
	Vars map[string]string `yaml:"vars"`
}

func readVars(path string) (domain.Vars, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "yamlenv.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	var y yamlEnv
	if err := yaml.Unmarshal(b, &y); err != nil {
		return nil, &domain.OpError{
			Op:   "yamlenv.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	out := domain.Vars{}
	for k, v := range y.Vars {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out, nil
}

func readVarsOptional(path string) (domain.Vars, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Vars{}, nil
		}
		return nil, &domain.OpError{
			Op:   "yamlenv.secrets",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	v, err := readVars(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	return v, nil
}
