package fsworkspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/ports"
)

type Initializer struct {
	features fs.FS
}

type Option func(*Initializer)

// WithFeatures seeds features/ with the *.feature files of fsys.
func WithFeatures(fsys fs.FS) Option {
	return func(i *Initializer) { i.features = fsys }
}

func NewInitializer(opts ...Option) *Initializer {
	i := &Initializer{}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

var _ ports.WorkspaceInitializer = (*Initializer)(nil)

func (i *Initializer) Init(spec domain.WorkspaceSpec, force bool) error {
	root := filepath.Clean(spec.Root)
	p := domain.DefaultProject().Paths

	dirs := []string{
		filepath.Join(root, p.FeaturesDir),
		filepath.Join(root, p.EnvironmentsDir),
		filepath.Join(root, p.ScreenshotsDir),
		filepath.Join(root, p.LogsDir),
		filepath.Join(root, p.TestDataDir),
	}

	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return wrap("fsworkspace.init", d, err)
		}
	}

	if err := ensureGitignore(root); err != nil {
		return wrap("fsworkspace.gitignore", root, err)
	}

	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return wrap("fsworkspace.init", root, err)
	}
	if err := copyTree(sub, ".", root, force, func(string) bool { return true }); err != nil {
		return err
	}

	if i.features != nil {
		isFeature := func(p string) bool { return strings.HasSuffix(p, ".feature") }
		if err := copyTree(i.features, ".", filepath.Join(root, p.FeaturesDir), force, isFeature); err != nil {
			return err
		}
	}
	return nil
}

// SetupEnv creates .env from .env.example. An existing .env is kept unless
// force is set. It reports whether a file was written.
func SetupEnv(root string, force bool) (bool, error) {
	src := filepath.Join(root, ".env.example")
	dst := filepath.Join(root, ".env")

	b, err := os.ReadFile(src)
	if err != nil {
		return false, &domain.OpError{
			Op:   "fsworkspace.setup_env",
			Kind: domain.KindNotFound,
			Path: src,
			Err:  err,
		}
	}

	if !force {
		if _, err := os.Stat(dst); err == nil {
			return false, nil
		}
	}

	if err := os.WriteFile(dst, b, 0o600); err != nil {
		return false, wrap("fsworkspace.setup_env", dst, err)
	}
	return true, nil
}

func copyTree(src fs.FS, dir, dstRoot string, force bool, keep func(string) bool) error {
	return fs.WalkDir(src, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !keep(p) {
			return nil
		}

		dst := filepath.Join(dstRoot, filepath.FromSlash(p))

		if !force {
			if _, statErr := os.Stat(dst); statErr == nil {
				return nil
			}
		}

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return wrap("fsworkspace.copy", dst, err)
		}

		b, err := fs.ReadFile(src, p)
		if err != nil {
			return wrap("fsworkspace.copy", p, err)
		}

		mode := fs.FileMode(0o644)
		if strings.Contains(strings.ToLower(p), "secrets") {
			mode = 0o600
		}

		if err := os.WriteFile(dst, b, mode); err != nil {
			return wrap("fsworkspace.copy", dst, err)
		}
		return nil
	})
}

func wrap(op, path string, err error) error {
	return &domain.OpError{
		Op:   op,
		Kind: domain.KindExecution,
		Path: path,
		Err:  err,
	}
}

func ensureGitignore(root string) error {
	const header = "# cursior"
	entries := []string{
		".env",
		"reports/",
		"logs/",
		"runs/",
		"env/secrets.local.yaml",
	}

	path := filepath.Join(root, ".gitignore")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			lines := append([]string{header}, entries...)
			lines = append(lines, "")
			return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
		}
		return err
	}

	existing := string(b)
	present := map[string]bool{}
	for _, line := range strings.Split(existing, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		present[trimmed] = true
	}

	var missing []string
	for _, e := range entries {
		if !present[e] {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var out strings.Builder
	out.Grow(len(existing) + 64)

	out.WriteString(existing)
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		out.WriteByte('\n')
	}
	out.WriteByte('\n')
	if !present[header] {
		out.WriteString(header)
		out.WriteByte('\n')
	}
	for _, e := range missing {
		out.WriteString(e)
		out.WriteByte('\n')
	}

	return os.WriteFile(path, []byte(out.String()), 0o644)
}
