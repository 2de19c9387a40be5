package workspacefinder

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
	"gopkg.in/yaml.v3"
)

// LoadProject loads cursior.yaml from the workspace root and applies defaults.
func LoadProject(root string) (domain.Project, error) {
	p := domain.DefaultProject()

	file := filepath.Join(root, ProjectFile)
	b, err := os.ReadFile(file)
	if err != nil {
		return p, &domain.OpError{
			Op:   "workspacefinder.loadproject",
			Kind: domain.KindNotFound,
			Path: file,
			Err:  err,
		}
	}

	var y yamlProject
	if err := yaml.Unmarshal(b, &y); err != nil {
		return p, &domain.OpError{
			Op:   "workspacefinder.loadproject",
			Kind: domain.KindInvalidConfig,
			Path: file,
			Err:  err,
		}
	}

	c := y.Cursior
	if strings.TrimSpace(c.Name) != "" {
		p.Name = strings.TrimSpace(c.Name)
	}
	if c.Masking.Enabled != nil {
		p.Masking.Enabled = *c.Masking.Enabled
	}
	for i, k := range c.Masking.Keys {
		if strings.TrimSpace(k) == "" {
			return p, invalidField(file, fmt.Sprintf("cursior.masking.keys[%d]", i), "key must not be empty")
		}
		p.Masking.Keys = append(p.Masking.Keys, strings.ToLower(strings.TrimSpace(k)))
	}

	if c.Defaults.Env != "" {
		p.Defaults.Environment = strings.ToLower(c.Defaults.Env)
	}
	if c.Defaults.Browser != "" {
		name := strings.ToLower(c.Defaults.Browser)
		switch name {
		case "chrome", "firefox", "edge":
		default:
			return p, invalidField(file, "cursior.defaults.browser", "must be one of chrome, firefox, edge")
		}
		p.Defaults.Browser = name
	}
	p.Defaults.Tags = strings.TrimSpace(c.Defaults.Tags)

	dirs := []struct {
		field string
		value string
		dst   *string
	}{
		{"features_dir", c.Paths.FeaturesDir, &p.Paths.FeaturesDir},
		{"environments_dir", c.Paths.EnvironmentsDir, &p.Paths.EnvironmentsDir},
		{"reports_dir", c.Paths.ReportsDir, &p.Paths.ReportsDir},
		{"screenshots_dir", c.Paths.ScreenshotsDir, &p.Paths.ScreenshotsDir},
		{"logs_dir", c.Paths.LogsDir, &p.Paths.LogsDir},
		{"test_data_dir", c.Paths.TestDataDir, &p.Paths.TestDataDir},
		{"runs_dir", c.Paths.RunsDir, &p.Paths.RunsDir},
	}
	for _, d := range dirs {
		if d.value == "" {
			continue
		}
		if filepath.IsAbs(d.value) || strings.HasPrefix(path.Clean(filepath.ToSlash(d.value)), "..") {
			return p, invalidField(file, "cursior.paths."+d.field, "must be a path inside the workspace")
		}
		*d.dst = filepath.Clean(d.value)
	}

	return p, nil
}

// Resolve joins a workspace-relative directory onto root.
func Resolve(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

func invalidField(file, field, msg string) error {
	return &domain.OpError{
		Op:   "workspacefinder.loadproject",
		Kind: domain.KindInvalidConfig,
		Path: file,
		Err:  fmt.Errorf("%s: %s", field, msg),
	}
}

type yamlProject struct {
	Cursior struct {
		Name string `yaml:"name"`

		Masking struct {
			Enabled *bool    `yaml:"enabled"`
			Keys    []string `yaml:"keys"`
		} `yaml:"masking"`

		Defaults struct {
			Env     string `yaml:"env"`
			Browser string `yaml:"browser"`
			Tags    string `yaml:"tags"`
		} `yaml:"defaults"`

		Paths struct {
			FeaturesDir     string `yaml:"features_dir"`
			EnvironmentsDir string `yaml:"environments_dir"`
			ReportsDir      string `yaml:"reports_dir"`
			ScreenshotsDir  string `yaml:"screenshots_dir"`
			LogsDir         string `yaml:"logs_dir"`
			TestDataDir     string `yaml:"test_data_dir"`
			RunsDir         string `yaml:"runs_dir"`
		} `yaml:"paths"`
	} `yaml:"cursior"`
}
