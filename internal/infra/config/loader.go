package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/workspacefinder"
	"github.com/chiru781/cursior/internal/ports"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read from the workspace root (or the working directory)
// when no explicit env file is given.
const DefaultEnvFile = ".env"

type Options struct {
	// Root is the workspace root. Empty outside a workspace.
	Root string
	// EnvFile is an explicit env file. It must exist when set.
	EnvFile string
	// Project supplies defaults from cursior.yaml.
	Project *domain.Project
	// Overrides are -D key=value pairs and flag values. They beat everything.
	Overrides map[string]string
	Catalog   ports.EnvironmentCatalog
}

// Load assembles the effective configuration:
// defaults < .env < process env < project defaults (for unset keys) <
// environment preset (for unset keys) < overrides.
func Load(opts Options) (domain.Config, error) {
	op := "config.load"

	envFile, required := opts.EnvFile, opts.EnvFile != ""
	if !required {
		envFile = filepath.Join(opts.Root, DefaultEnvFile)
	}
	if err := loadDotEnv(envFile, required); err != nil {
		return domain.Config{}, err
	}

	var raw EnvConfig
	if err := cleanenv.ReadEnv(&raw); err != nil {
		return domain.Config{}, &domain.OpError{
			Op:   op,
			Kind: domain.KindInvalidConfig,
			Err:  err,
		}
	}

	cfg, err := MapEnv("environment", raw)
	if err != nil {
		return domain.Config{}, err
	}

	overrides := normalize(opts.Overrides)
	isSet := func(key string) bool {
		if _, ok := overrides[key]; ok {
			return true
		}
		_, ok := os.LookupEnv(strings.ToUpper(key))
		return ok
	}

	if opts.Project != nil {
		if err := applyProject(&cfg, opts.Root, *opts.Project, isSet); err != nil {
			return domain.Config{}, err
		}
	}

	if err := applyOverrides(&cfg, overrides); err != nil {
		return domain.Config{}, err
	}

	catalog := opts.Catalog
	if catalog != nil {
		p, ok, err := catalog.Preset(opts.Root, cfg.Environment)
		if err != nil {
			return domain.Config{}, err
		}
		if ok {
			if err := domain.ApplyPreset(&cfg, p, isSet); err != nil {
				return domain.Config{}, err
			}
		}
	} else if p, ok := domain.BuiltinPresets()[cfg.Environment]; ok {
		if err := domain.ApplyPreset(&cfg, p, isSet); err != nil {
			return domain.Config{}, err
		}
	}

	if err := Validate(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

func loadDotEnv(path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if !required && os.IsNotExist(err) {
			return nil
		}
		return &domain.OpError{
			Op:   "config.dotenv",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}
	if err := godotenv.Load(path); err != nil {
		return &domain.OpError{
			Op:   "config.dotenv",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}
	return nil
}

func applyProject(cfg *domain.Config, root string, p domain.Project, isSet func(string) bool) error {
	defaults := []struct{ key, value string }{
		{"environment", p.Defaults.Environment},
		{"browser", p.Defaults.Browser},
		{"report_dir", workspacefinder.Resolve(root, p.Paths.ReportsDir)},
		{"screenshot_dir", workspacefinder.Resolve(root, p.Paths.ScreenshotsDir)},
		{"log_dir", workspacefinder.Resolve(root, p.Paths.LogsDir)},
		{"test_data_dir", workspacefinder.Resolve(root, p.Paths.TestDataDir)},
	}
	for _, d := range defaults {
		if d.value == "" || isSet(d.key) {
			continue
		}
		if err := cfg.Set(d.key, d.value); err != nil {
			return err
		}
	}
	if p.Paths.FeaturesDir != "" {
		cfg.Paths.Features = workspacefinder.Resolve(root, p.Paths.FeaturesDir)
	}
	cfg.Reports.Mask = p.Masking.Enabled
	return nil
}

func applyOverrides(cfg *domain.Config, overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := cfg.Set(k, overrides[k]); err != nil {
			return err
		}
	}
	return nil
}

func normalize(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		k = strings.NewReplacer("-", "_", ".", "_").Replace(k)
		out[k] = v
	}
	return out
}

// EnsureDirectories creates the output and data directories of cfg.
func EnsureDirectories(cfg domain.Config) error {
	for _, dir := range []string{cfg.Paths.Reports, cfg.Paths.Screenshots, cfg.Paths.Logs, cfg.Paths.TestData} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &domain.OpError{
				Op:   "config.ensure_directories",
				Kind: domain.KindExecution,
				Path: dir,
				Err:  err,
			}
		}
	}
	return nil
}
