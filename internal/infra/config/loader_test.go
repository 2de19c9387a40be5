package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/yamlenv"
)

// clearEnv unsets every variable the loader reads and restores it afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range (EnvConfig{}).pairs() {
		t.Setenv(kv[0], "")
		if err := os.Unsetenv(kv[0]); err != nil {
			t.Fatalf("unsetenv: %v", err)
		}
	}
}

func TestLoad_DefaultsAndPreset(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Environment != "staging" || cfg.Browser.Name != "chrome" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.App.BaseURL != "https://staging.demo-ecommerce.com" {
		t.Fatalf("expected staging preset base url, got %s", cfg.App.BaseURL)
	}
	if cfg.Database.Host != "staging-db.demo-ecommerce.com" {
		t.Fatalf("expected staging preset db host, got %s", cfg.Database.Host)
	}
	if cfg.Timeouts.PageLoad != 30*time.Second || cfg.Runtime.APIRetries != 3 {
		t.Fatalf("unexpected timeouts %+v runtime %+v", cfg.Timeouts, cfg.Runtime)
	}
	if !cfg.Features.API || cfg.Features.Email || !cfg.Features.ScreenshotsOnFailure {
		t.Fatalf("unexpected feature flags %+v", cfg.Features)
	}
}

func TestLoad_ExplicitEnvWinsOverPreset(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("BASE_URL", "http://shop.internal:8080")
	t.Setenv("HEADLESS", "yes")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.App.BaseURL != "http://shop.internal:8080" {
		t.Fatalf("expected explicit BASE_URL, got %s", cfg.App.BaseURL)
	}
	if cfg.App.APIBaseURL != "http://localhost:8000/api" {
		t.Fatalf("expected development preset api url, got %s", cfg.App.APIBaseURL)
	}
	if !cfg.Browser.Headless {
		t.Fatalf("expected headless from 'yes'")
	}
}

func TestLoad_OverridesSelectEnvironment(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{Overrides: map[string]string{
		"ENVIRONMENT": "production",
		"browser":     "Firefox",
		"db-port":     "3306",
	}})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Environment != "production" || cfg.App.BaseURL != "https://demo-ecommerce.com" {
		t.Fatalf("expected production preset, got %s %s", cfg.Environment, cfg.App.BaseURL)
	}
	if cfg.Browser.Name != "firefox" || cfg.Database.Port != 3306 {
		t.Fatalf("overrides not applied: %+v %+v", cfg.Browser, cfg.Database)
	}
}

func TestLoad_UnknownOverrideKey(t *testing.T) {
	clearEnv(t)

	_, err := Load(Options{Overrides: map[string]string{"colour": "blue"}})
	if !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown configuration key: colour") {
		t.Fatalf("unexpected message %v", err)
	}
}

func TestLoad_BadValueNamesVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PORT", "fivefour")

	_, err := Load(Options{})
	if !domain.IsKind(err, domain.KindInvalidConfig) || !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
	if !strings.Contains(err.Error(), "field DB_PORT: expected integer") {
		t.Fatalf("unexpected message %v", err)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	clearEnv(t)
	t.Setenv("BROWSER", "safari")
	t.Setenv("DB_TYPE", "oracle")

	_, err := Load(Options{})
	if !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "Config.Browser.Name") || !strings.Contains(msg, "Config.Database.Type") {
		t.Fatalf("expected both fields reported, got %v", msg)
	}
}

func TestLoad_DotEnvAndWorkspacePreset(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("DB_NAME=shop_e2e\nENVIRONMENT=qa\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "env"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	preset := "vars:\n  base_url: http://qa.shop.local\n  api_base_url: http://qa.shop.local/api\n  db_name: from_preset\n"
	if err := os.WriteFile(filepath.Join(root, "env", "qa.yaml"), []byte(preset), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}

	project := domain.DefaultProject()
	project.Masking.Enabled = false

	cfg, err := Load(Options{Root: root, Project: &project, Catalog: yamlenv.NewCatalog()})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Environment != "qa" || cfg.App.BaseURL != "http://qa.shop.local" {
		t.Fatalf("expected qa preset from workspace, got %s %s", cfg.Environment, cfg.App.BaseURL)
	}
	if cfg.Database.Name != "shop_e2e" {
		t.Fatalf("expected .env value to beat preset, got %s", cfg.Database.Name)
	}
	if cfg.Paths.Reports != filepath.Join(root, "reports") || cfg.Paths.Features != filepath.Join(root, "features") {
		t.Fatalf("expected workspace-relative paths, got %+v", cfg.Paths)
	}
	if cfg.Reports.Mask {
		t.Fatalf("expected masking from project")
	}
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "ci.env")})
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := domain.DefaultConfig()
	cfg.Paths.Reports = filepath.Join(root, "reports")
	cfg.Paths.Screenshots = filepath.Join(root, "reports", "screenshots")
	cfg.Paths.Logs = filepath.Join(root, "logs")
	cfg.Paths.TestData = filepath.Join(root, "data", "test_data")

	if err := EnsureDirectories(cfg); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.Screenshots, cfg.Paths.Logs, cfg.Paths.TestData} {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			t.Fatalf("expected %s to exist", dir)
		}
	}
}
