package domain

// Project represents the workspace settings loaded from cursior.yaml.
type Project struct {
	Name     string
	Masking  MaskingConfig
	Defaults DefaultsConfig
	Paths    ProjectPaths
}

type MaskingConfig struct {
	Enabled bool
	Keys    []string
}

type DefaultsConfig struct {
	Environment string
	Browser     string
	Tags        string
}

type ProjectPaths struct {
	FeaturesDir     string
	EnvironmentsDir string
	ReportsDir      string
	ScreenshotsDir  string
	LogsDir         string
	TestDataDir     string
	RunsDir         string
}

// DefaultProject provides sane defaults if cursior.yaml is partially missing.
func DefaultProject() Project {
	return Project{
		Name:    "cursior",
		Masking: MaskingConfig{Enabled: true},
		Defaults: DefaultsConfig{
			Environment: "staging",
			Browser:     "chrome",
		},
		Paths: ProjectPaths{
			FeaturesDir:     "features",
			EnvironmentsDir: "env",
			ReportsDir:      "reports",
			ScreenshotsDir:  "reports/screenshots",
			LogsDir:         "logs",
			TestDataDir:     "data/test_data",
			RunsDir:         "runs",
		},
	}
}

// WorkspaceSpec describes where a workspace should be created.
type WorkspaceSpec struct {
	Root string
}
