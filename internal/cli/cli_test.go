package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/usecase"
)

func runMain(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Main(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

// newWorkspace scaffolds a workspace with the bundled features.
func newWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if code, _, errOut := runMain(t, "init", root); code != exitOK {
		t.Fatalf("init exit=%d stderr=%s", code, errOut)
	}
	return root
}

// --- splitDefines ---

func TestSplitDefines(t *testing.T) {
	overrides, vars, err := splitDefines([]string{"browser=firefox", " coupon_code = SAVE10 ", "base_url=http://x=y"})
	if err != nil {
		t.Fatalf("splitDefines: %v", err)
	}
	if overrides["browser"] != "firefox" || overrides["base_url"] != "http://x=y" {
		t.Fatalf("overrides = %v", overrides)
	}
	if _, ok := overrides["coupon_code"]; ok {
		t.Fatalf("coupon_code is not a configuration key: %v", overrides)
	}
	if vars["coupon_code"] != "SAVE10" || vars["browser"] != "firefox" {
		t.Fatalf("vars = %v", vars)
	}

	for _, bad := range []string{"novalue", "=x"} {
		_, _, err := splitDefines([]string{bad})
		if !domain.IsKind(err, domain.KindInvalidConfig) {
			t.Fatalf("splitDefines(%q) err=%v, want invalid_config", bad, err)
		}
	}
}

// --- runOptions ---

func TestRunOptionsCheck(t *testing.T) {
	ok := []runOptions{
		{},
		{browser: "firefox", environment: "production", format: "progress"},
		{browser: "edge", format: "junit", parallel: 4},
	}
	for _, o := range ok {
		if err := o.check(); err != nil {
			t.Errorf("check(%+v) = %v", o, err)
		}
	}

	bad := []runOptions{
		{browser: "safari"},
		{environment: "qa"},
		{format: "html"},
		{parallel: -1},
	}
	for _, o := range bad {
		if err := o.check(); !domain.IsKind(err, domain.KindInvalidConfig) {
			t.Errorf("check(%+v) = %v, want invalid_config", o, err)
		}
	}
}

// --- featureSource ---

func TestFeatureSource(t *testing.T) {
	ws := &workspaceCtx{cfg: domain.DefaultConfig()}
	ws.cfg.Paths.Features = filepath.Join(t.TempDir(), "missing")

	_, paths, source, err := featureSource(ws, []string{"login.feature"})
	if err != nil {
		t.Fatalf("featureSource: %v", err)
	}
	if source != "embedded" || len(paths) != 1 || paths[0] != "login.feature" {
		t.Fatalf("source=%q paths=%v", source, paths)
	}

	dir := t.TempDir()
	ws.cfg.Paths.Features = dir
	_, _, source, err = featureSource(ws, nil)
	if err != nil {
		t.Fatalf("featureSource: %v", err)
	}
	if source != dir {
		t.Fatalf("source=%q, want %q", source, dir)
	}
}

// --- commands ---

func TestMain_Version(t *testing.T) {
	code, out, _ := runMain(t, "version")
	if code != exitOK || !strings.HasPrefix(out, "cursior ") {
		t.Fatalf("exit=%d out=%q", code, out)
	}
}

func TestMain_UnknownFlagIsInvalid(t *testing.T) {
	code, _, errOut := runMain(t, "run", "--no-such-flag")
	if code != exitInvalid {
		t.Fatalf("exit=%d, want %d", code, exitInvalid)
	}
	if !strings.Contains(errOut, "no-such-flag") {
		t.Fatalf("stderr=%q", errOut)
	}
}

func TestMain_InitScaffoldsWorkspace(t *testing.T) {
	root := newWorkspace(t)
	for _, rel := range []string{"cursior.yaml", ".env.example", "env/local.yaml", "features/login.feature", "features/shopping.feature"} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
}

func TestMain_RunDryRun(t *testing.T) {
	root := newWorkspace(t)

	code, out, errOut := runMain(t, "-w", root, "--no-color", "run", "--dry-run", "--format", "progress", "-t", "@login")
	if code != exitOK {
		t.Fatalf("exit=%d stdout=%s stderr=%s", code, out, errOut)
	}
	if !strings.Contains(out, "PASSED") || !strings.Contains(out, "Tags:        @login") {
		t.Fatalf("summary missing:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "reports", "junit.xml")); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote junit.xml: %v", err)
	}
}

func TestMain_RunRejectsBadFlags(t *testing.T) {
	root := newWorkspace(t)
	if code, _, _ := runMain(t, "-w", root, "run", "-b", "safari"); code != exitInvalid {
		t.Fatalf("exit=%d, want %d", code, exitInvalid)
	}
	if code, _, _ := runMain(t, "-w", root, "run", "-D", "nope"); code != exitInvalid {
		t.Fatalf("exit=%d, want %d", code, exitInvalid)
	}
	if code, _, _ := runMain(t, "-w", filepath.Join(root, "nowhere"), "run"); code != exitInvalid {
		t.Fatalf("exit=%d, want %d", code, exitInvalid)
	}
}

func TestMain_Validate(t *testing.T) {
	root := newWorkspace(t)
	code, out, errOut := runMain(t, "-w", root, "--no-color", "validate")
	if code != exitOK {
		t.Fatalf("exit=%d stdout=%s stderr=%s", code, out, errOut)
	}
	if !strings.Contains(out, "every step defined") {
		t.Fatalf("out=%s", out)
	}

	bad := filepath.Join(root, "features", "broken.feature")
	if err := os.WriteFile(bad, []byte("Scenario: no feature\n  Given x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, out, _ = runMain(t, "-w", root, "--no-color", "validate")
	if code != exitFailed || !strings.Contains(out, "parse error") {
		t.Fatalf("exit=%d out=%s", code, out)
	}
}

func TestMain_ConfigMasksSecrets(t *testing.T) {
	root := newWorkspace(t)
	code, out, errOut := runMain(t, "-w", root, "config", "--format", "json", "-D", "db_password=hunter2")
	if code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, errOut)
	}
	if strings.Contains(out, "hunter2") || !strings.Contains(out, "****") {
		t.Fatalf("password not masked:\n%s", out)
	}

	if code, _, _ := runMain(t, "-w", root, "config", "--format", "toml"); code != exitInvalid {
		t.Fatalf("exit=%d, want %d", code, exitInvalid)
	}
}

func TestMain_SetupEnv(t *testing.T) {
	root := newWorkspace(t)

	code, out, _ := runMain(t, "-w", root, "setup-env")
	if code != exitOK || !strings.Contains(out, "Created") {
		t.Fatalf("exit=%d out=%q", code, out)
	}
	if _, err := os.Stat(filepath.Join(root, ".env")); err != nil {
		t.Fatalf(".env not created: %v", err)
	}

	_, out, _ = runMain(t, "-w", root, "setup-env")
	if !strings.Contains(out, "already exists") {
		t.Fatalf("out=%q", out)
	}
}

func TestMain_Envs(t *testing.T) {
	root := newWorkspace(t)
	code, out, errOut := runMain(t, "-w", root, "envs")
	if code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, errOut)
	}
	for _, want := range []string{"Current:", "local", "production"} {
		if !strings.Contains(out, want) {
			t.Errorf("envs output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "secrets.local") {
		t.Errorf("secrets file listed as a preset:\n%s", out)
	}
}

// --- summary ---

func TestFailedStep(t *testing.T) {
	sc := domain.ScenarioResult{Steps: []domain.StepResult{
		{Text: "Given I am on the login page", Status: domain.StatusPassed},
		{Text: "When I click login", Status: domain.StatusFailed, Error: "element not found"},
	}}
	if got := failedStep(sc); got != "When I click login: element not found" {
		t.Fatalf("failedStep = %q", got)
	}

	sc = domain.ScenarioResult{Steps: []domain.StepResult{{Text: "Given I dance", Status: domain.StatusUndefined}}}
	if got := failedStep(sc); got != "Given I dance (undefined)" {
		t.Fatalf("failedStep = %q", got)
	}

	sc = domain.ScenarioResult{Error: "hook failed\nstack"}
	if got := failedStep(sc); got != "hook failed" {
		t.Fatalf("failedStep = %q", got)
	}
}

func TestPrintSummary(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	out := usecase.RunOutcome{
		Status: usecase.StatusFailed,
		Report: domain.SuiteReport{
			Environment: "staging",
			Browser:     "chrome",
			StartedAt:   start,
			FinishedAt:  start.Add(1500 * time.Millisecond),
			Scenarios: []domain.ScenarioResult{
				{Name: "Successful login", Feature: "User Login", Status: domain.StatusPassed},
				{
					Name:        "Complete purchase",
					Feature:     "Shopping",
					Status:      domain.StatusFailed,
					Error:       "timeout",
					Screenshots: []domain.Screenshot{{Path: "reports/screenshots/purchase.png"}},
				},
			},
		},
		ReportPath: "reports/run.json",
		JUnitPath:  "reports/junit.xml",
		Published:  []string{"a", "b"},
		Warnings:   []string{"database unavailable: refused"},
	}

	var b bytes.Buffer
	printSummary(&b, out, newStyles(true))
	got := b.String()
	for _, want := range []string{
		"Test run FAILED",
		"Environment: staging   Browser: chrome",
		"Duration:    1.5s",
		"2 total, 1 passed, 1 failed",
		"✗ Shopping: Complete purchase",
		"timeout",
		"screenshot: reports/screenshots/purchase.png",
		"junit:  reports/junit.xml",
		"2 file(s) uploaded",
		"warning: database unavailable: refused",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}
