package allure

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/ports"
)

// CLI runs the allure binary.
type CLI struct {
	// Binary defaults to "allure" on PATH.
	Binary string
}

var _ ports.ReportRenderer = CLI{}

func (c CLI) binary() (string, error) {
	name := c.Binary
	if name == "" {
		name = "allure"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", &domain.OpError{
			Op:   "allure.lookup",
			Kind: domain.KindNotFound,
			Path: name,
			Err:  fmt.Errorf("allure command line tool not found: %w", domain.ErrNotFound),
		}
	}
	return path, nil
}

// Generate builds the HTML report from resultsDir into outDir.
func (c CLI) Generate(ctx context.Context, resultsDir, outDir string) error {
	return c.run(ctx, "allure.generate", "generate", resultsDir, "-o", outDir, "--clean")
}

// Open serves a generated report.
func (c CLI) Open(ctx context.Context, reportDir string) error {
	return c.run(ctx, "allure.open", "open", reportDir)
}

func (c CLI) run(ctx context.Context, op string, args ...string) error {
	bin, err := c.binary()
	if err != nil {
		return err
	}
	out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput()
	if err != nil {
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Err: fmt.Errorf("%w: %s", err, out)}
	}
	return nil
}
