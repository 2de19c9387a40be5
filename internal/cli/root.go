package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Exit codes: 0 every scenario passed, 1 a scenario failed, 2 the suite
// could not run (bad flags, config or feature files).
const (
	exitOK      = 0
	exitFailed  = 1
	exitInvalid = 2
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Main(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Main runs the command line and returns the process exit code.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, "Error:", ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return exitInvalid
}

type globalOptions struct {
	workspace string
	envFile   string
	verbose   bool
	noColor   bool
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "cursior",
		Short:         "Behaviour-driven browser, API and database tests for the shop",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, _ []string) error {
			return runUI(c, g)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.workspace, "workspace", "w", "", "Workspace root (autodetected from cursior.yaml if omitted)")
	pf.StringVar(&g.envFile, "env-file", "", "Env file to load instead of <workspace>/.env")
	pf.BoolVar(&g.verbose, "verbose", false, "Debug logging, mirrored to stderr")
	pf.BoolVar(&g.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		runCmd(g),
		validateCmd(g),
		initCmd(),
		setupEnvCmd(g),
		envsCmd(g),
		configCmd(g),
		cleanupCmd(g),
		uiCmd(g),
		versionCmd(),
	)
	return cmd
}
