package tui

import (
	"context"
	"io/fs"
	"log/slog"

	"github.com/chiru781/cursior/internal/usecase"
)

// Runner executes a suite run; *usecase.RunSuite satisfies it.
type Runner interface {
	Execute(ctx context.Context, opts usecase.RunOptions) (usecase.RunOutcome, error)
}

type Deps struct {
	// WorkspaceRoot is empty outside a workspace.
	WorkspaceRoot string
	Features      fs.FS
	// Source describes where Features come from (a directory or "embedded").
	Source string
	Runner Runner
	// Tags narrows every run started from the UI.
	Tags string

	Logger *slog.Logger
	Debug  bool
}
