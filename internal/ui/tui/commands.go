package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chiru781/cursior/internal/usecase"
)

func cmdLoadFeatures(deps Deps) tea.Cmd {
	return func() tea.Msg {
		infos, err := usecase.ListFeatures(deps.Features, nil)
		return featuresLoadedMsg{features: infos, err: err}
	}
}

// cmdRunFeature runs one feature file in the background. Console output is
// discarded; the result card is built from the outcome. A panicking run
// still ends on its result card.
func cmdRunFeature(ctx context.Context, deps Deps, path string) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				log := deps.Logger
				if log == nil {
					log = slog.New(slog.DiscardHandler)
				}
				logPanic(log, "tui.run", path, r)
				msg = runFinishedMsg{path: path, err: runPanicked(path, r)}
			}
		}()
		if deps.Runner == nil {
			return runFinishedMsg{path: path, err: errors.New("runner is not configured")}
		}
		start := time.Now()
		out, err := deps.Runner.Execute(ctx, usecase.RunOptions{
			Paths:    []string{path},
			Tags:     deps.Tags,
			Strict:   true,
			NoColors: true,
			Publish:  true,
			Notify:   true,
		})
		if deps.Logger != nil {
			deps.Logger.Info("tui.run.done",
				"feature", path,
				"status", out.Status,
				"duration", time.Since(start).Round(time.Millisecond),
				"err", err,
			)
		}
		return runFinishedMsg{path: path, out: out, err: err}
	}
}
