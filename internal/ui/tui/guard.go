package tui

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chiru781/cursior/internal/domain"
)

// guarded keeps a panic in the interface from tearing down the terminal
// while a suite is running in the background.
type guarded struct {
	m   model
	log *slog.Logger
}

func guard(m model, log *slog.Logger) guarded {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return guarded{m: m, log: log}
}

var _ tea.Model = guarded{}

func (g guarded) Init() tea.Cmd { return g.m.Init() }

func (g guarded) Update(msg tea.Msg) (next tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(g.log, "tui.update", g.m.current, r)
			g.m = g.m.recovered(fmt.Sprintf("%T", msg))
			next, cmd = g, nil
		}
	}()

	inner, c := g.m.Update(msg)
	if mm, ok := inner.(model); ok {
		g.m = mm
	}
	return g, c
}

func (g guarded) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(g.log, "tui.view", g.m.current, r)
			out = "Cursior could not draw this screen (see logs).\n\nesc/b back • q quit"
		}
	}()
	return g.m.View()
}

// recovered picks the screen shown after a panic while handling a message
// of type what. A feature that is still running keeps its progress screen
// since its result will arrive on its own; otherwise the feature list is
// shown again.
func (m model) recovered(what string) model {
	if m.running {
		m.scr = screenRunning
		m.toast = "Display error while running " + m.current + " (see logs)"
		return m
	}
	m.scr = screenFeatures
	m.runErr = nil
	m.toast = "Unexpected error handling " + what + " (see logs)"
	return m
}

// runPanicked turns a panic raised by the runner into the result of the
// feature it was running.
func runPanicked(path string, r any) error {
	return &domain.OpError{Op: "tui.run", Kind: domain.KindExecution, Path: path, Err: fmt.Errorf("panic: %v", r)}
}

func logPanic(log *slog.Logger, where, feature string, r any) {
	log.Error("panic.recovered",
		"where", where,
		"feature", feature,
		"panic", fmt.Sprint(r),
		"stack", string(debug.Stack()),
	)
}
