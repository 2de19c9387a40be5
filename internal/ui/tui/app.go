package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/usecase"
)

type screen int

const (
	screenFeatures screen = iota
	screenRunning
	screenResult
)

type featureItem struct {
	info domain.FeatureInfo
}

func (f featureItem) Title() string       { return f.info.Title() }
func (f featureItem) Description() string { return featureDescription(f.info) }
func (f featureItem) FilterValue() string {
	return f.info.Name + " " + f.info.Path + " " + strings.Join(f.info.Tags, " ")
}

type model struct {
	ctx   context.Context
	theme Theme
	deps  Deps

	scr   screen
	list  list.Model
	spin  spinner.Model
	width int

	running bool
	current string
	outcome usecase.RunOutcome
	runErr  error

	toast string
}

// Run starts the feature browser and blocks until the user quits. A run in
// flight is cancelled on exit.
func Run(ctx context.Context, deps Deps) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(guard(newModel(ctx, deps), deps.Logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newModel(ctx context.Context, deps Deps) model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Features"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return model{
		ctx:   ctx,
		theme: DefaultTheme(),
		deps:  deps,
		scr:   screenFeatures,
		list:  l,
		spin:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		width: 80,
	}
}

func (m model) Init() tea.Cmd { return cmdLoadFeatures(m.deps) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.list.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case featuresLoadedMsg:
		if msg.err != nil {
			m.toast = userMessage(msg.err)
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.features))
		for _, f := range msg.features {
			items = append(items, featureItem{info: f})
		}
		return m, m.list.SetItems(items)

	case runFinishedMsg:
		m.running = false
		m.outcome = msg.out
		m.runErr = msg.err
		m.scr = screenResult
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.scr == screenFeatures && m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q":
			if m.running {
				return m, nil
			}
			return m, tea.Quit
		case "esc", "b":
			if m.scr == screenResult {
				m.scr = screenFeatures
				return m, nil
			}
		case "r":
			if m.scr == screenResult && m.current != "" {
				return m.start(m.current)
			}
		case "enter":
			if m.scr != screenFeatures || m.running {
				return m, nil
			}
			it, ok := m.list.SelectedItem().(featureItem)
			if !ok {
				return m, nil
			}
			if it.info.ParseError != "" {
				m.toast = "Invalid feature file " + it.info.Path
				return m, nil
			}
			return m.start(it.info.Path)
		}
	}

	if m.scr == screenFeatures {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) start(path string) (tea.Model, tea.Cmd) {
	m.running = true
	m.current = path
	m.toast = ""
	m.runErr = nil
	m.outcome = usecase.RunOutcome{}
	m.scr = screenRunning
	return m, tea.Batch(cmdRunFeature(m.ctx, m.deps, path), m.spin.Tick)
}

func (m model) View() string {
	wrap := lipgloss.NewStyle().Padding(1, 2)
	header := m.theme.Title.Render("Cursior") + "\n" +
		m.theme.Subtitle.Render("Browser, API and email acceptance tests") + "\n"

	banner := m.theme.Help.Render("Features: " + m.deps.Source)
	if m.deps.WorkspaceRoot != "" {
		banner = m.theme.Help.Render(fmt.Sprintf("Workspace: %s", m.deps.WorkspaceRoot)) + "\n" + banner
	}
	if m.toast != "" {
		banner += "\n" + m.theme.Warn.Render(m.toast)
	}

	switch m.scr {
	case screenFeatures:
		help := m.theme.Help.Render("↑/↓ navigate • enter run • / search • q quit")
		return wrap.Render(header + "\n" + banner + "\n\n" + m.theme.Card.Render(m.list.View()) + "\n" + help)

	case screenRunning:
		body := fmt.Sprintf("%s Running %s", m.spin.View(), m.current)
		return wrap.Render(header + "\n" + banner + "\n\n" + m.theme.Card.Render(body))

	case screenResult:
		var body string
		if m.runErr != nil {
			body = m.theme.Fail.Render(userMessage(m.runErr)) + "\n" + m.theme.Help.Render(clampString(m.runErr.Error(), m.width))
		} else {
			body = renderOutcome(m.theme, m.outcome, m.width-10)
		}
		card := m.theme.Card.Render(
			m.theme.Title.Render(m.current) + "\n\n" + body + "\n\n" +
				m.theme.Help.Render("r rerun • esc/b back • q quit"),
		)
		return wrap.Render(header + "\n" + banner + "\n\n" + card)

	default:
		return wrap.Render(header + "\n" + "unknown state")
	}
}
