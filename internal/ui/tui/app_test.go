package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/usecase"
)

type fakeRunner struct {
	opts []usecase.RunOptions
	out  usecase.RunOutcome
	err  error
}

func (r *fakeRunner) Execute(_ context.Context, opts usecase.RunOptions) (usecase.RunOutcome, error) {
	r.opts = append(r.opts, opts)
	return r.out, r.err
}

var testFeatures = fstest.MapFS{
	"login.feature": {Data: []byte(`@login
Feature: User Login
  Scenario: Successful login
    Given I am on the login page
`)},
	"broken.feature": {Data: []byte("Given nothing\n")},
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(model)
	require.True(t, ok)
	return mm, cmd
}

// runFinished executes a batched command and returns the run result.
func runFinished(t *testing.T, cmd tea.Cmd) runFinishedMsg {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(runFinishedMsg); ok {
			return msg
		}
	}
	t.Fatal("no runFinishedMsg in batch")
	return runFinishedMsg{}
}

func loadedModel(t *testing.T, deps Deps) model {
	t.Helper()
	deps.Features = testFeatures
	m := newModel(context.Background(), deps)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	msg := m.Init()()
	m, _ = update(t, m, msg)
	require.Len(t, m.list.Items(), 2)
	return m
}

func selectPath(t *testing.T, m model, path string) model {
	t.Helper()
	for i, it := range m.list.Items() {
		if it.(featureItem).info.Path == path {
			m.list.Select(i)
			return m
		}
	}
	t.Fatalf("feature %s not listed", path)
	return m
}

func TestModel_RunsSelectedFeature(t *testing.T) {
	runner := &fakeRunner{out: usecase.RunOutcome{
		Status: usecase.StatusFailed,
		Report: domain.SuiteReport{
			StartedAt:  time.Unix(0, 0),
			FinishedAt: time.Unix(2, 0),
			Scenarios: []domain.ScenarioResult{
				{Name: "Successful login", Status: domain.StatusFailed, Error: "element not found\nstack"},
			},
		},
	}}
	m := loadedModel(t, Deps{Runner: runner, Source: "embedded", Tags: "~@wip"})
	m = selectPath(t, m, "login.feature")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.running)
	assert.Equal(t, screenRunning, m.scr)
	assert.Contains(t, m.View(), "Running login.feature")

	m, _ = update(t, m, runFinished(t, cmd))
	assert.False(t, m.running)
	assert.Equal(t, screenResult, m.scr)

	require.Len(t, runner.opts, 1)
	assert.Equal(t, []string{"login.feature"}, runner.opts[0].Paths)
	assert.Equal(t, "~@wip", runner.opts[0].Tags)
	assert.True(t, runner.opts[0].Strict)

	view := m.View()
	assert.Contains(t, view, "FAILED")
	assert.Contains(t, view, "Successful login")
	assert.Contains(t, view, "element not found")
	assert.NotContains(t, view, "stack")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, screenFeatures, m.scr)
}

func TestModel_RerunAndErrors(t *testing.T) {
	runner := &fakeRunner{err: &domain.OpError{Op: "suite.run", Kind: domain.KindTimeout, Err: context.Canceled}}
	m := loadedModel(t, Deps{Runner: runner})
	m = selectPath(t, m, "login.feature")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, runFinished(t, cmd))
	assert.Contains(t, m.View(), "Run cancelled or timed out")

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, screenRunning, m.scr)
	_ = runFinished(t, cmd)
	assert.Len(t, runner.opts, 2)
}

func TestModel_BrokenFeatureIsNotRun(t *testing.T) {
	runner := &fakeRunner{}
	m := loadedModel(t, Deps{Runner: runner})
	m = selectPath(t, m, "broken.feature")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, screenFeatures, m.scr)
	assert.Contains(t, m.toast, "broken.feature")
	assert.Empty(t, runner.opts)
}

func TestModel_QuitIgnoredWhileRunning(t *testing.T) {
	m := loadedModel(t, Deps{Runner: &fakeRunner{}})
	m = selectPath(t, m, "login.feature")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Nil(t, cmd)

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestModel_LoadErrorShowsToast(t *testing.T) {
	m := newModel(context.Background(), Deps{})
	m, _ = update(t, m, m.Init()())
	assert.Equal(t, "Invalid config", m.toast)
	assert.True(t, strings.Contains(m.View(), "Invalid config"))
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&domain.OpError{Op: "cli.workspace", Kind: domain.KindNotFound}, "Workspace not found"},
		{&domain.OpError{Op: "suite.run", Kind: domain.KindNotFound}, "No feature files found"},
		{&domain.OpError{Op: "features.list", Kind: domain.KindNotFound, Path: "shop/cart.feature"}, "Not found: cart.feature"},
		{&domain.OpError{Op: "features.parse", Kind: domain.KindInvalidConfig, Path: "login.feature", Err: errors.New("Parser errors:\n(3:5): expected: #EOF")}, "Invalid feature file login.feature line 3"},
		{errors.Join(&domain.OpError{Op: "features.parse", Kind: domain.KindInvalidConfig, Path: "a/b.feature"}), "Invalid feature file b.feature"},
		{&domain.OpError{Op: "vars.resolve", Kind: domain.KindMissingVar, Err: errors.New("missing variable: coupon_code")}, "Missing variable coupon_code"},
		{&domain.OpError{Op: "browser.launch", Kind: domain.KindBrowser}, "Browser could not be started"},
		{errors.New("boom"), "Unexpected error (see logs)"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, userMessage(tc.err), "%v", tc.err)
	}
}

func TestClampString(t *testing.T) {
	assert.Equal(t, "", clampString("abc", 0))
	assert.Equal(t, "abc", clampString("abc", 3))
	assert.Equal(t, "ab…", clampString("abc", 2))
	assert.Equal(t, "ñá…", clampString("ñáé", 2))
}

type panickingRunner struct{}

func (panickingRunner) Execute(context.Context, usecase.RunOptions) (usecase.RunOutcome, error) {
	panic("driver exploded")
}

func TestModel_PanickingRunEndsOnItsResultCard(t *testing.T) {
	m := loadedModel(t, Deps{Runner: panickingRunner{}})
	m = selectPath(t, m, "login.feature")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	msg := runFinished(t, cmd)
	require.Error(t, msg.err)
	assert.True(t, domain.IsKind(msg.err, domain.KindExecution))

	m, _ = update(t, m, msg)
	assert.Equal(t, screenResult, m.scr)
	assert.False(t, m.running)
	assert.Contains(t, m.View(), "Run of login.feature crashed (see logs)")

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, screenRunning, m.scr, "a crashed run can be started again")
	require.NotNil(t, cmd)
}

func TestModel_RecoveredScreens(t *testing.T) {
	m := loadedModel(t, Deps{Runner: &fakeRunner{}})
	m = selectPath(t, m, "login.feature")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	running := m.recovered("spinner.TickMsg")
	assert.Equal(t, screenRunning, running.scr, "a running feature keeps its progress screen")
	assert.True(t, running.running)
	assert.Contains(t, running.toast, "login.feature")

	m.running = false
	m.scr = screenResult
	m.runErr = errors.New("stale")
	idle := m.recovered("tea.KeyMsg")
	assert.Equal(t, screenFeatures, idle.scr)
	assert.NoError(t, idle.runErr)
	assert.Contains(t, idle.View(), "Unexpected error handling tea.KeyMsg")
}

func TestGuardedWrapsTheModel(t *testing.T) {
	g := guard(loadedModel(t, Deps{Runner: &fakeRunner{}}), nil)

	next, _ := g.Update(tea.KeyMsg{Type: tea.KeyDown})
	gg, ok := next.(guarded)
	require.True(t, ok)
	assert.Contains(t, gg.View(), "Features")
}
