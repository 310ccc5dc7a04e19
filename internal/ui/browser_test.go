package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/plinth-cli/plinth/internal/dispatch"
)

func newBrowserRegistry(t *testing.T) *dispatch.Registry {
	t.Helper()
	reg := dispatch.NewRegistry("plinth", "command foundation", "plinth <command>")
	h := func(env *dispatch.Environment, args dispatch.Args) (any, error) { return nil, nil }

	require.NoError(t, reg.Register(nil, dispatch.NewCommand(dispatch.CommandSpec{
		Name: "version", Summary: "print version", Handler: h,
	})))
	require.NoError(t, reg.Register(nil, dispatch.NewGroup(dispatch.GroupSpec{Name: "db"})))
	require.NoError(t, reg.Register([]string{"db"}, dispatch.NewCommand(dispatch.CommandSpec{
		Name: "migrate", Summary: "apply migrations",
		Params: []dispatch.ParamSpec{
			{Name: "target", Kind: dispatch.KindOption, Required: true, Description: "environment"},
		},
		Handler: h,
	})))
	return reg
}

func keyMsg(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{}
}

func TestBrowser_NavigationMovesCursor(t *testing.T) {
	m := newBrowserModel(newBrowserRegistry(t))
	require.Equal(t, 0, m.cursor)

	next, _ := m.Update(keyMsg("down"))
	m = next.(browserModel)
	require.Equal(t, 1, m.cursor)

	next, _ = m.Update(keyMsg("up"))
	m = next.(browserModel)
	require.Equal(t, 0, m.cursor)

	// Cursor never moves past the last entry.
	for range 10 {
		next, _ = m.Update(keyMsg("down"))
		m = next.(browserModel)
	}
	require.Equal(t, len(m.visible)-1, m.cursor)
}

func TestBrowser_FilterNarrowsVisible(t *testing.T) {
	m := newBrowserModel(newBrowserRegistry(t))
	require.Len(t, m.visible, 2)

	next, _ := m.Update(keyMsg("/"))
	m = next.(browserModel)
	require.True(t, m.filtering)

	for _, r := range "migrate" {
		next, _ = m.Update(keyMsg(string(r)))
		m = next.(browserModel)
	}
	require.Len(t, m.visible, 1)
	require.Equal(t, []string{"db", "migrate"}, m.visible[0].Path)

	// esc clears the filter.
	next, _ = m.Update(keyMsg("esc"))
	m = next.(browserModel)
	require.False(t, m.filtering)
	require.Len(t, m.visible, 2)
}

func TestBrowser_QuitKey(t *testing.T) {
	m := newBrowserModel(newBrowserRegistry(t))

	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	require.Equal(t, tea.Quit(), cmd())
}

func TestBrowser_ViewRendersPanes(t *testing.T) {
	m := newBrowserModel(newBrowserRegistry(t))

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(browserModel)

	view := m.View()
	require.Contains(t, view, "version")
	require.Contains(t, view, "commands")
}

func TestCommandDetail(t *testing.T) {
	reg := newBrowserRegistry(t)
	res, f := reg.Resolve([]string{"db", "migrate"})
	require.Nil(t, f)

	lines := strings.Join(commandDetail(res.Node), "\n")
	require.Contains(t, lines, "db migrate")
	require.Contains(t, lines, "apply migrations")
	require.Contains(t, lines, "--target <value>")
	require.Contains(t, lines, "(required)")
}
