package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/plinth-cli/plinth/internal/dispatch"
	"github.com/plinth-cli/plinth/internal/ui/splitpanel"
)

// RunBrowser opens the full-screen command browser over the registry. It
// returns when the user quits.
func RunBrowser(registry *dispatch.Registry) error {
	p := tea.NewProgram(newBrowserModel(registry), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type browserKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Filter key.Binding
	Quit   key.Binding
}

var browserKeys = browserKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type browserModel struct {
	all     []*dispatch.Node
	visible []*dispatch.Node

	filter    textinput.Model
	filtering bool

	cursor int
	scroll int
	width  int
	height int
}

func newBrowserModel(registry *dispatch.Registry) browserModel {
	ti := textinput.New()
	ti.Placeholder = "filter commands"
	ti.CharLimit = 64

	all := registry.Commands()
	return browserModel{
		all:     all,
		visible: all,
		filter:  ti,
	}
}

func (m browserModel) Init() tea.Cmd {
	return nil
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			switch msg.String() {
			case "esc":
				m.filtering = false
				m.filter.SetValue("")
				m.filter.Blur()
				m.applyFilter()
				return m, nil
			case "enter":
				m.filtering = false
				m.filter.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}

		switch {
		case key.Matches(msg, browserKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, browserKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, browserKeys.Down):
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
		case key.Matches(msg, browserKeys.Filter):
			m.filtering = true
			return m, m.filter.Focus()
		}
	}
	return m, nil
}

// applyFilter recomputes the visible set from the filter text and clamps the
// cursor.
func (m *browserModel) applyFilter() {
	needle := strings.ToLower(m.filter.Value())
	if needle == "" {
		m.visible = m.all
	} else {
		var out []*dispatch.Node
		for _, n := range m.all {
			haystack := strings.ToLower(strings.Join(n.Path, " ") + " " + n.Summary)
			if strings.Contains(haystack, needle) {
				out = append(out, n)
			}
		}
		m.visible = out
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
	m.scroll = 0
}

func (m browserModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	header := lipgloss.NewStyle().Bold(true).Render("commands")
	if m.filtering || m.filter.Value() != "" {
		header += "  " + m.filter.View()
	}
	footer := lipgloss.NewStyle().Faint(true).
		Render("↑/↓ navigate · / filter · q quit")

	panelHeight := max(m.height-2, 3)
	layout := splitpanel.NewLayout(m.width, splitpanel.Config{
		SidebarWidthPercent: 0.35,
		SidebarMinWidth:     24,
		SidebarMaxWidth:     48,
	}, lipgloss.Color("6"), lipgloss.Color("8"))

	visibleRows := max(panelHeight-2, 1)
	scroll := m.scroll
	if m.cursor < scroll {
		scroll = m.cursor
	}
	if m.cursor >= scroll+visibleRows {
		scroll = m.cursor - visibleRows + 1
	}

	var sidebarLines []string
	end := min(scroll+visibleRows, len(m.visible))
	for i := scroll; i < end; i++ {
		label := strings.Join(m.visible[i].Path, " ")
		if i == m.cursor {
			label = lipgloss.NewStyle().Reverse(true).Render(label)
		}
		sidebarLines = append(sidebarLines, label)
	}

	var detailLines []string
	if len(m.visible) > 0 {
		detailLines = commandDetail(m.visible[m.cursor])
	} else {
		detailLines = []string{"no commands match the filter"}
	}

	body := layout.Render(
		splitpanel.Panel{Lines: sidebarLines, ScrollPos: scroll, TotalItems: len(m.visible)},
		splitpanel.Panel{Lines: detailLines},
		panelHeight,
	)

	return header + "\n" + body + "\n" + footer
}

// commandDetail formats the detail pane for one command node.
func commandDetail(node *dispatch.Node) []string {
	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render(strings.Join(node.Path, " ")))
	if node.Summary != "" {
		lines = append(lines, node.Summary)
	}
	if len(node.Aliases) > 0 {
		lines = append(lines, "", "aliases: "+strings.Join(node.Aliases, ", "))
	}
	if node.Usage != "" {
		lines = append(lines, "", "usage: "+node.Usage)
	}
	if node.Description != "" {
		lines = append(lines, "")
		lines = append(lines, strings.Split(node.Description, "\n")...)
	}
	if len(node.Params) > 0 {
		lines = append(lines, "", "parameters:")
		for _, p := range node.Params {
			label := p.Name
			switch p.Kind {
			case dispatch.KindOption:
				label = "--" + p.Name + " <value>"
			case dispatch.KindFlag:
				label = "--" + p.Name
			}
			req := ""
			if p.Required {
				req = " (required)"
			}
			lines = append(lines, fmt.Sprintf("  %-22s %s%s", label, p.Description, req))
		}
	}
	if node.Owner != "" {
		lines = append(lines, "", "plugin: "+node.Owner)
	}
	return lines
}
