// Package splitpanel renders a two-pane bordered terminal layout with
// per-pane scrollbars. The command browser uses it for its list/detail view.
package splitpanel

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Panel holds the visible content of one pane.
type Panel struct {
	Lines      []string // visible lines, already scrolled
	ScrollPos  int      // scroll position, for the scrollbar
	TotalItems int      // total scrollable items
}

// Config holds layout configuration.
type Config struct {
	SidebarWidthPercent float64
	SidebarMinWidth     int
	SidebarMaxWidth     int
}

// Layout computes pane dimensions and renders the split.
type Layout struct {
	Width        int
	Height       int
	SidebarWidth int
	ContentWidth int
	FocusSidebar bool

	active lipgloss.Color
	dim    lipgloss.Color
}

// NewLayout builds a layout for the given total width. The active color marks
// the focused pane's border and scrollbar thumb.
func NewLayout(width int, cfg Config, active, dim lipgloss.Color) *Layout {
	sidebarWidth := int(float64(width) * cfg.SidebarWidthPercent)
	sidebarWidth = max(sidebarWidth, cfg.SidebarMinWidth)
	sidebarWidth = min(sidebarWidth, cfg.SidebarMaxWidth)

	return &Layout{
		Width:        width,
		SidebarWidth: sidebarWidth,
		ContentWidth: width - sidebarWidth,
		FocusSidebar: true,
		active:       active,
		dim:          dim,
	}
}

// SetFocus sets which pane is focused.
func (l *Layout) SetFocus(focusSidebar bool) {
	l.FocusSidebar = focusSidebar
}

// Render renders sidebar and content side by side at the given height.
func (l *Layout) Render(sidebar, content Panel, height int) string {
	l.Height = height

	sidebarStr := l.buildPanel(sidebar, l.SidebarWidth, height, l.FocusSidebar)
	contentStr := l.buildPanel(content, l.ContentWidth, height, !l.FocusSidebar)

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebarStr, contentStr)
}

// buildPanel creates a single pane with border and scrollbar. Inner width is
// pane width minus border(2), padding(2), and scrollbar(2).
func (l *Layout) buildPanel(panel Panel, width, height int, focused bool) string {
	contentWidth := max(width-6, 1)
	visibleHeight := max(height-2, 1)

	lines := panel.Lines
	if len(lines) > visibleHeight {
		lines = lines[:visibleHeight]
	}
	for len(lines) < visibleHeight {
		lines = append(lines, "")
	}

	totalItems := panel.TotalItems
	if totalItems == 0 {
		totalItems = len(panel.Lines)
	}
	scrollbar := BuildScrollbar(visibleHeight, totalItems, panel.ScrollPos, l.active, l.dim, focused)

	var rows []string
	for i, line := range lines {
		lineWidth := lipgloss.Width(line)
		if lineWidth > contentWidth {
			line = truncate(line, contentWidth)
		} else if lineWidth < contentWidth {
			line = line + strings.Repeat(" ", contentWidth-lineWidth)
		}

		scrollChar := " "
		if i < len(scrollbar) {
			scrollChar = scrollbar[i]
		}
		rows = append(rows, line+" "+scrollChar)
	}

	borderColor := l.dim
	if focused {
		borderColor = l.active
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1)

	return box.Render(strings.Join(rows, "\n"))
}

// truncate shortens a string to maxWidth display cells with an ellipsis.
func truncate(s string, maxWidth int) string {
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	runes := []rune(s)
	for i := len(runes); i > 0; i-- {
		candidate := string(runes[:i])
		if lipgloss.Width(candidate) <= maxWidth-3 {
			return candidate + "..."
		}
	}
	return "..."
}

// SidebarContentWidth returns the usable width for sidebar content.
func (l *Layout) SidebarContentWidth() int {
	return l.SidebarWidth - 6
}

// MainContentWidth returns the usable width for main content.
func (l *Layout) MainContentWidth() int {
	return l.ContentWidth - 6
}

// VisibleHeight returns the visible lines in a pane.
func (l *Layout) VisibleHeight() int {
	return l.Height - 2
}
