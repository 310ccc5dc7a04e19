package splitpanel

import "github.com/charmbracelet/lipgloss"

const (
	ScrollThumbChar = "█" // full block
	ScrollTrackChar = "│" // box drawing vertical
)

// BuildScrollbar produces one styled cell per visible row. When all items
// fit, the track is blank. The thumb size is proportional to the visible
// fraction and its position to the scroll offset.
func BuildScrollbar(viewHeight, totalItems, scrollOffset int, activeColor, trackColor lipgloss.Color, focused bool) []string {
	scrollbar := make([]string, viewHeight)

	if totalItems <= viewHeight {
		for i := range scrollbar {
			scrollbar[i] = " "
		}
		return scrollbar
	}

	thumbSize := (viewHeight * viewHeight) / totalItems
	thumbSize = max(thumbSize, 1)
	maxThumbSize := max(viewHeight-2, 1)
	if thumbSize > maxThumbSize {
		thumbSize = maxThumbSize
	}

	maxScroll := max(totalItems-viewHeight, 1)
	trackSpace := max(viewHeight-thumbSize, 0)

	thumbPos := 0
	if trackSpace > 0 {
		thumbPos = (scrollOffset * trackSpace) / maxScroll
	}
	thumbPos = max(thumbPos, 0)
	thumbPos = min(thumbPos, trackSpace)

	thumbColor := trackColor
	if focused {
		thumbColor = activeColor
	}
	thumbStyle := lipgloss.NewStyle().Foreground(thumbColor)
	trackStyle := lipgloss.NewStyle().Foreground(trackColor)

	for i := range viewHeight {
		if i >= thumbPos && i < thumbPos+thumbSize {
			scrollbar[i] = thumbStyle.Render(ScrollThumbChar)
		} else {
			scrollbar[i] = trackStyle.Render(ScrollTrackChar)
		}
	}

	return scrollbar
}
