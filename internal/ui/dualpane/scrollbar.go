package dualpane

import (
	"strings"

	"duet/internal/ui/styles"
)

const (
	scrollbarThumbChar = "█"
	scrollbarTrackChar = "░"
)

// renderScrollbar draws a one-column scrollbar for a pane. The thumb height
// is proportional to the visible/total ratio with a minimum of one cell, and
// its position is proportional within the remaining track.
func renderScrollbar(totalLines, viewportHeight, scrollOffset int, theme styles.Theme) string {
	if viewportHeight <= 0 {
		return ""
	}
	if totalLines <= viewportHeight {
		lines := make([]string, viewportHeight)
		for i := range lines {
			lines[i] = " "
		}
		return strings.Join(lines, "\n")
	}

	thumb := viewportHeight * viewportHeight / totalLines
	if thumb < 1 {
		thumb = 1
	}

	maxOffset := totalLines - viewportHeight
	track := viewportHeight - thumb
	start := 0
	if maxOffset > 0 && track > 0 {
		start = track * scrollOffset / maxOffset
		if start > viewportHeight-thumb {
			start = viewportHeight - thumb
		}
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := 0; i < viewportHeight; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i >= start && i < start+thumb {
			b.WriteString(theme.Change.Render(scrollbarThumbChar))
		} else {
			b.WriteString(theme.Muted.Render(scrollbarTrackChar))
		}
	}
	return b.String()
}
