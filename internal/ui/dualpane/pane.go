package dualpane

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"duet/internal/align"
	"duet/internal/search"
	"duet/internal/ui/styles"
)

// rowClass drives per-line coloring.
type rowClass int

const (
	rowContext rowClass = iota
	rowChanged
	rowAdded
	rowRemoved
)

// classifyRows returns a per-row class for one side of the alignment: rows in
// a changed range where the counterpart span is empty are pure
// additions/removals, other changed rows are modifications.
func classifyRows(seq align.Sequence, side align.Side, total int) []rowClass {
	classes := make([]rowClass, total)
	for _, r := range seq {
		if !r.Changed {
			continue
		}
		span := r.Span(side)
		class := rowChanged
		if r.Span(side.Other()).Empty() {
			if side == align.SideAfter {
				class = rowAdded
			} else {
				class = rowRemoved
			}
		}
		for row := span.Start; row < span.End && row < total; row++ {
			classes[row] = class
		}
	}
	return classes
}

// pane is one side's viewport. Scroll offsets are fractional cells; rendering
// floors them. It satisfies the sync engine's Pane interface.
type pane struct {
	side  align.Side
	lines []string

	classes []rowClass

	width  int
	height int

	top  float64
	left float64
}

func newPane(side align.Side) *pane {
	return &pane{side: side}
}

// SetContent replaces the pane's lines and row classes, resetting scroll.
func (p *pane) SetContent(lines []string, seq align.Sequence) {
	p.lines = lines
	p.classes = classifyRows(seq, p.side, len(lines))
	p.top = 0
	p.left = 0
}

func (p *pane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.clamp()
}

func (p *pane) ScrollTop() float64 { return p.top }

func (p *pane) ScrollLeft() float64 { return p.left }

func (p *pane) ViewportHeight() float64 { return float64(p.height) }

func (p *pane) SetScrollTop(v float64) {
	p.top = v
	p.clamp()
}

func (p *pane) SetScrollLeft(v float64) {
	p.left = v
	if p.left < 0 {
		p.left = 0
	}
}

// ScrollBy moves the vertical offset by delta cells.
func (p *pane) ScrollBy(delta float64) {
	p.top += delta
	p.clamp()
}

// HorizontalBy moves the horizontal offset by delta cells.
func (p *pane) HorizontalBy(delta float64) {
	p.left += delta
	if p.left < 0 {
		p.left = 0
	}
}

func (p *pane) GotoTop()    { p.top = 0 }
func (p *pane) GotoBottom() { p.top = p.maxTop() }

func (p *pane) maxTop() float64 {
	m := float64(len(p.lines) - p.height)
	if m < 0 {
		return 0
	}
	return m
}

func (p *pane) clamp() {
	if p.top < 0 {
		p.top = 0
	}
	if m := p.maxTop(); p.top > m {
		p.top = m
	}
	if p.left < 0 {
		p.left = 0
	}
}

// topRow is the first visible line index.
func (p *pane) topRow() int {
	return int(math.Floor(p.top))
}

// View renders the visible window. matches maps row index to the match spans
// to highlight; selected points at the active match, or nil.
func (p *pane) View(theme styles.Theme, matches map[int][]search.Match, selected *search.Match) string {
	if p.width <= 0 || p.height <= 0 {
		return ""
	}

	numWidth := len(fmt.Sprintf("%d", len(p.lines)))
	if numWidth < 3 {
		numWidth = 3
	}
	contentWidth := p.width - numWidth - 1
	if contentWidth < 1 {
		contentWidth = 1
	}

	var b strings.Builder
	start := p.topRow()
	for i := 0; i < p.height; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		row := start + i
		if row >= len(p.lines) {
			b.WriteString(theme.LineNum.Render(strings.Repeat(" ", numWidth) + "~"))
			continue
		}

		b.WriteString(theme.LineNum.Render(fmt.Sprintf("%*d ", numWidth, row+1)))
		b.WriteString(p.renderLine(row, contentWidth, theme, matches[row], selected))
	}
	return b.String()
}

func (p *pane) renderLine(row, width int, theme styles.Theme, spans []search.Match, selected *search.Match) string {
	base := theme.Context
	switch p.classes[row] {
	case rowChanged:
		base = theme.Change
	case rowAdded:
		base = theme.Addition
	case rowRemoved:
		base = theme.Deletion
	}

	line := p.lines[row]
	if len(spans) > 0 {
		line = highlightLine(line, spans, base, theme, selected)
	} else {
		line = base.Render(line)
	}

	// Horizontal scroll then fit to the content width; both operate on
	// display cells and are ANSI-aware.
	if off := int(p.left); off > 0 {
		line = ansi.TruncateLeft(line, off, "")
	}
	return ansi.Truncate(line, width, "")
}

// highlightLine styles the match spans within line. Spans are rune-indexed
// and non-overlapping is not assumed; later spans win on overlap.
func highlightLine(line string, spans []search.Match, base lipgloss.Style, theme styles.Theme, selected *search.Match) string {
	runes := []rune(line)
	hl := make([]int, len(runes)) // 0 plain, 1 match, 2 selected
	for _, s := range spans {
		mark := 1
		if selected != nil && s.Line == selected.Line && s.Start == selected.Start && s.End == selected.End {
			mark = 2
		}
		for i := s.Start; i < s.End && i < len(runes); i++ {
			if mark > hl[i] {
				hl[i] = mark
			}
		}
	}

	var b strings.Builder
	flush := func(from, to, mark int) {
		if from >= to {
			return
		}
		seg := string(runes[from:to])
		switch mark {
		case 2:
			b.WriteString(theme.Selected.Render(seg))
		case 1:
			b.WriteString(theme.Highlight.Render(seg))
		default:
			b.WriteString(base.Render(seg))
		}
	}

	runStart := 0
	for i := 1; i <= len(runes); i++ {
		if i == len(runes) || hl[i] != hl[runStart] {
			flush(runStart, i, hl[runStart])
			runStart = i
		}
	}
	return b.String()
}
