package dualpane

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/reflow/truncate"

	"duet/internal/connector"
	"duet/internal/search"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if m.showHelp {
		return m.helpView()
	}
	if m.showLog {
		return m.logView()
	}

	matches, selected := m.currentMatches()

	columns := []string{}
	if m.showFiles {
		columns = append(columns, m.fileListView())
	}

	columns = append(columns, m.before.View(m.theme, nil, nil))
	if m.showScrollbars {
		columns = append(columns, renderScrollbar(
			len(m.before.lines), m.before.height, m.before.topRow(), m.theme))
	}
	if m.showConnectors {
		columns = append(columns, m.gutterView())
	}
	columns = append(columns, m.after.View(m.theme, matches, selected))
	if m.showScrollbars {
		columns = append(columns, renderScrollbar(
			len(m.after.lines), m.after.height, m.after.topRow(), m.theme))
	}

	main := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	rows := []string{main}
	if m.searchOpen {
		rows = append(rows, m.searchBarView())
	}
	rows = append(rows, m.statusBarView())
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// gutterView rasterizes connector shapes for the current scroll positions.
func (m Model) gutterView() string {
	height := m.before.height
	if m.current == nil {
		return strings.TrimRight(strings.Repeat(strings.Repeat(" ", gutterWidth)+"\n", height), "\n")
	}

	shapes := connector.BuildShapes(
		m.current.Alignment,
		m.before.ScrollTop(),
		m.after.ScrollTop(),
		connector.Config{
			LineHeight:     1,
			Width:          float64(gutterWidth),
			ViewportHeight: float64(height),
		},
	)
	lines := connector.Rasterize(shapes, gutterWidth, height, m.theme.ConnectorStyles())
	return strings.Join(lines, "\n")
}

// fileListView renders the file panel; each row is zone-marked for mouse
// selection and annotated with its search match count when one exists.
func (m Model) fileListView() string {
	width := m.cfg.UI.FileListWidth
	height := m.before.height

	counts := make(map[string]int, len(m.searchState.Files))
	for _, f := range m.searchState.Files {
		counts[f.Path] = len(f.Matches)
	}

	// Keep the selection visible in a tall list.
	start := 0
	if m.fileIdx >= height {
		start = m.fileIdx - height + 1
	}

	var b strings.Builder
	for i := 0; i < height; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		idx := start + i
		if idx >= len(m.paths) {
			b.WriteString(strings.Repeat(" ", width))
			continue
		}

		path := m.paths[idx]
		label := path
		if n, ok := counts[path]; ok && m.searchState.Query != "" {
			label = fmt.Sprintf("%s (%d)", path, n)
		}

		prefix := "  "
		style := m.theme.FileNormal
		if idx == m.fileIdx {
			prefix = "> "
			style = m.theme.FileSelected
		}
		row := truncate.StringWithTail(prefix+label, uint(width), "…")
		if pad := width - lipgloss.Width(row); pad > 0 {
			row += strings.Repeat(" ", pad)
		}
		b.WriteString(zone.Mark(fmt.Sprintf("file_%d", idx), style.Render(row)))
	}
	return b.String()
}

func (m Model) searchBarView() string {
	scope := m.theme.Muted.Render(" [" + m.scope.String() + "]")
	return m.searchInput.View() + scope
}

func (m Model) statusBarView() string {
	var parts []string

	if len(m.paths) > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d %s", m.fileIdx+1, len(m.paths), m.CurrentPath()))
	}
	if m.current != nil {
		parts = append(parts, fmt.Sprintf("%d changes", m.current.ChangedCount()))
	}
	if m.loading {
		parts = append(parts, m.spin.View()+" loading")
	}

	if s := m.searchState; s.Query != "" {
		status := fmt.Sprintf("/%s: %d matches", s.Query, s.TotalMatches())
		if s.Selected >= 0 {
			status = fmt.Sprintf("/%s: %d/%d", s.Query, s.Selected+1, s.TotalMatches())
			if snip := m.selectedSnippet(); snip != "" {
				status += " » " + snip
			}
		}
		for _, f := range s.Files {
			if f.Limited {
				status += " (capped)"
				break
			}
		}
		if s.Running {
			status += " " + m.spin.View() + fmt.Sprintf(" %d/%d files", s.Searched, s.TotalFiles)
		}
		if s.Failed > 0 {
			status += m.theme.StatusError.Render(fmt.Sprintf(" %d unreadable", s.Failed))
		}
		parts = append(parts, status)
	}

	if m.err != nil {
		parts = append(parts, m.theme.StatusError.Render(m.err.Error()))
	}

	bar := " " + strings.Join(parts, "  │  ")
	bar = truncate.StringWithTail(bar, uint(m.width), "…")
	if pad := m.width - lipgloss.Width(bar); pad > 0 {
		bar += strings.Repeat(" ", pad)
	}
	return m.theme.StatusBar.Render(bar)
}

// selectedSnippet returns a display-width-bounded excerpt of the line holding
// the selected match, when that match is in the file on screen. Grapheme and
// wide-rune handling lives in search.Snippet.
func (m Model) selectedSnippet() string {
	if m.current == nil {
		return ""
	}
	path, mt, ok := m.searchState.MatchAt(m.searchState.Selected)
	if !ok || path != m.CurrentPath() || mt.Line >= len(m.current.AfterLines) {
		return ""
	}
	width := m.width / 3
	if width < 10 {
		width = 10
	}
	return strings.TrimSpace(search.Snippet(m.current.AfterLines[mt.Line], mt.Start, width))
}

// logView renders the retained log lines, newest at the bottom, for debugging
// a live session without leaving the viewer.
func (m Model) logView() string {
	avail := m.height - statusBarHeight
	if avail < 1 {
		avail = 1
	}

	lines := m.logLines
	if len(lines) > avail {
		lines = lines[len(lines)-avail:]
	}

	lineWidth := m.width - 2
	if lineWidth < 1 {
		lineWidth = 1
	}

	var b strings.Builder
	b.WriteString(m.theme.FileSelected.Render("Log"))
	if len(m.logLines) == 0 {
		b.WriteString("\n" + m.theme.Muted.Render("no entries; run with --debug to enable logging"))
	}
	for _, line := range lines {
		b.WriteString("\n" + m.theme.HelpDesc.Render(truncate.StringWithTail(line, uint(lineWidth), "…")))
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, b.String())
}

func (m Model) helpView() string {
	type row struct{ k, desc string }
	sections := []struct {
		title string
		rows  []row
	}{
		{"Scrolling", []row{
			{"j/k", "scroll down/up"},
			{"h/l", "scroll left/right"},
			{"pgup/pgdn", "page up/down"},
			{"g/G", "top/bottom"},
		}},
		{"Navigation", []row{
			{"tab", "switch pane"},
			{"J/K", "next/previous file"},
			{"]/[", "next/previous change"},
			{"f", "toggle file list"},
		}},
		{"Search", []row{
			{"/", "search across files"},
			{"ctrl+s", "toggle scope (all/changes-only)"},
			{"↑/↓", "recall recent queries"},
			{"n/N", "next/previous match"},
			{"+/-", "show more/fewer matches in file"},
		}},
		{"General", []row{
			{"c", "toggle connectors"},
			{"ctrl+l", "toggle log overlay"},
			{"?", "toggle help"},
			{"q", "quit"},
		}},
	}

	var b strings.Builder
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.theme.FileSelected.Render(sec.title) + "\n")
		for _, r := range sec.rows {
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				m.theme.HelpKey.Render(fmt.Sprintf("%-10s", r.k)),
				m.theme.HelpDesc.Render(r.desc)))
		}
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		m.theme.PaneBorder.Padding(1, 3).Render(b.String()))
}
