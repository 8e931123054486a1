package dualpane

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"duet/internal/align"
	"duet/internal/config"
	"duet/internal/search"
	"duet/internal/ui/styles"
)

func testTheme() styles.Theme {
	return styles.NewTheme(config.Defaults().Theme)
}

func TestPane_ClampsScroll(t *testing.T) {
	p := newPane(align.SideAfter)
	lines := make([]string, 50)
	for i := range lines {
		lines[i] = "x"
	}
	p.SetContent(lines, nil)
	p.SetSize(40, 10)

	p.SetScrollTop(-5)
	require.Zero(t, p.ScrollTop())

	p.SetScrollTop(1000)
	require.Equal(t, 40.0, p.ScrollTop(), "clamps to lines-height")

	p.SetScrollLeft(-3)
	require.Zero(t, p.ScrollLeft())
}

func TestPane_ShortContentNeverScrolls(t *testing.T) {
	p := newPane(align.SideBefore)
	p.SetContent([]string{"a", "b"}, nil)
	p.SetSize(40, 10)
	p.ScrollBy(5)
	require.Zero(t, p.ScrollTop())
}

func TestPane_FractionalTopFloorsForRendering(t *testing.T) {
	p := newPane(align.SideAfter)
	p.SetContent(make([]string, 100), nil)
	p.SetSize(40, 10)
	p.SetScrollTop(7.9)
	require.Equal(t, 7, p.topRow())
}

func TestClassifyRows(t *testing.T) {
	seq := align.Sequence{
		{Before: align.Span{Start: 0, End: 2}, After: align.Span{Start: 0, End: 2}},
		{Before: align.Span{Start: 2, End: 4}, After: align.Span{Start: 2, End: 5}, Changed: true},
		{Before: align.Span{Start: 4, End: 4}, After: align.Span{Start: 5, End: 7}, Changed: true},
	}

	after := classifyRows(seq, align.SideAfter, 7)
	require.Equal(t, rowContext, after[0])
	require.Equal(t, rowChanged, after[2])
	require.Equal(t, rowChanged, after[4])
	require.Equal(t, rowAdded, after[5], "insertion rows are additions")
	require.Equal(t, rowAdded, after[6])

	before := classifyRows(seq, align.SideBefore, 4)
	require.Equal(t, rowChanged, before[2])
	require.Equal(t, rowChanged, before[3])
}

func TestClassifyRows_DeletionSide(t *testing.T) {
	seq := align.Sequence{
		{Before: align.Span{Start: 0, End: 3}, After: align.Span{Start: 0, End: 0}, Changed: true},
	}
	before := classifyRows(seq, align.SideBefore, 3)
	for _, c := range before {
		require.Equal(t, rowRemoved, c)
	}
}

func TestPane_ViewShowsVisibleWindow(t *testing.T) {
	p := newPane(align.SideAfter)
	p.SetContent([]string{"alpha", "bravo", "charlie", "delta", "echo"}, nil)
	p.SetSize(30, 2)
	p.SetScrollTop(2)

	view := p.View(testTheme(), nil, nil)
	require.Contains(t, view, "charlie")
	require.Contains(t, view, "delta")
	require.NotContains(t, view, "alpha")
	require.NotContains(t, view, "echo")
}

func TestPane_ViewPadsPastEnd(t *testing.T) {
	p := newPane(align.SideAfter)
	p.SetContent([]string{"only"}, nil)
	p.SetSize(30, 3)

	view := p.View(testTheme(), nil, nil)
	lines := strings.Split(view, "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], "~")
}

func TestHighlightLine_SegmentsByMatch(t *testing.T) {
	theme := testTheme()
	spans := []search.Match{{Line: 0, Start: 6, End: 11}}
	out := highlightLine("hello world", spans, theme.Context, theme, nil)
	require.Contains(t, out, "world")
	require.Contains(t, out, "hello")
}
