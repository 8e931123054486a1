package connector

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"duet/internal/align"
)

func testCfg() Config {
	return Config{LineHeight: 10, Width: 30, ViewportHeight: 100}
}

func TestBuildShapes_EmptySequence(t *testing.T) {
	require.Nil(t, BuildShapes(nil, 0, 0, testCfg()))
}

func TestBuildShapes_UnchangedRangesNeverRendered(t *testing.T) {
	seq := align.Sequence{
		{Before: align.Span{Start: 0, End: 10}, After: align.Span{Start: 0, End: 10}},
	}
	require.Empty(t, BuildShapes(seq, 0, 0, testCfg()))
}

func TestBuildShapes_Classification(t *testing.T) {
	seq := align.Sequence{
		{Before: align.Span{Start: 0, End: 2}, After: align.Span{Start: 0, End: 5}, Changed: true},
		{Before: align.Span{Start: 2, End: 4}, After: align.Span{Start: 5, End: 5}, Changed: true},
		{Before: align.Span{Start: 4, End: 4}, After: align.Span{Start: 5, End: 8}, Changed: true},
	}
	shapes := BuildShapes(seq, 0, 0, testCfg())
	require.Len(t, shapes, 3)
	require.Equal(t, KindModification, shapes[0].Kind)
	require.Equal(t, KindDeletion, shapes[1].Kind)
	require.Equal(t, KindInsertion, shapes[2].Kind)
	require.Equal(t, 0, shapes[0].RangeIndex)
	require.Equal(t, 2, shapes[2].RangeIndex)
}

func TestBuildShapes_CornerCoordinatesTrackScroll(t *testing.T) {
	seq := align.Sequence{
		{Before: align.Span{Start: 0, End: 3}, After: align.Span{Start: 0, End: 3}},
		{Before: align.Span{Start: 3, End: 5}, After: align.Span{Start: 3, End: 7}, Changed: true},
	}
	shapes := BuildShapes(seq, 10, 20, testCfg())
	require.Len(t, shapes, 1)
	sh := shapes[0]
	require.InDelta(t, 20, sh.BeforeTop, 0.001)    // 3*10 - 10
	require.InDelta(t, 40, sh.BeforeBottom, 0.001) // 5*10 - 10
	require.InDelta(t, 10, sh.AfterTop, 0.001)     // 3*10 - 20
	require.InDelta(t, 50, sh.AfterBottom, 0.001)  // 7*10 - 20
}

func TestBuildShapes_CullsOffscreenRanges(t *testing.T) {
	seq := align.Sequence{
		{Before: align.Span{Start: 0, End: 2}, After: align.Span{Start: 0, End: 2}, Changed: true},
		{Before: align.Span{Start: 2, End: 100}, After: align.Span{Start: 2, End: 100}},
		{Before: align.Span{Start: 100, End: 102}, After: align.Span{Start: 100, End: 104}, Changed: true},
	}
	// Scrolled far down: the first changed range sits above the viewport.
	shapes := BuildShapes(seq, 950, 950, testCfg())
	require.Len(t, shapes, 1)
	require.Equal(t, 2, shapes[0].RangeIndex)

	// At the top the second changed range is far below the viewport.
	shapes = BuildShapes(seq, 0, 0, testCfg())
	require.Len(t, shapes, 1)
	require.Equal(t, 0, shapes[0].RangeIndex)
}

func TestBuildShapes_InsertionCollapsesOnBeforeSide(t *testing.T) {
	seq := align.Sequence{
		{Before: align.Span{Start: 5, End: 5}, After: align.Span{Start: 5, End: 8}, Changed: true},
	}
	shapes := BuildShapes(seq, 0, 0, testCfg())
	require.Len(t, shapes, 1)
	require.Equal(t, shapes[0].BeforeTop, shapes[0].BeforeBottom,
		"insertion must collapse to a point on the before side")
	require.Greater(t, shapes[0].AfterBottom, shapes[0].AfterTop)
}

func TestBuildShapes_PathEndpoints(t *testing.T) {
	seq := align.Sequence{
		{Before: align.Span{Start: 0, End: 2}, After: align.Span{Start: 0, End: 4}, Changed: true},
	}
	shapes := BuildShapes(seq, 0, 0, testCfg())
	require.Len(t, shapes, 1)
	path := shapes[0].Path
	require.Len(t, path, 4)

	// The path is closed: each segment starts where the previous ended.
	for i := 1; i < len(path); i++ {
		require.Equal(t, path[i-1].To, path[i].From)
	}
	require.Equal(t, path[0].From, path[len(path)-1].To)

	// Top edge runs from the before edge to the after edge.
	require.Equal(t, Point{0, 0}, path[0].From)
	require.Equal(t, Point{30, 0}, path[0].To)
}

func TestCurve_At(t *testing.T) {
	c := line(Point{0, 0}, Point{10, 20})
	require.Equal(t, Point{0, 0}, c.At(0))
	require.Equal(t, Point{10, 20}, c.At(1))
	mid := c.At(0.5)
	require.InDelta(t, 5, mid.X, 0.001)
	require.InDelta(t, 10, mid.Y, 0.001)
}

func TestRasterize_FillsBetweenEdges(t *testing.T) {
	seq := align.Sequence{
		{Before: align.Span{Start: 0, End: 2}, After: align.Span{Start: 0, End: 2}, Changed: true},
	}
	cfg := Config{LineHeight: 1, Width: 8, ViewportHeight: 6}
	shapes := BuildShapes(seq, 0, 0, cfg)
	rows := Rasterize(shapes, 8, 6, Styles{})

	require.Len(t, rows, 6)
	// Rows 0-1 carry the connector; everything below is blank.
	require.Contains(t, rows[0], string(fillRune))
	require.Contains(t, rows[1], string(fillRune))
	for _, row := range rows[2:] {
		require.NotContains(t, row, string(fillRune))
	}
}

func TestRasterize_EmptyInputs(t *testing.T) {
	require.Nil(t, Rasterize(nil, 0, 5, Styles{}))
	require.Nil(t, Rasterize(nil, 5, 0, Styles{}))
	rows := Rasterize(nil, 4, 3, Styles{})
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Equal(t, "    ", row)
	}
}

func TestRasterize_StylesApplied(t *testing.T) {
	seq := align.Sequence{
		{Before: align.Span{Start: 0, End: 0}, After: align.Span{Start: 0, End: 2}, Changed: true},
	}
	cfg := Config{LineHeight: 1, Width: 6, ViewportHeight: 4}
	shapes := BuildShapes(seq, 0, 0, cfg)
	styles := Styles{Insertion: lipgloss.NewStyle().Bold(true)}
	rows := Rasterize(shapes, 6, 4, styles)
	require.Len(t, rows, 4)
	require.Contains(t, rows[0], string(fillRune))
}
