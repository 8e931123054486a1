package connector

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles selects the fill styling per shape kind when rasterizing into a
// terminal gutter column.
type Styles struct {
	Modification lipgloss.Style
	Insertion    lipgloss.Style
	Deletion     lipgloss.Style
}

func (s Styles) forKind(k Kind) lipgloss.Style {
	switch k {
	case KindInsertion:
		return s.Insertion
	case KindDeletion:
		return s.Deletion
	default:
		return s.Modification
	}
}

const fillRune = '░'

// Rasterize renders shapes into a gutter column of the given cell dimensions,
// sampling each shape's top and bottom edge curves per column and filling the
// cells between them. Later shapes win where shapes overlap, matching their
// order in the sequence. Returns one string per row.
func Rasterize(shapes []Shape, width, height int, styles Styles) []string {
	if width <= 0 || height <= 0 {
		return nil
	}

	grid := make([][]rune, height)
	kinds := make([][]Kind, height)
	filled := make([][]bool, height)
	for y := range grid {
		grid[y] = make([]rune, width)
		kinds[y] = make([]Kind, width)
		filled[y] = make([]bool, width)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	for _, sh := range shapes {
		if len(sh.Path) < 3 {
			continue
		}
		top := sh.Path[0]
		bottom := sh.Path[2] // runs right-to-left
		for x := 0; x < width; x++ {
			t := 0.5
			if width > 1 {
				t = float64(x) / float64(width-1)
			}
			yTop := top.At(t).Y
			yBottom := bottom.At(1 - t).Y
			if yBottom < yTop {
				yTop, yBottom = yBottom, yTop
			}
			rowStart := int(math.Floor(yTop))
			rowEnd := int(math.Ceil(yBottom))
			if rowEnd == rowStart {
				rowEnd = rowStart + 1 // collapsed edge still marks its row
			}
			for y := rowStart; y < rowEnd; y++ {
				if y < 0 || y >= height {
					continue
				}
				grid[y][x] = fillRune
				kinds[y][x] = sh.Kind
				filled[y][x] = true
			}
		}
	}

	rows := make([]string, height)
	for y := 0; y < height; y++ {
		var sb strings.Builder
		x := 0
		for x < width {
			if !filled[y][x] {
				sb.WriteRune(grid[y][x])
				x++
				continue
			}
			// Batch a run of same-kind cells into one styled segment.
			kind := kinds[y][x]
			start := x
			for x < width && filled[y][x] && kinds[y][x] == kind {
				x++
			}
			sb.WriteString(styles.forKind(kind).Render(strings.Repeat(string(fillRune), x-start)))
		}
		rows[y] = sb.String()
	}
	return rows
}
