package search

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// DisplayColumns converts a rune column range within line into terminal cell
// columns, walking grapheme clusters so combining marks and emoji sequences
// do not split, and summing display widths so CJK and other wide runes
// highlight at the correct cells.
func DisplayColumns(line string, startRune, endRune int) (startCol, endCol int) {
	gr := uniseg.NewGraphemes(line)
	runeIdx := 0
	col := 0
	startCol, endCol = -1, -1
	for gr.Next() {
		cluster := gr.Str()
		clusterRunes := len(gr.Runes())
		if startCol < 0 && runeIdx >= startRune {
			startCol = col
		}
		if endCol < 0 && runeIdx >= endRune {
			endCol = col
		}
		runeIdx += clusterRunes
		col += runewidth.StringWidth(cluster)
	}
	if startCol < 0 {
		startCol = col
	}
	if endCol < 0 {
		endCol = col
	}
	return startCol, endCol
}

// Snippet returns line truncated to maxWidth display cells around the match
// so the result list can show context without overflowing its row.
func Snippet(line string, startRune, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	startCol, _ := DisplayColumns(line, startRune, startRune)

	// Begin a little before the match when it sits deep in the line.
	lead := maxWidth / 4
	from := startCol - lead
	if from < 0 {
		from = 0
	}

	gr := uniseg.NewGraphemes(line)
	col := 0
	var out []byte
	width := 0
	for gr.Next() {
		w := runewidth.StringWidth(gr.Str())
		if col+w <= from {
			col += w
			continue
		}
		if width+w > maxWidth {
			break
		}
		out = append(out, gr.Str()...)
		width += w
		col += w
	}
	return string(out)
}
