// Package diffload produces alignment sequences and line content for the
// files of a diff. It is the engine's diffing and content-loading
// collaborator: it computes line-level diffs, caches per-file results, and
// watches the compared trees so a changed file swaps its alignment wholesale.
package diffload

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"duet/internal/align"
)

// BuildAlignment computes the alignment sequence between two line arrays
// using a line-granularity diff. Adjacent delete+insert runs merge into one
// changed range so a modified block becomes a single correspondence unit.
// The returned sequence tiles both sides by construction.
func BuildAlignment(beforeLines, afterLines []string) align.Sequence {
	if len(beforeLines) == 0 && len(afterLines) == 0 {
		return nil
	}

	dmp := diffmatchpatch.New()
	c1, c2, _ := dmp.DiffLinesToChars(joinLines(beforeLines), joinLines(afterLines))
	// Each rune in the char-encoded texts stands for one line, so line
	// counts fall out of rune counts without converting back to text.
	diffs := dmp.DiffMain(c1, c2, false)

	var seq align.Sequence
	b, a := 0, 0
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		n := utf8.RuneCountInString(d.Text)
		if n == 0 {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			seq = append(seq, align.Range{
				Before: align.Span{Start: b, End: b + n},
				After:  align.Span{Start: a, End: a + n},
			})
			b += n
			a += n

		case diffmatchpatch.DiffDelete:
			del := n
			ins := 0
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				ins = utf8.RuneCountInString(diffs[i+1].Text)
				i++
			}
			seq = append(seq, align.Range{
				Before:  align.Span{Start: b, End: b + del},
				After:   align.Span{Start: a, End: a + ins},
				Changed: true,
			})
			b += del
			a += ins

		case diffmatchpatch.DiffInsert:
			del := 0
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffDelete {
				del = utf8.RuneCountInString(diffs[i+1].Text)
				i++
			}
			seq = append(seq, align.Range{
				Before:  align.Span{Start: b, End: b + del},
				After:   align.Span{Start: a, End: a + n},
				Changed: true,
			})
			b += del
			a += n
		}
	}
	return seq
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// SplitLines is the inverse of joinLines for file content read from disk:
// text splits on newlines with a trailing newline producing no phantom
// final line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
