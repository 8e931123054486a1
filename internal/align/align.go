// Package align defines the line correspondence model for one file's diff:
// which lines on the "before" side of a dual-pane view correspond to which
// lines on the "after" side, and how a row on one side maps to the other.
package align

import "fmt"

// Side identifies one of the two panes of a diff.
type Side int

const (
	// SideBefore is the old version of the file (left pane).
	SideBefore Side = iota
	// SideAfter is the new version of the file (right pane).
	SideAfter
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideBefore {
		return SideAfter
	}
	return SideBefore
}

func (s Side) String() string {
	if s == SideBefore {
		return "before"
	}
	return "after"
}

// Span is a half-open interval [Start, End) of zero-based line indices on one
// side of a diff. Start == End denotes an empty span (no lines on that side).
type Span struct {
	Start int
	End   int
}

// Len returns the number of lines covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Empty reports whether the span covers no lines.
func (s Span) Empty() bool { return s.Start == s.End }

// Contains reports whether row lies within the span.
func (s Span) Contains(row int) bool { return row >= s.Start && row < s.End }

// Range is one unit of correspondence between the two sides.
// Changed == false means identical content with an equal-size 1:1 mapping;
// Changed == true means a diff hunk whose spans may differ in size
// (insertion: Before empty; deletion: After empty).
type Range struct {
	Before  Span
	After   Span
	Changed bool
}

// Span returns the range's span on the given side.
func (r Range) Span(side Side) Span {
	if side == SideBefore {
		return r.Before
	}
	return r.After
}

// Sequence is the ordered list of Ranges for one file. Consecutive ranges are
// contiguous on both sides, tiling each side's line space from zero to its
// total line count with no gaps or overlaps. A Sequence is immutable once
// built: it is replaced wholesale when the file changes, never mutated.
type Sequence []Range

// Total returns the total line count on the given side.
func (q Sequence) Total(side Side) int {
	if len(q) == 0 {
		return 0
	}
	return q[len(q)-1].Span(side).End
}

// Validate checks the tiling invariant: both sides start at zero and every
// consecutive pair of ranges is contiguous, and unchanged ranges have
// equal-size spans.
func (q Sequence) Validate() error {
	if len(q) == 0 {
		return nil
	}
	if q[0].Before.Start != 0 || q[0].After.Start != 0 {
		return fmt.Errorf("sequence must start at line 0 on both sides, got before=%d after=%d",
			q[0].Before.Start, q[0].After.Start)
	}
	for i, r := range q {
		if r.Before.Start > r.Before.End || r.After.Start > r.After.End {
			return fmt.Errorf("range %d has negative-size span", i)
		}
		if !r.Changed && r.Before.Len() != r.After.Len() {
			return fmt.Errorf("unchanged range %d has unequal spans (%d vs %d lines)",
				i, r.Before.Len(), r.After.Len())
		}
		if i == 0 {
			continue
		}
		prev := q[i-1]
		if r.Before.Start != prev.Before.End {
			return fmt.Errorf("range %d not contiguous on before side: %d != %d",
				i, r.Before.Start, prev.Before.End)
		}
		if r.After.Start != prev.After.End {
			return fmt.Errorf("range %d not contiguous on after side: %d != %d",
				i, r.After.Start, prev.After.End)
		}
	}
	return nil
}

// RangeAt returns the index of the range containing row on the given side.
// A row at or past the end of all ranges resolves to the last range, which
// tolerates off-by-one scroll positions at end-of-file; rows before the first
// range clamp to index 0. Returns -1 only for an empty sequence.
func (q Sequence) RangeAt(side Side, row int) int {
	if len(q) == 0 {
		return -1
	}
	if row < 0 {
		return 0
	}
	for i, r := range q {
		if r.Span(side).Contains(row) {
			return i
		}
	}
	return len(q) - 1
}

// MapRow maps a row on the source side to the corresponding row on the other
// side. Boundaries map exactly to boundaries; rows strictly inside a range map
// proportionally (floor), clamped below the target span's end; rows past the
// end of all ranges extrapolate by constant offset from the last range's end.
// An empty source span maps to the target span's start, as does any row whose
// target span is empty.
func (q Sequence) MapRow(side Side, row int) int {
	if len(q) == 0 {
		return row
	}
	if row < 0 {
		row = 0
	}

	total := q.Total(side)
	if row >= total {
		// Constant-offset extrapolation past end-of-file.
		return q.Total(side.Other()) + (row - total)
	}

	idx := q.RangeAt(side, row)
	r := q[idx]
	src := r.Span(side)
	tgt := r.Span(side.Other())

	switch {
	case src.Empty():
		return tgt.Start
	case tgt.Empty():
		return tgt.Start
	case row == src.Start:
		return tgt.Start
	default:
		offset := (row - src.Start) * tgt.Len() / src.Len()
		mapped := tgt.Start + offset
		if mapped > tgt.End-1 {
			mapped = tgt.End - 1
		}
		return mapped
	}
}

// SubRowScale returns the factor by which a sub-row pixel remainder should be
// scaled when mapping row from the given side to the other. Unchanged ranges
// carry the remainder through unscaled; changed ranges scale it by the ratio
// of target span size to source span size; an empty target span drops the
// remainder entirely (no finer resolution exists on that side).
func (q Sequence) SubRowScale(side Side, row int) float64 {
	if len(q) == 0 {
		return 1
	}
	if row < 0 || row >= q.Total(side) {
		return 1
	}
	r := q[q.RangeAt(side, row)]
	src := r.Span(side)
	tgt := r.Span(side.Other())
	if !r.Changed {
		return 1
	}
	if tgt.Empty() || src.Empty() {
		return 0
	}
	return float64(tgt.Len()) / float64(src.Len())
}

// ChangedLines expands every changed range's span on the given side into a set
// of individual line indices, for scope-restricted search.
func (q Sequence) ChangedLines(side Side) map[int]struct{} {
	lines := make(map[int]struct{})
	for _, r := range q {
		if !r.Changed {
			continue
		}
		sp := r.Span(side)
		for row := sp.Start; row < sp.End; row++ {
			lines[row] = struct{}{}
		}
	}
	return lines
}

// ChangedRangeIndices returns the indices of all changed ranges in order,
// used for hunk next/previous navigation.
func (q Sequence) ChangedRangeIndices() []int {
	var out []int
	for i, r := range q {
		if r.Changed {
			out = append(out, i)
		}
	}
	return out
}
