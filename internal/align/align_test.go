package align

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// seq builds a Sequence from (beforeLen, afterLen, changed) triples, computing
// contiguous span offsets so every built sequence satisfies the tiling
// invariant by construction.
func seq(parts ...[3]int) Sequence {
	var q Sequence
	b, a := 0, 0
	for _, p := range parts {
		q = append(q, Range{
			Before:  Span{Start: b, End: b + p[0]},
			After:   Span{Start: a, End: a + p[1]},
			Changed: p[2] == 1,
		})
		b += p[0]
		a += p[1]
	}
	return q
}

func TestSpan_LenEmptyContains(t *testing.T) {
	s := Span{Start: 3, End: 7}
	require.Equal(t, 4, s.Len())
	require.False(t, s.Empty())
	require.True(t, s.Contains(3))
	require.True(t, s.Contains(6))
	require.False(t, s.Contains(7))
	require.False(t, s.Contains(2))

	empty := Span{Start: 5, End: 5}
	require.True(t, empty.Empty())
	require.False(t, empty.Contains(5))
}

func TestSide_Other(t *testing.T) {
	require.Equal(t, SideAfter, SideBefore.Other())
	require.Equal(t, SideBefore, SideAfter.Other())
}

func TestSequence_Validate(t *testing.T) {
	tests := []struct {
		name    string
		q       Sequence
		wantErr bool
	}{
		{"empty sequence", nil, false},
		{"single unchanged", seq([3]int{5, 5, 0}), false},
		{"mixed", seq([3]int{5, 5, 0}, [3]int{2, 4, 1}, [3]int{3, 3, 0}), false},
		{"pure insertion", seq([3]int{5, 5, 0}, [3]int{0, 3, 1}), false},
		{"pure deletion", seq([3]int{5, 5, 0}, [3]int{3, 0, 1}), false},
		{
			name: "gap on before side",
			q: Sequence{
				{Before: Span{0, 5}, After: Span{0, 5}},
				{Before: Span{6, 8}, After: Span{5, 7}},
			},
			wantErr: true,
		},
		{
			name: "nonzero start",
			q: Sequence{
				{Before: Span{1, 5}, After: Span{0, 4}},
			},
			wantErr: true,
		},
		{
			name: "unchanged with unequal spans",
			q: Sequence{
				{Before: Span{0, 5}, After: Span{0, 3}, Changed: false},
			},
			wantErr: true,
		},
		{
			name: "negative-size span",
			q: Sequence{
				{Before: Span{0, 0}, After: Span{0, 0}},
				{Before: Span{0, -1}, After: Span{0, 0}, Changed: true},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSequence_Total(t *testing.T) {
	q := seq([3]int{5, 5, 0}, [3]int{2, 4, 1})
	require.Equal(t, 7, q.Total(SideBefore))
	require.Equal(t, 9, q.Total(SideAfter))
	require.Equal(t, 0, Sequence(nil).Total(SideBefore))
}

func TestSequence_RangeAt(t *testing.T) {
	q := seq([3]int{5, 5, 0}, [3]int{2, 4, 1}, [3]int{3, 3, 0})

	require.Equal(t, 0, q.RangeAt(SideBefore, 0))
	require.Equal(t, 0, q.RangeAt(SideBefore, 4))
	require.Equal(t, 1, q.RangeAt(SideBefore, 5))
	require.Equal(t, 1, q.RangeAt(SideBefore, 6))
	require.Equal(t, 2, q.RangeAt(SideBefore, 7))
	require.Equal(t, 1, q.RangeAt(SideAfter, 8))

	// Rows past all ranges clamp to the last range.
	require.Equal(t, 2, q.RangeAt(SideBefore, 100))
	// Negative rows clamp to the first.
	require.Equal(t, 0, q.RangeAt(SideBefore, -3))
	// Empty sequence has no range.
	require.Equal(t, -1, Sequence(nil).RangeAt(SideBefore, 0))
}

func TestSequence_MapRow_BoundaryExactness(t *testing.T) {
	q := seq([3]int{5, 5, 0}, [3]int{2, 4, 1}, [3]int{3, 3, 0}, [3]int{0, 2, 1}, [3]int{1, 1, 0})
	require.NoError(t, q.Validate())

	for _, r := range q {
		if !r.Before.Empty() {
			require.Equal(t, r.After.Start, q.MapRow(SideBefore, r.Before.Start),
				"before start %d must map to after start", r.Before.Start)
		}
		if !r.After.Empty() {
			require.Equal(t, r.Before.Start, q.MapRow(SideAfter, r.After.Start),
				"after start %d must map to before start", r.After.Start)
		}
	}
}

func TestSequence_MapRow_ProportionalCollapse(t *testing.T) {
	// A 9-line before span maps into a 1-line after span: every interior row
	// collapses onto the single target line.
	q := seq([3]int{9, 1, 1})
	for row := 0; row < 9; row++ {
		require.Equal(t, 0, q.MapRow(SideBefore, row), "row %d", row)
	}
	// The reverse mapping is ambiguous by design but must stay in range.
	got := q.MapRow(SideAfter, 0)
	require.GreaterOrEqual(t, got, 0)
	require.Less(t, got, 9)
}

func TestSequence_MapRow_PureInsertion(t *testing.T) {
	// before=[5,5), after=[5,8): any row inside the insertion maps to the
	// collapse point at before row 5.
	q := seq([3]int{5, 5, 0}, [3]int{0, 3, 1}, [3]int{2, 2, 0})
	require.Equal(t, 5, q.MapRow(SideAfter, 5))
	require.Equal(t, 5, q.MapRow(SideAfter, 6))
	require.Equal(t, 5, q.MapRow(SideAfter, 7))
}

func TestSequence_MapRow_PureDeletion(t *testing.T) {
	q := seq([3]int{5, 5, 0}, [3]int{3, 0, 1}, [3]int{2, 2, 0})
	// Rows inside the deletion clamp to the empty after span's start.
	require.Equal(t, 5, q.MapRow(SideBefore, 5))
	require.Equal(t, 5, q.MapRow(SideBefore, 7))
	// The unchanged range after the deletion still maps exactly.
	require.Equal(t, 5, q.MapRow(SideBefore, 8))
	require.Equal(t, 6, q.MapRow(SideBefore, 9))
}

func TestSequence_MapRow_ExtrapolationPastEnd(t *testing.T) {
	q := seq([3]int{5, 5, 0}, [3]int{2, 4, 1})
	// before total = 7, after total = 9. Past-the-end rows extrapolate by
	// constant offset from each side's end.
	require.Equal(t, 9, q.MapRow(SideBefore, 7))
	require.Equal(t, 11, q.MapRow(SideBefore, 9))
	require.Equal(t, 7, q.MapRow(SideAfter, 9))
	require.Equal(t, 8, q.MapRow(SideAfter, 10))
}

func TestSequence_MapRow_EmptySequence(t *testing.T) {
	var q Sequence
	require.Equal(t, 7, q.MapRow(SideBefore, 7))
}

func TestSequence_MapRow_NegativeRowClamps(t *testing.T) {
	q := seq([3]int{5, 5, 0})
	require.Equal(t, 0, q.MapRow(SideBefore, -10))
}

func TestSequence_SubRowScale(t *testing.T) {
	q := seq(
		[3]int{5, 5, 0}, // unchanged
		[3]int{2, 4, 1}, // changed, 2:4
		[3]int{0, 3, 1}, // insertion
		[3]int{3, 0, 1}, // deletion
	)

	require.Equal(t, 1.0, q.SubRowScale(SideBefore, 0), "unchanged carries remainder unscaled")
	require.Equal(t, 2.0, q.SubRowScale(SideBefore, 5), "2-line span mapping into 4 lines")
	require.Equal(t, 0.5, q.SubRowScale(SideAfter, 5), "4-line span mapping into 2 lines")
	require.Equal(t, 0.0, q.SubRowScale(SideAfter, 9), "empty source span drops remainder")
	require.Equal(t, 0.0, q.SubRowScale(SideBefore, 7), "empty target span drops remainder")
	require.Equal(t, 1.0, q.SubRowScale(SideBefore, 100), "past end carries remainder through")
}

func TestSequence_ChangedLines(t *testing.T) {
	// 100-line file where after lines 40-45 are inside the only changed range.
	q := seq([3]int{40, 40, 0}, [3]int{4, 6, 1}, [3]int{54, 54, 0})
	changed := q.ChangedLines(SideAfter)
	require.Len(t, changed, 6)
	for row := 40; row < 46; row++ {
		require.Contains(t, changed, row)
	}
	require.NotContains(t, changed, 39)
	require.NotContains(t, changed, 46)
}

func TestSequence_ChangedRangeIndices(t *testing.T) {
	q := seq([3]int{5, 5, 0}, [3]int{2, 4, 1}, [3]int{3, 3, 0}, [3]int{0, 2, 1})
	require.Equal(t, []int{1, 3}, q.ChangedRangeIndices())
}

// genSequence draws a random valid Sequence. Unchanged ranges get equal span
// sizes; changed ranges get independent sizes with at least one side nonempty.
func genSequence(rt *rapid.T) Sequence {
	n := rapid.IntRange(1, 12).Draw(rt, "ranges")
	var q Sequence
	b, a := 0, 0
	for i := 0; i < n; i++ {
		changed := rapid.Bool().Draw(rt, "changed")
		var bl, al int
		if changed {
			bl = rapid.IntRange(0, 9).Draw(rt, "beforeLen")
			if bl == 0 {
				al = rapid.IntRange(1, 9).Draw(rt, "afterLen")
			} else {
				al = rapid.IntRange(0, 9).Draw(rt, "afterLen")
			}
		} else {
			bl = rapid.IntRange(1, 9).Draw(rt, "len")
			al = bl
		}
		q = append(q, Range{
			Before:  Span{Start: b, End: b + bl},
			After:   Span{Start: a, End: a + al},
			Changed: changed,
		})
		b += bl
		a += al
	}
	return q
}

func TestSequence_Property_GeneratedSequencesTile(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		q := genSequence(rt)
		require.NoError(rt, q.Validate())
	})
}

func TestSequence_Property_MappedRowInTargetRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		q := genSequence(rt)
		for _, side := range []Side{SideBefore, SideAfter} {
			total := q.Total(side)
			if total == 0 {
				continue
			}
			row := rapid.IntRange(0, total-1).Draw(rt, "row")
			mapped := q.MapRow(side, row)
			r := q[q.RangeAt(side, row)]
			tgt := r.Span(side.Other())
			if tgt.Empty() {
				require.Equal(rt, tgt.Start, mapped)
			} else {
				require.GreaterOrEqual(rt, mapped, tgt.Start)
				require.Less(rt, mapped, tgt.End)
			}
		}
	})
}

func TestSequence_Property_BoundaryRoundTrip(t *testing.T) {
	// Mapping before -> after -> before for a range-start row returns the
	// original row whenever neither span is empty.
	rapid.Check(t, func(rt *rapid.T) {
		q := genSequence(rt)
		for _, r := range q {
			if r.Before.Empty() || r.After.Empty() {
				continue
			}
			there := q.MapRow(SideBefore, r.Before.Start)
			back := q.MapRow(SideAfter, there)
			require.Equal(rt, r.Before.Start, back)
		}
	})
}

func BenchmarkSequence_MapRow(b *testing.B) {
	var q Sequence
	off := 0
	for i := 0; i < 200; i++ {
		q = append(q, Range{
			Before:  Span{Start: off, End: off + 10},
			After:   Span{Start: off, End: off + 10},
			Changed: i%3 == 0,
		})
		off += 10
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.MapRow(SideBefore, (i*37)%2000)
	}
}
