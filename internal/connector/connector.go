// Package connector computes the visual shapes drawn between corresponding
// changed regions of a dual-pane diff. Each changed alignment range yields a
// shape spanning the gutter between the panes, positioned against the current
// scroll offset of each side. The pass is stateless and cheap enough to run
// on every scroll or resize tick.
package connector

import "duet/internal/align"

// Kind classifies a connector shape.
type Kind int

const (
	// KindModification connects two non-empty spans.
	KindModification Kind = iota
	// KindInsertion collapses to a point on the before side.
	KindInsertion
	// KindDeletion collapses to a point on the after side.
	KindDeletion
)

func (k Kind) String() string {
	switch k {
	case KindModification:
		return "modification"
	case KindInsertion:
		return "insertion"
	case KindDeletion:
		return "deletion"
	default:
		return "unknown"
	}
}

// Point is a position in gutter coordinates: x runs from 0 (before pane edge)
// to Config.Width (after pane edge); y is pixels from the top of the viewport.
type Point struct {
	X, Y float64
}

// Curve is a cubic bezier segment. Straight edges are expressed as curves
// with control points on the line so a path is always four segments.
type Curve struct {
	From, C1, C2, To Point
}

// Shape is one connector: a closed path of four curves plus the raw corner
// coordinates for hosts that want to rasterize directly.
type Shape struct {
	Kind       Kind
	RangeIndex int

	// Corner y-coordinates in viewport pixels.
	BeforeTop    float64
	BeforeBottom float64
	AfterTop     float64
	AfterBottom  float64

	// Path is the closed outline: top edge, after-side edge, bottom edge
	// (reversed), before-side edge.
	Path []Curve
}

// Config holds the geometry parameters for shape construction.
type Config struct {
	// LineHeight is the pixel height of one text line.
	LineHeight float64
	// Width is the gutter width between the two panes.
	Width float64
	// ViewportHeight is the visible height used for culling.
	ViewportHeight float64
}

// DefaultConfig returns the standard connector geometry.
func DefaultConfig() Config {
	return Config{LineHeight: 20, Width: 40, ViewportHeight: 600}
}

// BuildShapes computes connector shapes for every changed range that
// intersects the viewport. Unchanged ranges are never rendered; ranges fully
// above or below the viewport are culled before any path construction.
func BuildShapes(seq align.Sequence, beforeScroll, afterScroll float64, cfg Config) []Shape {
	if len(seq) == 0 || cfg.LineHeight <= 0 {
		return nil
	}

	var shapes []Shape
	for i, r := range seq {
		if !r.Changed {
			continue
		}

		bt := float64(r.Before.Start)*cfg.LineHeight - beforeScroll
		bb := float64(r.Before.End)*cfg.LineHeight - beforeScroll
		at := float64(r.After.Start)*cfg.LineHeight - afterScroll
		ab := float64(r.After.End)*cfg.LineHeight - afterScroll

		if max4(bt, bb, at, ab) < 0 || min4(bt, bb, at, ab) > cfg.ViewportHeight {
			continue
		}

		kind := KindModification
		switch {
		case r.Before.Empty():
			kind = KindInsertion
		case r.After.Empty():
			kind = KindDeletion
		}

		shapes = append(shapes, Shape{
			Kind:         kind,
			RangeIndex:   i,
			BeforeTop:    bt,
			BeforeBottom: bb,
			AfterTop:     at,
			AfterBottom:  ab,
			Path:         buildPath(bt, bb, at, ab, cfg.Width),
		})
	}
	return shapes
}

// buildPath constructs the closed outline. The horizontal edges are smooth
// S-curves with control points at mid-gutter so the connector reads as a flow
// between the sides rather than a rigid box.
func buildPath(bt, bb, at, ab, width float64) []Curve {
	mid := width / 2
	topLeft := Point{0, bt}
	topRight := Point{width, at}
	bottomRight := Point{width, ab}
	bottomLeft := Point{0, bb}

	return []Curve{
		{From: topLeft, C1: Point{mid, bt}, C2: Point{mid, at}, To: topRight},
		line(topRight, bottomRight),
		{From: bottomRight, C1: Point{mid, ab}, C2: Point{mid, bb}, To: bottomLeft},
		line(bottomLeft, topLeft),
	}
}

func line(from, to Point) Curve {
	third := Point{from.X + (to.X-from.X)/3, from.Y + (to.Y-from.Y)/3}
	twoThird := Point{from.X + 2*(to.X-from.X)/3, from.Y + 2*(to.Y-from.Y)/3}
	return Curve{From: from, C1: third, C2: twoThird, To: to}
}

// At evaluates the curve at parameter t in [0, 1].
func (c Curve) At(t float64) Point {
	u := 1 - t
	return Point{
		X: u*u*u*c.From.X + 3*u*u*t*c.C1.X + 3*u*t*t*c.C2.X + t*t*t*c.To.X,
		Y: u*u*u*c.From.Y + 3*u*u*t*c.C1.Y + 3*u*t*t*c.C2.Y + t*t*t*c.To.Y,
	}
}

func max4(a, b, c, d float64) float64 { return max(max(a, b), max(c, d)) }
func min4(a, b, c, d float64) float64 { return min(min(a, b), min(c, d)) }
