// Package scrollsync keeps two independently-scrollable panes positionally
// consistent against an alignment model. The engine works in pixel units with
// a configurable line height; the terminal host uses a line height of 1 cell.
//
// Two feedback hazards are handled explicitly. Setting a pane's scroll
// position programmatically produces an echo scroll event, which is detected
// by comparing against the last value the engine set on that pane. And when
// both panes emit near-simultaneous events, the pane the user is actively
// scrolling holds primary ownership for a short window during which the other
// pane's events are ignored.
package scrollsync

import (
	"math"
	"time"

	"duet/internal/align"
	"duet/internal/log"
)

// Pane is a scrollable viewport the engine reads from and writes to.
// Scroll positions are pixel offsets from the top/left of the content.
type Pane interface {
	ScrollTop() float64
	SetScrollTop(float64)
	ScrollLeft() float64
	SetScrollLeft(float64)
	ViewportHeight() float64
}

// Clock abstracts time for the primary-pane handoff window.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// Config holds the engine's tuning parameters.
type Config struct {
	// LineHeight is the pixel height of one text line.
	LineHeight float64
	// AnchorFraction is the vertical fraction of the viewport used as the
	// reference point for mapping. One third keeps context visible above
	// and below the anchored line.
	AnchorFraction float64
	// UpdateThreshold is the minimum pixel delta that results in a scroll
	// mutation on the target pane.
	UpdateThreshold float64
	// EchoTolerance is the maximum distance from the last program-set value
	// at which an incoming event is treated as the engine's own echo.
	EchoTolerance float64
	// PrimaryTimeout is the scroll-inactivity window during which the
	// non-primary pane's events are ignored.
	PrimaryTimeout time.Duration
}

// DefaultConfig returns the standard engine parameters.
func DefaultConfig() Config {
	return Config{
		LineHeight:      20,
		AnchorFraction:  1.0 / 3.0,
		UpdateThreshold: 2,
		EchoTolerance:   3,
		PrimaryTimeout:  150 * time.Millisecond,
	}
}

// primaryState tracks which pane currently owns scroll-sync direction.
type primaryState int

const (
	primaryIdle primaryState = iota
	primaryBefore
	primaryAfter
)

func primaryFor(side align.Side) primaryState {
	if side == align.SideBefore {
		return primaryBefore
	}
	return primaryAfter
}

// Engine synchronizes a pair of panes against an alignment sequence.
// It is single-owner state driven from the UI event loop; it is not safe for
// concurrent use.
type Engine struct {
	cfg   Config
	clock Clock

	seq align.Sequence

	state        primaryState
	lastActivity time.Time
	disabled     bool

	// Last program-set pixel values per side, NaN when nothing is pending.
	lastSetTop  [2]float64
	lastSetLeft [2]float64
}

// NewEngine creates an engine with the given config and a real clock.
func NewEngine(cfg Config) *Engine {
	return NewEngineWithClock(cfg, RealClock{})
}

// NewEngineWithClock creates an engine with an injected clock for tests.
func NewEngineWithClock(cfg Config, clock Clock) *Engine {
	e := &Engine{cfg: cfg, clock: clock}
	e.resetTracking()
	return e
}

// SetAlignment replaces the alignment model and resets all tracking state.
// Pixel bookkeeping from a previous file is meaningless after content changes,
// so the reset is unconditional and atomic.
func (e *Engine) SetAlignment(seq align.Sequence) {
	e.seq = seq
	e.resetTracking()
}

// Disable locks the engine; OnScroll becomes a no-op until Enable is called.
func (e *Engine) Disable() {
	e.disabled = true
	e.resetTracking()
}

// Enable releases a Disable lock.
func (e *Engine) Enable() {
	e.disabled = false
}

func (e *Engine) resetTracking() {
	e.state = primaryIdle
	e.lastActivity = time.Time{}
	for i := range e.lastSetTop {
		e.lastSetTop[i] = math.NaN()
		e.lastSetLeft[i] = math.NaN()
	}
}

// OnScroll handles a scroll event on the pane identified by side, mapping its
// anchor row through the alignment model and repositioning the target pane.
// Returns whether any scroll position was applied to the target.
func (e *Engine) OnScroll(side align.Side, source, target Pane) bool {
	if e.disabled || len(e.seq) == 0 {
		return false
	}

	// Echo suppression: an event near the value the engine itself just set
	// is the program's own echo, not user input.
	if last := e.lastSetTop[side]; !math.IsNaN(last) {
		if math.Abs(source.ScrollTop()-last) <= e.cfg.EchoTolerance {
			e.lastSetTop[side] = math.NaN()
			return false
		}
		e.lastSetTop[side] = math.NaN()
	}

	if !e.claimPrimary(side) {
		return false
	}

	applied := e.syncVertical(side, source, target)
	if e.syncHorizontal(side, source, target) {
		applied = true
	}
	return applied
}

// claimPrimary applies the primary-pane state machine: the first pane to
// scroll becomes primary, the other pane's events are ignored until the
// inactivity window elapses and ownership reverts to idle.
func (e *Engine) claimPrimary(side align.Side) bool {
	now := e.clock.Now()
	if e.state != primaryIdle && now.Sub(e.lastActivity) >= e.cfg.PrimaryTimeout {
		e.state = primaryIdle
	}
	want := primaryFor(side)
	if e.state != primaryIdle && e.state != want {
		return false
	}
	e.state = want
	e.lastActivity = now
	return true
}

func (e *Engine) syncVertical(side align.Side, source, target Pane) bool {
	lh := e.cfg.LineHeight
	if lh <= 0 {
		return false
	}

	// Anchor position of the source viewport, as a fractional row.
	srcAnchor := source.ViewportHeight() * e.cfg.AnchorFraction
	srcPx := source.ScrollTop() + srcAnchor
	row := int(math.Floor(srcPx / lh))
	remainder := srcPx - float64(row)*lh

	mapped := e.seq.MapRow(side, row)
	scale := e.seq.SubRowScale(side, row)

	tgtAnchor := target.ViewportHeight() * e.cfg.AnchorFraction
	tgtPx := float64(mapped)*lh + remainder*scale - tgtAnchor
	if tgtPx < 0 {
		tgtPx = 0
	}

	delta := math.Abs(tgtPx - target.ScrollTop())
	if delta < e.cfg.UpdateThreshold {
		return false
	}

	other := side.Other()
	e.lastSetTop[other] = tgtPx
	target.SetScrollTop(tgtPx)
	log.Debug(log.CatSync, "vertical sync applied",
		"source", side, "row", row, "mapped", mapped, "target_px", tgtPx)
	return true
}

// syncHorizontal mirrors the source's horizontal offset 1:1; there is no
// alignment mapping across columns.
func (e *Engine) syncHorizontal(side align.Side, source, target Pane) bool {
	h := source.ScrollLeft()
	if math.Abs(h-target.ScrollLeft()) < e.cfg.UpdateThreshold {
		return false
	}
	other := side.Other()
	e.lastSetLeft[other] = h
	target.SetScrollLeft(h)
	return true
}

// ScrollToRow performs a one-shot programmatic jump, positioning row at the
// anchor fraction of its pane and the mapped row likewise in the other pane.
// Both positions are recorded as program-set so their echo events are
// suppressed.
func (e *Engine) ScrollToRow(row int, side align.Side, before, after Pane) {
	if len(e.seq) == 0 {
		return
	}
	lh := e.cfg.LineHeight

	src, tgt := before, after
	if side == align.SideAfter {
		src, tgt = after, before
	}

	srcPx := float64(row)*lh - src.ViewportHeight()*e.cfg.AnchorFraction
	if srcPx < 0 {
		srcPx = 0
	}
	mapped := e.seq.MapRow(side, row)
	tgtPx := float64(mapped)*lh - tgt.ViewportHeight()*e.cfg.AnchorFraction
	if tgtPx < 0 {
		tgtPx = 0
	}

	// Record before applying so the echo check never races the event.
	e.lastSetTop[side] = srcPx
	e.lastSetTop[side.Other()] = tgtPx
	src.SetScrollTop(srcPx)
	tgt.SetScrollTop(tgtPx)
	e.state = primaryIdle
	log.Debug(log.CatSync, "jump applied", "row", row, "side", side, "mapped", mapped)
}
