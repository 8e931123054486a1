package search

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"duet/internal/align"
	"duet/internal/log"
	"duet/internal/pubsub"
)

// FileContent is the per-file input to a scoped scan: the after-side line
// text and the alignment sequence used to derive the changed-line set.
type FileContent struct {
	AfterLines []string
	Alignment  align.Sequence
}

// Loader fetches diff content for one file. A cache hit is expected to return
// immediately; a miss may block while content loads.
type Loader interface {
	Load(ctx context.Context, path string) (*FileContent, error)
}

// FileResult holds one file's matches and its display pagination state.
type FileResult struct {
	Path string
	// Matches in document order; never mutated after the file is searched.
	Matches []Match
	// Limited is set when the per-file match cap truncated the scan.
	Limited bool
	// DisplayLimit is how many matches the UI currently exposes.
	DisplayLimit int
}

// State is an immutable snapshot of a search run. Every mutation publishes a
// fresh snapshot; consumers never observe a half-updated result set.
type State struct {
	Query string
	Scope Scope

	// Files holds results in file-list order; only files with at least one
	// match appear.
	Files []FileResult

	// Selected is the global match index, -1 when nothing is selected.
	Selected int

	// Progress counters. Failed counts files whose content could not be
	// loaded; they are skipped, not treated as zero-match.
	Searched   int
	TotalFiles int
	Failed     int

	Running    bool
	Generation uuid.UUID
}

// TotalMatches returns the number of matches across all files.
func (s State) TotalMatches() int {
	total := 0
	for _, f := range s.Files {
		total += len(f.Matches)
	}
	return total
}

// MatchAt resolves a global index to its file path and match.
func (s State) MatchAt(global int) (string, Match, bool) {
	if global < 0 {
		return "", Match{}, false
	}
	for _, f := range s.Files {
		if global < len(f.Matches) {
			return f.Path, f.Matches[global], true
		}
		global -= len(f.Matches)
	}
	return "", Match{}, false
}

// Config tunes the coordinator.
type Config struct {
	// MatchCap is the per-file match cap; zero means DefaultMatchCap.
	MatchCap int
	// InitialDisplay is the display limit a file starts with.
	InitialDisplay int
	// DisplayIncrement is the manual and navigation expansion step.
	DisplayIncrement int
}

// DefaultConfig returns the standard pagination parameters.
func DefaultConfig() Config {
	return Config{
		MatchCap:         DefaultMatchCap,
		InitialDisplay:   5,
		DisplayIncrement: 10,
	}
}

// Coordinator runs scoped scans across every file of a diff, in file-list
// order, and exposes one flattened, navigable ordering of the results.
// It owns its aggregated state exclusively; all reads go through snapshots.
type Coordinator struct {
	mu     sync.Mutex
	cfg    Config
	loader Loader
	paths  []string
	tracer trace.Tracer

	state  State
	gen    uuid.UUID
	cancel context.CancelFunc
	closed bool

	broker *pubsub.Broker[State]
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTracer attaches an OpenTelemetry tracer; each search run becomes a span.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

// NewCoordinator creates a coordinator over the given loader and file list.
func NewCoordinator(loader Loader, paths []string, cfg Config, opts ...Option) *Coordinator {
	if cfg.MatchCap <= 0 {
		cfg.MatchCap = DefaultMatchCap
	}
	if cfg.InitialDisplay <= 0 {
		cfg.InitialDisplay = 5
	}
	if cfg.DisplayIncrement <= 0 {
		cfg.DisplayIncrement = 10
	}
	c := &Coordinator{
		cfg:    cfg,
		loader: loader,
		paths:  append([]string(nil), paths...),
		tracer: noop.NewTracerProvider().Tracer("search"),
		broker: pubsub.NewBroker[State](),
		state:  State{Selected: -1},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe returns a channel of state snapshots scoped to ctx.
func (c *Coordinator) Subscribe(ctx context.Context) <-chan pubsub.Event[State] {
	return c.broker.Subscribe(ctx)
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// snapshotLocked copies the Files slice so later mutations (display limits,
// appended files) never alias a snapshot a consumer already holds. Match
// slices are immutable after assignment and safe to share.
func (c *Coordinator) snapshotLocked() State {
	s := c.state
	s.Files = append([]FileResult(nil), c.state.Files...)
	return s
}

func (c *Coordinator) publishLocked() {
	c.broker.Publish(pubsub.SnapshotEvent, c.snapshotLocked())
}

// SetFiles replaces the file list. The underlying diff changed, so any
// results are cleared and in-flight work is superseded.
func (c *Coordinator) SetFiles(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.paths = append([]string(nil), paths...)
	c.gen = uuid.UUID{}
	c.state = State{Selected: -1}
	c.publishLocked()
}

// Search starts a new run for query under scope, superseding any in-flight
// run. An empty query clears results rather than searching for nothing.
func (c *Coordinator) Search(ctx context.Context, query string, scope Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if query == "" {
		c.gen = uuid.UUID{}
		c.state = State{Selected: -1}
		c.publishLocked()
		return
	}

	gen := uuid.New()
	c.gen = gen
	c.state = State{
		Query:      query,
		Scope:      scope,
		Selected:   -1,
		TotalFiles: len(c.paths),
		Running:    true,
		Generation: gen,
	}
	c.publishLocked()

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	paths := c.paths
	go c.run(runCtx, gen, query, scope, paths)
}

// run processes files sequentially so progress counters stay monotonic and
// the flattened ordering is deterministic regardless of load latency.
// Partial results are published as each file completes.
func (c *Coordinator) run(ctx context.Context, gen uuid.UUID, query string, scope Scope, paths []string) {
	ctx, span := c.tracer.Start(ctx, "search.run",
		trace.WithAttributes(
			attribute.Int("search.query_len", len(query)),
			attribute.String("search.scope", scope.String()),
			attribute.Int("search.files", len(paths)),
		))
	defer span.End()

	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		content, err := c.loader.Load(ctx, path)
		if err != nil {
			log.ErrorErr(log.CatSearch, "skipping file after load failure", err, "path", path)
			if !c.recordFailure(gen) {
				return
			}
			continue
		}
		matches, limited := FindInFile(content.AfterLines, content.Alignment, query, scope, c.cfg.MatchCap)
		if !c.recordResult(gen, path, matches, limited) {
			return
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.state.Running = false
	span.SetAttributes(attribute.Int("search.matches", c.state.TotalMatches()))
	c.publishLocked()
}

// recordFailure counts a skipped file; returns false if the run is stale.
func (c *Coordinator) recordFailure(gen uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.state.Searched++
	c.state.Failed++
	c.publishLocked()
	return true
}

// recordResult stores one file's matches; returns false if the run is stale.
func (c *Coordinator) recordResult(gen uuid.UUID, path string, matches []Match, limited bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.state.Searched++
	if len(matches) > 0 {
		display := c.cfg.InitialDisplay
		if display > len(matches) {
			display = len(matches)
		}
		c.state.Files = append(c.state.Files, FileResult{
			Path:         path,
			Matches:      matches,
			Limited:      limited,
			DisplayLimit: display,
		})
	}
	c.publishLocked()
	return true
}

// Next advances the selection with wraparound and returns the new match.
func (c *Coordinator) Next() (string, Match, bool) {
	return c.step(1)
}

// Prev moves the selection backwards with wraparound.
func (c *Coordinator) Prev() (string, Match, bool) {
	return c.step(-1)
}

func (c *Coordinator) step(delta int) (string, Match, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.state.TotalMatches()
	if total == 0 {
		return "", Match{}, false
	}

	next := c.state.Selected + delta
	// Wrap in both directions; an unselected state starts from the ends.
	if c.state.Selected < 0 {
		if delta > 0 {
			next = 0
		} else {
			next = total - 1
		}
	} else {
		next = ((next % total) + total) % total
	}
	c.state.Selected = next

	// Auto-expand the target file's display limit so the UI never has to
	// orchestrate "reveal, then scroll" itself.
	remaining := next
	for i := range c.state.Files {
		f := &c.state.Files[i]
		if remaining < len(f.Matches) {
			if remaining >= f.DisplayLimit {
				grown := f.DisplayLimit + c.cfg.DisplayIncrement
				if grown < remaining+1 {
					grown = remaining + 1
				}
				if grown > len(f.Matches) {
					grown = len(f.Matches)
				}
				f.DisplayLimit = grown
			}
			break
		}
		remaining -= len(f.Matches)
	}

	c.publishLocked()
	path, m, ok := c.snapshotLocked().MatchAt(next)
	return path, m, ok
}

// Expand grows a file's display limit by the increment, capped at its match
// count.
func (c *Coordinator) Expand(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.state.Files {
		f := &c.state.Files[i]
		if f.Path != path {
			continue
		}
		f.DisplayLimit += c.cfg.DisplayIncrement
		if f.DisplayLimit > len(f.Matches) {
			f.DisplayLimit = len(f.Matches)
		}
		c.publishLocked()
		return
	}
}

// Collapse resets a file's display limit to the initial value.
func (c *Coordinator) Collapse(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.state.Files {
		f := &c.state.Files[i]
		if f.Path != path {
			continue
		}
		f.DisplayLimit = c.cfg.InitialDisplay
		if f.DisplayLimit > len(f.Matches) {
			f.DisplayLimit = len(f.Matches)
		}
		c.publishLocked()
		return
	}
}

// Close stops any in-flight search and prevents further state updates.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen = uuid.UUID{}
	c.broker.Close()
}
