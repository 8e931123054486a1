package diffload

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"duet/internal/align"
	"duet/internal/log"
	"duet/internal/search"
)

// FileDiff is the fully computed diff of one file: both sides' lines and the
// alignment between them. A FileDiff is immutable once built; reloads replace
// it wholesale.
type FileDiff struct {
	Path        string
	BeforeLines []string
	AfterLines  []string
	Alignment   align.Sequence
}

// ChangedCount returns the number of changed correspondence ranges.
func (d *FileDiff) ChangedCount() int {
	return len(d.Alignment.ChangedRangeIndices())
}

// DiffLoader loads the computed diff for one file of the comparison.
type DiffLoader interface {
	Load(ctx context.Context, path string) (*FileDiff, error)
}

// Loader reads both sides from a Source and diffs them on demand.
type Loader struct {
	src Source
}

func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

func (l *Loader) Load(ctx context.Context, path string) (*FileDiff, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	before, after, err := l.src.ReadPair(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return &FileDiff{
		Path:        path,
		BeforeLines: before,
		AfterLines:  after,
		Alignment:   BuildAlignment(before, after),
	}, nil
}

const (
	defaultCacheTTL     = 10 * time.Minute
	defaultCacheCleanup = 15 * time.Minute
)

// CachedLoader memoizes computed FileDiffs so re-visiting a file or searching
// across the comparison does not re-read and re-diff content. Invalidation
// drops a single entry; the watcher calls it when a file changes on disk.
type CachedLoader struct {
	inner DiffLoader
	cache *gocache.Cache
}

func NewCachedLoader(inner DiffLoader) *CachedLoader {
	return &CachedLoader{
		inner: inner,
		cache: gocache.New(defaultCacheTTL, defaultCacheCleanup),
	}
}

func (c *CachedLoader) Load(ctx context.Context, path string) (*FileDiff, error) {
	if v, ok := c.cache.Get(path); ok {
		if d, ok := v.(*FileDiff); ok {
			return d, nil
		}
	}
	d, err := c.inner.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	c.cache.Set(path, d, gocache.DefaultExpiration)
	return d, nil
}

// Invalidate drops one file's cached diff.
func (c *CachedLoader) Invalidate(path string) {
	c.cache.Delete(path)
	log.Debug(log.CatLoad, "cache invalidated", "path", path)
}

// InvalidateAll drops every cached diff.
func (c *CachedLoader) InvalidateAll() {
	c.cache.Flush()
}

// SearchAdapter exposes a DiffLoader as the match finder's content source.
type SearchAdapter struct {
	Loader DiffLoader
}

func (a SearchAdapter) Load(ctx context.Context, path string) (*search.FileContent, error) {
	d, err := a.Loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return &search.FileContent{
		AfterLines: d.AfterLines,
		Alignment:  d.Alignment,
	}, nil
}
