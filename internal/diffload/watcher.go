package diffload

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"duet/internal/log"
	"duet/internal/pubsub"
)

// Change reports that a file of the comparison changed on disk and its
// cached diff is no longer valid.
type Change struct {
	// Path is comparison-relative, matching the file list.
	Path string
	// Removed is set when the file disappeared from the side it lived on.
	Removed bool
}

// Watcher follows both sides of a directory comparison and invalidates the
// cache when files change, then broadcasts the change so the UI can reload
// whatever it currently displays.
type Watcher struct {
	fsw    *fsnotify.Watcher
	cache  *CachedLoader
	broker *pubsub.Broker[Change]
	roots  []string
}

// NewWatcher starts watching both roots of src recursively. It only supports
// directory sources; file-pair comparisons watch the two files directly.
func NewWatcher(src *DirSource, cache *CachedLoader) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:    fsw,
		cache:  cache,
		broker: pubsub.NewBroker[Change](),
		roots:  []string{src.BeforeRoot, src.AfterRoot},
	}
	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// Subscribe returns a channel of change notifications scoped to ctx.
func (w *Watcher) Subscribe(ctx context.Context) <-chan pubsub.Event[Change] {
	return w.broker.Subscribe(ctx)
}

// Run pumps filesystem events until ctx is done. It is meant to be launched
// as a goroutine next to the UI program.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatch, "filesystem watcher error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// New directories need a watch of their own before anything inside them
	// is visible.
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				log.ErrorErr(log.CatWatch, "watching new directory", err, "path", ev.Name)
			}
			return
		}
	}

	rel, ok := w.relPath(ev.Name)
	if !ok {
		return
	}
	w.cache.Invalidate(rel)
	log.Debug(log.CatWatch, "file changed", "path", rel, "op", ev.Op.String())
	w.broker.Publish(pubsub.InvalidatedEvent, Change{
		Path:    rel,
		Removed: ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0,
	})
}

// relPath maps an absolute event path back to a comparison-relative path by
// trying each root in turn.
func (w *Watcher) relPath(name string) (string, bool) {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, name)
		if err != nil || rel == ".." || filepath.IsAbs(rel) {
			continue
		}
		if len(rel) >= 2 && rel[:2] == ".." {
			continue
		}
		return filepath.ToSlash(rel), true
	}
	return "", false
}

// Close stops the filesystem watcher and the broadcast channel.
func (w *Watcher) Close() error {
	w.broker.Close()
	return w.fsw.Close()
}
