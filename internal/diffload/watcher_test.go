package diffload

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_InvalidatesAndNotifies(t *testing.T) {
	src, beforeRoot, afterRoot := pairSource(t)
	writeFile(t, beforeRoot, "f.go", "a\n")
	writeFile(t, afterRoot, "f.go", "b\n")

	counting := &countingLoader{inner: NewLoader(src)}
	cached := NewCachedLoader(counting)

	w, err := NewWatcher(src, cached)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := w.Subscribe(ctx)
	go w.Run(ctx)

	_, err = cached.Load(ctx, "f.go")
	require.NoError(t, err)
	require.Equal(t, 1, counting.calls)

	writeFile(t, afterRoot, "f.go", "changed\n")

	select {
	case ev := <-events:
		require.Equal(t, "f.go", ev.Payload.Path)
		require.False(t, ev.Payload.Removed)
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification")
	}

	// The cached entry is gone, so the next load recomputes.
	require.Eventually(t, func() bool {
		d, err := cached.Load(ctx, "f.go")
		return err == nil && len(d.AfterLines) == 1 && d.AfterLines[0] == "changed"
	}, 2*time.Second, 10*time.Millisecond)
	require.GreaterOrEqual(t, counting.calls, 2)
}

func TestWatcher_RemoveReportsRemoved(t *testing.T) {
	src, beforeRoot, afterRoot := pairSource(t)
	writeFile(t, beforeRoot, "f.go", "a\n")
	writeFile(t, afterRoot, "f.go", "b\n")

	cached := NewCachedLoader(NewLoader(src))
	w, err := NewWatcher(src, cached)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := w.Subscribe(ctx)
	go w.Run(ctx)

	require.NoError(t, os.Remove(filepath.Join(afterRoot, "f.go")))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Payload.Path == "f.go" && ev.Payload.Removed {
				return
			}
		case <-deadline:
			t.Fatal("no removal notification")
		}
	}
}
