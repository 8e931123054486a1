package diffload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func pairSource(t *testing.T) (*DirSource, string, string) {
	t.Helper()
	beforeRoot := t.TempDir()
	afterRoot := t.TempDir()
	src, err := NewDirSource(beforeRoot, afterRoot)
	require.NoError(t, err)
	return src, beforeRoot, afterRoot
}

func TestDirSource_ListFilesUnion(t *testing.T) {
	src, beforeRoot, afterRoot := pairSource(t)
	writeFile(t, beforeRoot, "common.go", "a\n")
	writeFile(t, beforeRoot, "deleted.go", "gone\n")
	writeFile(t, afterRoot, "common.go", "b\n")
	writeFile(t, afterRoot, "sub/added.go", "new\n")

	paths, err := src.ListFiles()
	require.NoError(t, err)
	require.Equal(t, []string{"common.go", "deleted.go", "sub/added.go"}, paths)
}

func TestDirSource_ReadPairMissingSide(t *testing.T) {
	src, _, afterRoot := pairSource(t)
	writeFile(t, afterRoot, "added.go", "one\ntwo\n")

	before, after, err := src.ReadPair("added.go")
	require.NoError(t, err)
	require.Nil(t, before)
	require.Equal(t, []string{"one", "two"}, after)
}

func TestNewDirSource_RejectsMissingRoot(t *testing.T) {
	_, err := NewDirSource(t.TempDir(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestLoader_BuildsDiff(t *testing.T) {
	src, beforeRoot, afterRoot := pairSource(t)
	writeFile(t, beforeRoot, "f.go", "a\nb\n")
	writeFile(t, afterRoot, "f.go", "a\nc\n")

	d, err := NewLoader(src).Load(context.Background(), "f.go")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, d.BeforeLines)
	require.Equal(t, []string{"a", "c"}, d.AfterLines)
	require.NoError(t, d.Alignment.Validate())
	require.Equal(t, 1, d.ChangedCount())
}

func TestLoader_CancelledContext(t *testing.T) {
	src, _, _ := pairSource(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLoader(src).Load(ctx, "any")
	require.ErrorIs(t, err, context.Canceled)
}

type countingLoader struct {
	inner DiffLoader
	calls int
}

func (c *countingLoader) Load(ctx context.Context, path string) (*FileDiff, error) {
	c.calls++
	return c.inner.Load(ctx, path)
}

func TestCachedLoader_HitsAndInvalidation(t *testing.T) {
	src, beforeRoot, afterRoot := pairSource(t)
	writeFile(t, beforeRoot, "f.go", "a\n")
	writeFile(t, afterRoot, "f.go", "b\n")

	counting := &countingLoader{inner: NewLoader(src)}
	cached := NewCachedLoader(counting)

	ctx := context.Background()
	first, err := cached.Load(ctx, "f.go")
	require.NoError(t, err)
	second, err := cached.Load(ctx, "f.go")
	require.NoError(t, err)
	require.Same(t, first, second, "second load must come from the cache")
	require.Equal(t, 1, counting.calls)

	cached.Invalidate("f.go")
	_, err = cached.Load(ctx, "f.go")
	require.NoError(t, err)
	require.Equal(t, 2, counting.calls)
}

type failingLoader struct{ err error }

func (f failingLoader) Load(context.Context, string) (*FileDiff, error) {
	return nil, f.err
}

func TestCachedLoader_ErrorsAreNotCached(t *testing.T) {
	boom := errors.New("boom")
	cached := NewCachedLoader(failingLoader{err: boom})
	_, err := cached.Load(context.Background(), "f.go")
	require.ErrorIs(t, err, boom)
	_, err = cached.Load(context.Background(), "f.go")
	require.ErrorIs(t, err, boom)
}

func TestSearchAdapter(t *testing.T) {
	src, beforeRoot, afterRoot := pairSource(t)
	writeFile(t, beforeRoot, "f.go", "a\n")
	writeFile(t, afterRoot, "f.go", "needle\n")

	content, err := SearchAdapter{Loader: NewLoader(src)}.Load(context.Background(), "f.go")
	require.NoError(t, err)
	require.Equal(t, []string{"needle"}, content.AfterLines)
	require.NoError(t, content.Alignment.Validate())
}

func TestFilePairSource(t *testing.T) {
	dir := t.TempDir()
	beforePath := filepath.Join(dir, "old.txt")
	afterPath := filepath.Join(dir, "new.txt")
	require.NoError(t, os.WriteFile(beforePath, []byte("a\n"), 0o644))
	require.NoError(t, os.WriteFile(afterPath, []byte("b\n"), 0o644))

	src, err := NewFilePairSource(beforePath, afterPath)
	require.NoError(t, err)
	paths, err := src.ListFiles()
	require.NoError(t, err)
	require.Equal(t, []string{"new.txt"}, paths)

	before, after, err := src.ReadPair("new.txt")
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, before)
	require.Equal(t, []string{"b"}, after)
}
