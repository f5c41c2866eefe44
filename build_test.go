package har

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlib/har/container"
	"github.com/harlib/har/internal/testutil"
)

func TestBuilderCreate(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{
		"a/b.txt": "hi",
		"c.txt":   "bye",
	})
	path := filepath.Join(t.TempDir(), "test.har")

	stats, err := NewBuilder().Create(context.Background(), path, []string{src})
	require.NoError(t, err)
	assert.Equal(t, BuildStats{Stored: 3}, stats)

	c, err := container.OpenReadOnly(path)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, []string{"a", "a/b.txt", "c.txt"}, List(c))

	e, ok := c.Entry("a")
	require.True(t, ok)
	assert.Equal(t, container.KindDirectory, e.Kind)
}

func TestBuilderCreateRoundTrip(t *testing.T) {
	t.Parallel()

	want := map[string]string{
		"a/b.txt":       "hi",
		"c.txt":         "bye",
		"deep/er/f.bin": "\x00\x01\x02binary\xff",
	}
	src := t.TempDir()
	testutil.WriteTree(t, src, want)
	path := filepath.Join(t.TempDir(), "test.har")

	builder := NewBuilder(
		BuildWithCompression(container.CodecZstd, 3),
		BuildWithShuffle(true),
	)
	_, err := builder.Create(context.Background(), path, []string{src})
	require.NoError(t, err)

	c, err := container.OpenReadOnly(path)
	require.NoError(t, err)
	defer c.Close()
	target := t.TempDir()
	_, err = NewExtractor().ExtractAll(context.Background(), c, target)
	require.NoError(t, err)

	if diff := cmp.Diff(want, testutil.ReadTree(t, target)); diff != "" {
		t.Errorf("extracted tree mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilderCreateTruncatesExisting(t *testing.T) {
	t.Parallel()

	srcOld := t.TempDir()
	testutil.WriteTree(t, srcOld, map[string]string{"old.txt": "old"})
	srcNew := t.TempDir()
	testutil.WriteTree(t, srcNew, map[string]string{"new.txt": "new"})
	path := filepath.Join(t.TempDir(), "test.har")

	_, err := NewBuilder().Create(context.Background(), path, []string{srcOld})
	require.NoError(t, err)
	_, err = NewBuilder().Create(context.Background(), path, []string{srcNew})
	require.NoError(t, err)

	c, err := container.OpenReadOnly(path)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, []string{"new.txt"}, List(c))
}

func TestBuilderCreateFileSources(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{"one.txt": "1", "two.txt": "2"})
	path := filepath.Join(t.TempDir(), "test.har")

	// File sources are keyed by base name.
	stats, err := NewBuilder().Create(context.Background(), path, []string{
		filepath.Join(src, "one.txt"),
		filepath.Join(src, "two.txt"),
	})
	require.NoError(t, err)
	assert.Equal(t, BuildStats{Stored: 2}, stats)

	c, err := container.OpenReadOnly(path)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, []string{"one.txt", "two.txt"}, List(c))
}

func TestBuilderCreateNoSources(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.har")
	_, err := NewBuilder().Create(context.Background(), path, nil)
	require.ErrorIs(t, err, ErrNoSources)
	_, err = NewBuilder().Append(context.Background(), path, nil)
	require.ErrorIs(t, err, ErrNoSources)
}

func TestBuilderAppendSkipsExisting(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{"a/b.txt": "hi", "c.txt": "bye"})
	path := filepath.Join(t.TempDir(), "test.har")

	_, err := NewBuilder().Create(context.Background(), path, []string{src})
	require.NoError(t, err)

	digests := entryDigests(t, path)

	// Appending the same tree changes nothing, even with the source files
	// modified in between: existing keys keep their original payloads.
	testutil.WriteTree(t, src, map[string]string{"c.txt": "CHANGED"})
	stats, err := NewBuilder().Append(context.Background(), path, []string{src})
	require.NoError(t, err)
	assert.Equal(t, BuildStats{Skipped: 3}, stats)
	assert.Equal(t, digests, entryDigests(t, path))

	// A second identical append is also a no-op.
	stats, err = NewBuilder().Append(context.Background(), path, []string{src})
	require.NoError(t, err)
	assert.Equal(t, BuildStats{Skipped: 3}, stats)
	assert.Equal(t, digests, entryDigests(t, path))
}

func TestBuilderAppendNewChildren(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{"a/b.txt": "hi"})
	path := filepath.Join(t.TempDir(), "test.har")

	_, err := NewBuilder().Create(context.Background(), path, []string{src})
	require.NoError(t, err)

	// New files under an already-archived directory are still picked up.
	testutil.WriteTree(t, src, map[string]string{"a/new.txt": "new"})
	stats, err := NewBuilder().Append(context.Background(), path, []string{src})
	require.NoError(t, err)
	assert.Equal(t, BuildStats{Stored: 1, Skipped: 2}, stats)

	c, err := container.OpenReadOnly(path)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, []string{"a", "a/b.txt", "a/new.txt"}, List(c))
}

func TestBuilderAppendMissingContainer(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{"x.txt": "x"})

	_, err := NewBuilder().Append(context.Background(), filepath.Join(t.TempDir(), "nope.har"), []string{src})
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestBuilderUnreadableSource(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{"ok.txt": "ok"})
	path := filepath.Join(t.TempDir(), "test.har")

	stats, err := NewBuilder().Create(context.Background(), path, []string{
		filepath.Join(src, "ok.txt"),
		filepath.Join(src, "missing.txt"),
	})
	require.ErrorIs(t, err, ErrPartial)
	assert.Equal(t, BuildStats{Stored: 1, Failed: 1}, stats)

	// The archive still holds the sources that worked.
	c, err := container.OpenReadOnly(path)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, []string{"ok.txt"}, List(c))
}

func TestBuilderSkipsSymlinks(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{"real.txt": "real"})
	require.NoError(t, os.Symlink(filepath.Join(src, "real.txt"), filepath.Join(src, "link")))
	path := filepath.Join(t.TempDir(), "test.har")

	stats, err := NewBuilder().Create(context.Background(), path, []string{src})
	require.NoError(t, err)
	assert.Equal(t, BuildStats{Stored: 1}, stats)

	c, err := container.OpenReadOnly(path)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, []string{"real.txt"}, List(c))
}

func TestBuilderSkipCompression(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{
		"doc.txt":   "text text text text text text text text",
		"photo.jpg": "already compressed bytes",
	})
	path := filepath.Join(t.TempDir(), "test.har")

	builder := NewBuilder(
		BuildWithCompression(container.CodecGzip, 6),
		BuildWithSkipCompression(DefaultSkipCompression(0)),
	)
	_, err := builder.Create(context.Background(), path, []string{src})
	require.NoError(t, err)

	c, err := container.OpenReadOnly(path)
	require.NoError(t, err)
	defer c.Close()

	doc, ok := c.Entry("doc.txt")
	require.True(t, ok)
	assert.Equal(t, container.CodecGzip, doc.Codec)

	photo, ok := c.Entry("photo.jpg")
	require.True(t, ok)
	assert.Equal(t, container.CodecNone, photo.Codec)
	assert.Equal(t, photo.OriginalSize, photo.Size)
}

func TestBuilderClosesContainerOnPanic(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{"a.txt": "a"})
	path := filepath.Join(t.TempDir(), "test.har")

	boom := func(string, fs.FileInfo) bool { panic("predicate exploded") }
	b := NewBuilder(
		BuildWithCompression(container.CodecGzip, 6),
		BuildWithSkipCompression(boom),
	)
	require.Panics(t, func() {
		_, _ = b.Create(context.Background(), path, []string{src})
	})

	// The handle was released and the index finalized on the panic path,
	// so the file on disk is a valid (empty) container rather than a
	// truncated fragment.
	c, err := container.OpenReadOnly(path)
	require.NoError(t, err)
	defer c.Close()
	assert.Empty(t, List(c))
}

func TestBuilderContextCancelled(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{"a.txt": "a"})
	path := filepath.Join(t.TempDir(), "test.har")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder().Create(ctx, path, []string{src})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDefaultSkipCompression(t *testing.T) {
	t.Parallel()

	fn := DefaultSkipCompression(0)
	assert.True(t, fn("photo.JPG", nil))
	assert.True(t, fn("bundle.tgz", nil))
	assert.False(t, fn("notes.txt", nil))
}

// entryDigests maps each key to its stored payload digest.
func entryDigests(t *testing.T, path string) map[string]string {
	t.Helper()
	c, err := container.OpenReadOnly(path)
	require.NoError(t, err)
	defer c.Close()
	out := make(map[string]string)
	for e := range c.All() {
		out[e.Key] = e.Digest.String()
	}
	return out
}
