package har

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlib/har/container"
	"github.com/harlib/har/internal/testutil"
)

func TestList(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{"z.txt": "z", "a/b.txt": "b"})
	path := filepath.Join(t.TempDir(), "test.har")

	// Append an out-of-order key so sorting is observable.
	_, err := NewBuilder().Create(context.Background(), path, []string{src})
	require.NoError(t, err)
	extra := t.TempDir()
	testutil.WriteTree(t, extra, map[string]string{"m.txt": "m"})
	_, err = NewBuilder().Append(context.Background(), path, []string{filepath.Join(extra, "m.txt")})
	require.NoError(t, err)

	c, err := container.OpenReadOnly(path)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{"a", "a/b.txt", "m.txt", "z.txt"}, List(c))
	assert.Equal(t, []string{"a", "a/b.txt", "z.txt", "m.txt"}, c.Keys())
}

func TestListEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.har")
	c, err := container.Create(path)
	require.NoError(t, err)
	defer c.Close()

	assert.Empty(t, List(c))
}
