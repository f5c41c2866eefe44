package har

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", "."},
		{"/", "."},
		{"///", "."},
		{"etc/nginx", "etc/nginx"},
		{"/etc/nginx", "etc/nginx"},
		{"etc/nginx/", "etc/nginx"},
		{"etc//nginx", "etc/nginx"},
		{"//etc///nginx//", "etc/nginx"},
		{"single", "single"},
		{"..", ".."}, // preserved, rejected downstream
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeKey(tt.in), "input %q", tt.in)
	}
}

func TestToKey(t *testing.T) {
	t.Parallel()

	base := filepath.Join("some", "dir")

	key, err := ToKey(filepath.Join(base, "a", "b.txt"), base)
	require.NoError(t, err)
	assert.Equal(t, "a/b.txt", key)

	key, err = ToKey(base, base)
	require.NoError(t, err)
	assert.Equal(t, ".", key)

	// Single-file sources keep only the base name.
	key, err = ToKey(filepath.Join("anywhere", "file.dat"), "")
	require.NoError(t, err)
	assert.Equal(t, "file.dat", key)

	_, err = ToKey(filepath.Join("other", "place"), base)
	require.ErrorIs(t, err, ErrInvalidPath)
	_, err = ToKey(".", "")
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestToFilesystemPath(t *testing.T) {
	t.Parallel()

	target := filepath.Join("out", "dir")

	path, err := ToFilesystemPath("a/b.txt", target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(target, "a", "b.txt"), path)

	path, err = ToFilesystemPath("/leading/slash", target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(target, "leading", "slash"), path)

	for _, key := range []string{"", ".", "..", "../escape", "a/../../b", "a/./b"} {
		_, err := ToFilesystemPath(key, target)
		assert.ErrorIs(t, err, ErrPathTraversal, "key %q", key)
	}
}
