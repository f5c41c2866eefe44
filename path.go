package har

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// NormalizeKey converts a user-provided key to fs.ValidPath format.
//
// It performs the following transformations:
//   - Strips leading slashes: "/etc/nginx" → "etc/nginx"
//   - Strips trailing slashes: "etc/nginx/" → "etc/nginx"
//   - Collapses consecutive slashes: "etc//nginx" → "etc/nginx"
//   - Converts empty string to root: "" → "."
//
// Note: this function does not resolve or validate path elements. Keys
// containing "." or ".." elements are preserved and rejected later by
// fs.ValidPath checks in ToFilesystemPath and the container store.
func NormalizeKey(key string) string {
	key = strings.Trim(key, "/")
	if key == "" {
		return "."
	}

	// Collapse consecutive slashes by splitting and rejoining.
	parts := strings.Split(key, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return "."
	}
	return strings.Join(result, "/")
}

// ToKey maps a filesystem path to its container key.
//
// With a non-empty baseDir the key is the slash-separated path relative to
// baseDir; the baseDir itself maps to ".". With an empty baseDir the key is
// the path's base name, which is how single-file sources are archived.
// Paths that would escape baseDir return ErrInvalidPath.
func ToKey(path, baseDir string) (string, error) {
	if baseDir == "" {
		key := filepath.Base(path)
		if key == "." || key == ".." || key == string(filepath.Separator) {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		return key, nil
	}

	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	key := NormalizeKey(filepath.ToSlash(rel))
	if key != "." && !fs.ValidPath(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return key, nil
}

// ToFilesystemPath maps an entry key to a filesystem path under targetDir.
// Keys that are absolute or contain "." or ".." elements return
// ErrPathTraversal; nothing under targetDir can be escaped through a
// crafted key.
func ToFilesystemPath(key, targetDir string) (string, error) {
	key = NormalizeKey(key)
	if key == "." || !fs.ValidPath(key) {
		return "", fmt.Errorf("%w: %q", ErrPathTraversal, key)
	}
	return filepath.Join(targetDir, filepath.FromSlash(key)), nil
}
