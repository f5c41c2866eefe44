package har

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/harlib/har/container"
)

// ExtractStats summarizes one extraction invocation.
type ExtractStats struct {
	// Extracted is the number of entries reconstructed on disk.
	Extracted int
	// Failed is the number of entries that could not be reconstructed.
	Failed int
}

// Extractor reconstructs filesystem trees from containers.
type Extractor struct {
	cfg extractConfig
}

// NewExtractor creates an Extractor with the given options. Permission bits
// and modification times are restored unless disabled.
func NewExtractor(opts ...ExtractOption) *Extractor {
	cfg := extractConfig{preserveMode: true, preserveTimes: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Extractor{cfg: cfg}
}

// log returns the logger, falling back to a discard logger if nil.
func (e *Extractor) log() *slog.Logger {
	if e.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.cfg.logger
}

// ExtractAll reconstructs every entry of c under targetDir.
//
// Parent directories are created lazily and idempotently on first use, so
// correctness does not depend on entry order. Existing files are
// overwritten, making repeated extraction idempotent. An entry key that
// would escape targetDir aborts immediately with ErrPathTraversal before
// anything is written for it; per-entry I/O errors are logged and skipped,
// surfacing as ErrPartial at the end.
func (e *Extractor) ExtractAll(ctx context.Context, c *container.Container, targetDir string) (ExtractStats, error) {
	var stats ExtractStats
	for entry := range c.All() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		dest, err := ToFilesystemPath(entry.Key, targetDir)
		if err != nil {
			return stats, fmt.Errorf("entry %q: %w", entry.Key, err)
		}
		if err := e.restore(c, entry, dest); err != nil {
			e.log().Warn("skipping entry", "key", entry.Key, "error", err)
			stats.Failed++
			continue
		}
		e.log().Info("extracted", "key", entry.Key)
		stats.Extracted++
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d failed", ErrPartial, stats.Failed)
	}
	return stats, nil
}

// ExtractOne reconstructs the single entry at key under targetDir. A missing
// key returns ErrKeyNotFound. A directory key creates only the empty
// directory; descendants are never extracted implicitly.
func (e *Extractor) ExtractOne(ctx context.Context, c *container.Container, key, targetDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key = NormalizeKey(key)
	entry, ok := c.Entry(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	dest, err := ToFilesystemPath(entry.Key, targetDir)
	if err != nil {
		return fmt.Errorf("entry %q: %w", entry.Key, err)
	}
	if err := e.restore(c, entry, dest); err != nil {
		return fmt.Errorf("extract %q: %w", entry.Key, err)
	}
	e.log().Info("extracted", "key", entry.Key)
	return nil
}

// restore reconstructs a single entry at dest.
func (e *Extractor) restore(c *container.Container, entry container.Entry, dest string) error {
	if entry.Kind == container.KindDirectory {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return err
		}
		return e.applyMetadata(dest, entry)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	src, err := c.Open(entry.Key)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // dest is traversal-checked by ToFilesystemPath
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return e.applyMetadata(dest, entry)
}

// applyMetadata restores mode and time attributes on the object at path.
func (e *Extractor) applyMetadata(path string, entry container.Entry) error {
	if e.cfg.preserveMode && entry.Mode != 0 {
		if err := os.Chmod(path, entry.Mode.Perm()); err != nil {
			return fmt.Errorf("setting mode: %w", err)
		}
	}
	if e.cfg.preserveTimes && !entry.ModTime.IsZero() {
		if err := os.Chtimes(path, entry.ModTime, entry.ModTime); err != nil {
			return fmt.Errorf("setting times: %w", err)
		}
	}
	return nil
}
