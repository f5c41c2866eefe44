package har

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/harlib/har/container"
)

// BuildStats summarizes one create or append invocation.
type BuildStats struct {
	// Stored is the number of entries written.
	Stored int
	// Skipped is the number of entries skipped because their key already
	// existed (append mode only).
	Skipped int
	// Failed is the number of entries that could not be read or written.
	Failed int
}

// Builder archives filesystem trees into containers.
type Builder struct {
	cfg buildConfig
}

// NewBuilder creates a Builder with the given options.
func NewBuilder(opts ...BuildOption) *Builder {
	cfg := buildConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Builder{cfg: cfg}
}

// log returns the logger, falling back to a discard logger if nil.
func (b *Builder) log() *slog.Logger {
	if b.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.cfg.logger
}

// Create builds a new container at containerPath from sources, processed in
// argument order. An existing file at containerPath is truncated.
//
// A source that cannot be read at its root fails that source only; per-file
// errors during a recursive walk are logged and the file is skipped. If any
// entry failed, Create returns the stats together with ErrPartial.
func (b *Builder) Create(ctx context.Context, containerPath string, sources []string) (stats BuildStats, err error) {
	if len(sources) == 0 {
		return BuildStats{}, ErrNoSources
	}
	c, err := container.Create(containerPath)
	if err != nil {
		return BuildStats{}, fmt.Errorf("create container %s: %w", containerPath, err)
	}
	defer func() {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}()
	b.log().Info("creating archive", "file", containerPath, "compression", b.cfg.codec.String())

	return b.build(ctx, c, sources, false)
}

// Append adds sources to the existing container at containerPath. Entries
// whose key is already present are skipped, never overwritten; walking still
// descends into directories whose entry exists, so new children of existing
// directories are picked up.
//
// A missing container returns an error satisfying
// errors.Is(err, fs.ErrNotExist). Failure handling matches Create.
func (b *Builder) Append(ctx context.Context, containerPath string, sources []string) (stats BuildStats, err error) {
	if len(sources) == 0 {
		return BuildStats{}, ErrNoSources
	}
	c, err := container.Open(containerPath)
	if err != nil {
		return BuildStats{}, fmt.Errorf("open container %s: %w", containerPath, err)
	}
	defer func() {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}()
	b.log().Info("appending to archive", "file", containerPath, "compression", b.cfg.codec.String())

	return b.build(ctx, c, sources, true)
}

func (b *Builder) build(ctx context.Context, c *container.Container, sources []string, skipExisting bool) (BuildStats, error) {
	var stats BuildStats
	for _, source := range sources {
		if err := b.addSource(ctx, c, source, skipExisting, &stats); err != nil {
			if ctx.Err() != nil {
				return stats, err
			}
			b.log().Error("skipping unreadable source", "source", source, "error", err)
			stats.Failed++
		}
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d failed", ErrPartial, stats.Failed)
	}
	return stats, nil
}

// addSource walks one source and stores every yielded item. An error at the
// source root aborts the source; later errors are counted and skipped.
func (b *Builder) addSource(ctx context.Context, c *container.Container, source string, skipExisting bool, stats *BuildStats) error {
	info, err := os.Lstat(source)
	if err != nil {
		return err
	}
	base := ""
	if info.IsDir() {
		base = source
	}

	for item, werr := range Walk(source) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if werr != nil {
			if item.Path == source {
				return werr
			}
			b.log().Warn("skipping unreadable path", "path", item.Path, "error", werr)
			stats.Failed++
			continue
		}
		if err := b.storeItem(ctx, c, item, base, skipExisting, stats); err != nil {
			return err
		}
	}
	return nil
}

// storeItem writes a single walked item. Only context errors propagate;
// everything else is logged and counted against the stats.
func (b *Builder) storeItem(ctx context.Context, c *container.Container, item WalkItem, base string, skipExisting bool, stats *BuildStats) error {
	key, err := ToKey(item.Path, base)
	if err != nil {
		b.log().Warn("skipping unmappable path", "path", item.Path, "error", err)
		stats.Failed++
		return nil
	}
	if key == "." {
		// The source directory itself is not an entry.
		return nil
	}
	if item.Kind == ItemOther {
		b.log().Warn("skipping non-regular file", "path", item.Path)
		return nil
	}
	if skipExisting && c.Has(key) {
		b.log().Debug("skipping existing entry", "key", key)
		stats.Skipped++
		return nil
	}

	attrs := container.Attrs{Mode: item.Info.Mode(), ModTime: item.Info.ModTime()}
	if item.Kind == ItemDir {
		if _, err := c.PutDirectory(key, attrs); err != nil {
			b.log().Warn("skipping entry", "key", key, "error", err)
			stats.Failed++
			return nil
		}
		b.log().Info("stored", "key", key, "kind", "directory")
		stats.Stored++
		return nil
	}

	f, err := os.Open(item.Path) //nolint:gosec // Paths come from walking user-provided sources
	if err != nil {
		b.log().Warn("skipping unreadable file", "path", item.Path, "error", err)
		stats.Failed++
		return nil
	}
	defer f.Close()

	if _, err := c.Put(ctx, key, f, attrs, b.putOptions(item.Path, item.Info)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		b.log().Warn("skipping entry", "key", key, "error", err)
		stats.Failed++
		return nil
	}
	b.log().Info("stored", "key", key, "kind", "file", "size", item.Info.Size())
	stats.Stored++
	return nil
}

func (b *Builder) putOptions(path string, info fs.FileInfo) container.PutOptions {
	opts := container.PutOptions{Codec: b.cfg.codec, Level: b.cfg.level, Shuffle: b.cfg.shuffle}
	if opts.Codec != container.CodecNone && b.shouldSkipCompression(path, info) {
		opts.Codec = container.CodecNone
		opts.Shuffle = false
	}
	return opts
}

func (b *Builder) shouldSkipCompression(path string, info fs.FileInfo) bool {
	for _, fn := range b.cfg.skipCompression {
		if fn == nil {
			continue
		}
		if fn(path, info) {
			return true
		}
	}
	return false
}
