package har

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/harlib/har/container"
)

// SkipCompressionFunc returns true when a file should be stored uncompressed.
// It is called once per file and should be inexpensive.
type SkipCompressionFunc func(path string, info fs.FileInfo) bool

// buildConfig holds configuration for archive creation and append.
type buildConfig struct {
	codec           container.Codec
	level           int
	shuffle         bool
	logger          *slog.Logger
	skipCompression []SkipCompressionFunc
}

// BuildOption configures a Builder.
type BuildOption func(*buildConfig)

// BuildWithCompression sets the codec and level (0-9) applied to file
// payloads. Use container.CodecNone to store files uncompressed.
func BuildWithCompression(codec container.Codec, level int) BuildOption {
	return func(cfg *buildConfig) {
		cfg.codec = codec
		cfg.level = level
	}
}

// BuildWithShuffle applies the byte-shuffle filter before compression.
func BuildWithShuffle(enabled bool) BuildOption {
	return func(cfg *buildConfig) {
		cfg.shuffle = enabled
	}
}

// BuildWithLogger sets the logger for per-entry progress and warnings.
// Without it, log output is discarded.
func BuildWithLogger(logger *slog.Logger) BuildOption {
	return func(cfg *buildConfig) {
		cfg.logger = logger
	}
}

// BuildWithSkipCompression adds predicates that decide to store a file
// uncompressed. If any predicate returns true, compression is skipped for
// that file. These checks are on the hot path, so keep them cheap.
func BuildWithSkipCompression(fns ...SkipCompressionFunc) BuildOption {
	return func(cfg *buildConfig) {
		cfg.skipCompression = append(cfg.skipCompression, fns...)
	}
}

// DefaultSkipCompression returns a SkipCompressionFunc that skips small
// files and known already-compressed extensions.
func DefaultSkipCompression(minSize int64) SkipCompressionFunc {
	return func(path string, info fs.FileInfo) bool {
		if info != nil && minSize > 0 && info.Size() < minSize {
			return true
		}
		ext := strings.ToLower(filepath.Ext(path))
		_, ok := defaultSkipCompressionExts[ext]
		return ok
	}
}

var defaultSkipCompressionExts = map[string]struct{}{
	".7z":   {},
	".avif": {},
	".br":   {},
	".bz2":  {},
	".flac": {},
	".gif":  {},
	".gz":   {},
	".jpeg": {},
	".jpg":  {},
	".mkv":  {},
	".mp3":  {},
	".mp4":  {},
	".ogg":  {},
	".png":  {},
	".rar":  {},
	".tgz":  {},
	".webm": {},
	".webp": {},
	".xz":   {},
	".zip":  {},
	".zst":  {},
}
