package har

import "log/slog"

// extractConfig holds configuration for extraction.
type extractConfig struct {
	logger        *slog.Logger
	preserveMode  bool
	preserveTimes bool
}

// ExtractOption configures an Extractor.
type ExtractOption func(*extractConfig)

// ExtractWithLogger sets the logger for per-entry progress and warnings.
// Without it, log output is discarded.
func ExtractWithLogger(logger *slog.Logger) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.logger = logger
	}
}

// ExtractWithPreserveMode controls whether stored permission bits are
// restored on extracted files and directories. Enabled by default.
func ExtractWithPreserveMode(enabled bool) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.preserveMode = enabled
	}
}

// ExtractWithPreserveTimes controls whether stored modification times are
// restored on extracted files. Enabled by default.
func ExtractWithPreserveTimes(enabled bool) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.preserveTimes = enabled
	}
}
