package har

import "errors"

// Sentinel errors for archive operations.
var (
	// ErrInvalidPath is returned when a source path would map to a key
	// outside the archived root.
	ErrInvalidPath = errors.New("har: path escapes archive root")

	// ErrPathTraversal is returned when an entry key would map to a
	// filesystem path outside the extraction target directory.
	ErrPathTraversal = errors.New("har: entry key escapes target directory")

	// ErrKeyNotFound is returned when a requested entry key is absent.
	ErrKeyNotFound = errors.New("har: entry not found in archive")

	// ErrPartial is returned when an operation completed but some entries
	// failed and were skipped.
	ErrPartial = errors.New("har: some entries could not be processed")

	// ErrNoSources is returned when create or append is invoked without
	// source paths.
	ErrNoSources = errors.New("har: at least one source path is required")
)
