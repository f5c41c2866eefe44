package container

import "errors"

// Sentinel errors for container operations.
var (
	// ErrKeyExists is returned when a Put targets a key that is already present.
	ErrKeyExists = errors.New("container: key already exists")

	// ErrNotFound is returned when a key has no entry in the container.
	ErrNotFound = errors.New("container: entry not found")

	// ErrIsDirectory is returned when a payload read targets a directory entry.
	ErrIsDirectory = errors.New("container: entry is a directory")

	// ErrReadOnly is returned when a write is attempted on a read-only handle.
	ErrReadOnly = errors.New("container: container opened read-only")

	// ErrClosed is returned when an operation is attempted after Close.
	ErrClosed = errors.New("container: container is closed")

	// ErrCorrupt is returned when the file is not a valid container.
	ErrCorrupt = errors.New("container: invalid or corrupt container file")

	// ErrDigestMismatch is returned when payload content does not match its digest.
	ErrDigestMismatch = errors.New("container: payload digest mismatch")

	// ErrInvalidKey is returned for keys that are empty, absolute, or contain
	// "." or ".." elements.
	ErrInvalidKey = errors.New("container: invalid key")

	// ErrInvalidLevel is returned when a compression level is outside 0-9.
	ErrInvalidLevel = errors.New("container: compression level out of range")

	// ErrUnknownCodec is returned for unrecognized codec names or tags.
	ErrUnknownCodec = errors.New("container: unknown compression codec")
)
