package container

import (
	"io/fs"
	"time"

	"github.com/opencontainers/go-digest"
)

// Kind identifies what filesystem object an entry represents.
type Kind uint8

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Attrs carries the filesystem metadata stored with an entry.
type Attrs struct {
	// Mode holds the permission bits of the archived object.
	Mode fs.FileMode

	// ModTime is the modification time of the archived object.
	ModTime time.Time
}

// PutOptions configures the storage encoding of a single file payload.
type PutOptions struct {
	// Codec selects the compression algorithm. CodecNone stores raw bytes.
	Codec Codec

	// Level is the compression level, 0-9. Ignored for CodecNone.
	Level int

	// Shuffle applies the byte-shuffle filter before compression.
	Shuffle bool
}

// Entry describes one object stored in a container.
//
// Offset and Size locate the encoded payload in the data region; OriginalSize
// is the byte count before shuffle/compression. Directory entries have no
// payload and zero sizes.
type Entry struct {
	Key          string
	Kind         Kind
	Offset       uint64
	Size         uint64
	OriginalSize uint64
	Mode         fs.FileMode
	ModTime      time.Time
	Codec        Codec
	Level        int
	Shuffle      bool
	Digest       digest.Digest
}
