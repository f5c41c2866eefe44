package container

import (
	"fmt"
	"io/fs"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/opencontainers/go-digest"

	"github.com/harlib/har/internal/fb"
)

const indexVersion = 1

// buildIndex serializes entries to FlatBuffers format.
func buildIndex(entries []Entry) []byte {
	builder := flatbuffers.NewBuilder(1024)

	// Build entries in reverse order (FlatBuffers requirement)
	offsets := make([]flatbuffers.UOffsetT, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]

		keyOffset := builder.CreateString(e.Key)
		var digestOffset flatbuffers.UOffsetT
		if e.Digest != "" {
			digestOffset = builder.CreateString(string(e.Digest))
		}

		fb.EntryStart(builder)
		fb.EntryAddKey(builder, keyOffset)
		fb.EntryAddKind(builder, fb.Kind(e.Kind))
		fb.EntryAddDataOffset(builder, e.Offset)
		fb.EntryAddDataSize(builder, e.Size)
		fb.EntryAddOriginalSize(builder, e.OriginalSize)
		fb.EntryAddMode(builder, uint32(e.Mode))
		fb.EntryAddMtimeNs(builder, e.ModTime.UnixNano())
		fb.EntryAddCodec(builder, fb.Codec(e.Codec))
		fb.EntryAddLevel(builder, int8(e.Level)) //nolint:gosec // Level is bounded 0-9
		fb.EntryAddShuffle(builder, e.Shuffle)
		if digestOffset != 0 {
			fb.EntryAddDigest(builder, digestOffset)
		}
		offsets[i] = fb.EntryEnd(builder)
	}

	fb.IndexStartEntriesVector(builder, len(entries))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	entriesOffset := builder.EndVector(len(entries))

	fb.IndexStart(builder)
	fb.IndexAddVersion(builder, indexVersion)
	fb.IndexAddEntries(builder, entriesOffset)
	builder.Finish(fb.IndexEnd(builder))
	return builder.FinishedBytes()
}

// parseIndex decodes a FlatBuffers index buffer into entries.
//
// FlatBuffers accessors panic on malformed buffers rather than returning
// errors, so parsing recovers and reports ErrCorrupt.
func parseIndex(buf []byte) (entries []Entry, err error) {
	defer func() {
		if recover() != nil {
			entries, err = nil, ErrCorrupt
		}
	}()

	idx := fb.GetRootAsIndex(buf, 0)
	if v := idx.Version(); v != indexVersion {
		return nil, fmt.Errorf("%w: unsupported index version %d", ErrCorrupt, v)
	}

	n := idx.EntriesLength()
	entries = make([]Entry, 0, n)
	var fe fb.Entry
	for i := 0; i < n; i++ {
		if !idx.Entries(&fe, i) {
			return nil, ErrCorrupt
		}
		entries = append(entries, Entry{
			Key:          string(fe.Key()),
			Kind:         Kind(fe.Kind()),
			Offset:       fe.DataOffset(),
			Size:         fe.DataSize(),
			OriginalSize: fe.OriginalSize(),
			Mode:         fs.FileMode(fe.Mode()),
			ModTime:      time.Unix(0, fe.MtimeNs()),
			Codec:        Codec(fe.Codec()),
			Level:        int(fe.Level()),
			Shuffle:      fe.Shuffle(),
			Digest:       digest.Digest(fe.Digest()),
		})
	}
	return entries, nil
}
