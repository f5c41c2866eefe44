package testutil

import (
	"encoding/binary"
	"os"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/harlib/har/internal/fb"
)

// Container format framing, mirrored here so tests can craft files the
// store itself refuses to produce (e.g. traversal keys).
const (
	headerMagic = "HARCv001"
	footerMagic = "HARCidx1"
)

// WriteRawContainer writes a syntactically valid container file at path
// whose index holds one zero-payload file entry per key. Keys are not
// validated, so tests can plant traversal keys an honest writer rejects.
func WriteRawContainer(t *testing.T, path string, keys ...string) {
	t.Helper()

	builder := flatbuffers.NewBuilder(256)
	offsets := make([]flatbuffers.UOffsetT, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		keyOffset := builder.CreateString(keys[i])
		fb.EntryStart(builder)
		fb.EntryAddKey(builder, keyOffset)
		fb.EntryAddKind(builder, fb.KindFile)
		fb.EntryAddMode(builder, 0o644)
		offsets[i] = fb.EntryEnd(builder)
	}
	fb.IndexStartEntriesVector(builder, len(keys))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	entries := builder.EndVector(len(keys))
	fb.IndexStart(builder)
	fb.IndexAddVersion(builder, 1)
	fb.IndexAddEntries(builder, entries)
	builder.Finish(fb.IndexEnd(builder))
	index := builder.FinishedBytes()

	buf := make([]byte, 0, len(headerMagic)+len(index)+24)
	buf = append(buf, headerMagic...)
	buf = append(buf, index...)
	footer := make([]byte, 24)
	binary.LittleEndian.PutUint64(footer[0:8], uint64(len(headerMagic)))
	binary.LittleEndian.PutUint64(footer[8:16], uint64(len(index)))
	copy(footer[16:], footerMagic)
	buf = append(buf, footer...)

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write container %s: %v", path, err)
	}
}
