package container

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"

	"github.com/harlib/har/internal/ioutil"
)

// On-disk layout:
//
//	[header magic][entry payloads...][FlatBuffers index][footer]
//
// The footer is fixed-size: index offset, index size, footer magic. Append
// stages into a temporary copy of the data region, writes new payloads and
// the combined index there, and renames the copy over the original on
// Close, so the original file stays intact until the new index is durable.
const (
	headerMagic = "HARCv001"
	footerMagic = "HARCidx1"
	footerSize  = 24
)

// Container is a single-file hierarchical store of keyed, attribute-bearing
// entries.
//
// A Container handle is not safe for concurrent use, and the file must not
// be accessed by other processes while a writable handle is open. Writable
// handles must be closed to persist the index; payload bytes written for an
// entry whose Put failed are left unreferenced and never affect other
// entries.
type Container struct {
	f        *os.File
	path     string
	tmpPath  string // staging file for append, renamed over path on Close
	writable bool
	closed   bool
	entries  []Entry
	byKey    map[string]int
	dataEnd  uint64
}

// Create creates a container at path, truncating any existing file.
func Create(path string) (*Container, error) {
	f, err := os.Create(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, err
	}
	if _, err := f.Write([]byte(headerMagic)); err != nil {
		f.Close()
		return nil, fmt.Errorf("write container header: %w", err)
	}
	return &Container{
		f:        f,
		path:     path,
		writable: true,
		byKey:    make(map[string]int),
		dataEnd:  uint64(len(headerMagic)),
	}, nil
}

// Open opens an existing container for reading and appending. Opening a
// missing file returns an error satisfying errors.Is(err, fs.ErrNotExist).
//
// Appended payloads and the combined index are staged in a temporary file
// next to path and renamed over it on Close. An interrupted append leaves
// the original file untouched.
func Open(path string) (*Container, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, err
	}
	c, err := open(f, path, true)
	if err != nil {
		return nil, err
	}
	if err := c.stage(); err != nil {
		c.f.Close()
		return nil, err
	}
	return c, nil
}

// OpenReadOnly opens an existing container for reading.
func OpenReadOnly(path string) (*Container, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, err
	}
	return open(f, path, false)
}

func open(f *os.File, path string, writable bool) (*Container, error) {
	entries, dataEnd, err := load(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	c := &Container{
		f:        f,
		path:     path,
		writable: writable,
		entries:  entries,
		byKey:    make(map[string]int, len(entries)),
		dataEnd:  dataEnd,
	}
	for i, e := range c.entries {
		if _, ok := c.byKey[e.Key]; ok {
			f.Close()
			return nil, fmt.Errorf("%w: duplicate key %q", ErrCorrupt, e.Key)
		}
		c.byKey[e.Key] = i
	}
	return c, nil
}

// stage redirects the handle to a temporary copy of the data region, so
// appended payloads never touch the original file. The original is closed
// here and only replaced by the rename in Close.
func (c *Container) stage() error {
	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create append staging file: %w", err)
	}
	if _, err := c.f.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if _, err := io.CopyN(tmp, c.f, int64(c.dataEnd)); err != nil { //nolint:gosec // dataEnd validated against file size in load
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("copy data region: %w", err)
	}
	c.f.Close()
	c.f = tmp
	c.tmpPath = tmp.Name()
	return nil
}

// load reads and validates the header, footer and index of an open file.
func load(f *os.File) (entries []Entry, dataEnd uint64, err error) {
	info, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	size := info.Size()
	if size < int64(len(headerMagic))+footerSize {
		return nil, 0, fmt.Errorf("%w: file too small", ErrCorrupt)
	}

	header := make([]byte, len(headerMagic))
	if _, err := f.ReadAt(header, 0); err != nil {
		return nil, 0, fmt.Errorf("read container header: %w", err)
	}
	if string(header) != headerMagic {
		return nil, 0, fmt.Errorf("%w: bad header magic", ErrCorrupt)
	}

	footer := make([]byte, footerSize)
	if _, err := f.ReadAt(footer, size-footerSize); err != nil {
		return nil, 0, fmt.Errorf("read container footer: %w", err)
	}
	if string(footer[16:]) != footerMagic {
		return nil, 0, fmt.Errorf("%w: bad footer magic", ErrCorrupt)
	}

	indexOffset := binary.LittleEndian.Uint64(footer[0:8])
	indexSize := binary.LittleEndian.Uint64(footer[8:16])
	if indexOffset < uint64(len(headerMagic)) ||
		indexOffset+indexSize+footerSize != uint64(size) { //nolint:gosec // size checked non-negative above
		return nil, 0, fmt.Errorf("%w: index bounds out of range", ErrCorrupt)
	}

	buf := make([]byte, indexSize)
	if _, err := f.ReadAt(buf, int64(indexOffset)); err != nil { //nolint:gosec // bounds checked above
		return nil, 0, fmt.Errorf("read container index: %w", err)
	}
	entries, err = parseIndex(buf)
	if err != nil {
		return nil, 0, err
	}
	return entries, indexOffset, nil
}

// Path returns the filesystem path the container was opened from.
func (c *Container) Path() string {
	return c.path
}

// Len returns the number of entries.
func (c *Container) Len() int {
	return len(c.entries)
}

// Has reports whether key is present.
func (c *Container) Has(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// Entry returns the entry stored at key.
func (c *Container) Entry(key string) (Entry, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Keys returns all entry keys in insertion order, the container's natural
// enumeration order.
func (c *Container) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Key
	}
	return keys
}

// All returns an iterator over all entries in insertion order.
func (c *Container) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range c.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Put stores the bytes read from r as a file entry at key, encoded per opts,
// with attrs recorded as entry attributes. The payload digest and original
// size are computed while streaming.
//
// The key must be a valid slash-separated relative path (fs.ValidPath) other
// than ".". Existing keys are never overwritten; storing a duplicate returns
// ErrKeyExists.
func (c *Container) Put(ctx context.Context, key string, r io.Reader, attrs Attrs, opts PutOptions) (Entry, error) {
	if err := c.writeGuard(key); err != nil {
		return Entry{}, err
	}

	if _, err := c.f.Seek(int64(c.dataEnd), io.SeekStart); err != nil { //nolint:gosec // dataEnd tracks file offsets
		return Entry{}, fmt.Errorf("seek data region: %w", err)
	}

	digester := digest.Canonical.Digester()
	cw := &ioutil.CountingWriter{W: c.f}
	cr := &ioutil.CountingReader{R: r}

	enc, err := newEncoder(opts.Codec, opts.Level, cw)
	if err != nil {
		return Entry{}, err
	}

	// Stream: r → TeeReader(digester) → [shuffle] → encoder → countingWriter(file)
	var sink io.Writer = enc
	var shuf *shuffleWriter
	if opts.Shuffle {
		shuf = newShuffleWriter(enc)
		sink = shuf
	}

	buf := make([]byte, 32*1024)
	if _, err := ioutil.CopyWithContext(ctx, sink, io.TeeReader(cr, digester.Hash()), buf); err != nil {
		enc.Close()
		return Entry{}, fmt.Errorf("write payload %s: %w", key, err)
	}
	if shuf != nil {
		if err := shuf.Close(); err != nil {
			enc.Close()
			return Entry{}, fmt.Errorf("flush shuffle filter: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return Entry{}, fmt.Errorf("close encoder: %w", err)
	}

	entry := Entry{
		Key:          key,
		Kind:         KindFile,
		Offset:       c.dataEnd,
		Size:         cw.N,
		OriginalSize: cr.N,
		Mode:         attrs.Mode.Perm(),
		ModTime:      attrs.ModTime,
		Codec:        opts.Codec,
		Level:        opts.Level,
		Shuffle:      opts.Shuffle,
		Digest:       digester.Digest(),
	}
	c.add(entry)
	c.dataEnd += cw.N
	return entry, nil
}

// PutDirectory stores a zero-payload directory entry at key.
func (c *Container) PutDirectory(key string, attrs Attrs) (Entry, error) {
	if err := c.writeGuard(key); err != nil {
		return Entry{}, err
	}
	entry := Entry{
		Key:     key,
		Kind:    KindDirectory,
		Mode:    attrs.Mode.Perm(),
		ModTime: attrs.ModTime,
	}
	c.add(entry)
	return entry, nil
}

// Open returns a reader over the decoded payload of the file entry at key.
// The payload digest is verified as the stream is consumed; a mismatch
// surfaces as ErrDigestMismatch at end of stream.
func (c *Container) Open(key string) (io.ReadCloser, error) {
	if c.closed {
		return nil, ErrClosed
	}
	e, ok := c.Entry(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if e.Kind == KindDirectory {
		return nil, fmt.Errorf("%w: %q", ErrIsDirectory, key)
	}

	sec := io.NewSectionReader(c.f, int64(e.Offset), int64(e.Size)) //nolint:gosec // offsets come from the validated index
	dec, err := newDecoder(e.Codec, sec)
	if err != nil {
		return nil, err
	}
	var r io.Reader = dec
	if e.Shuffle {
		r = newShuffleReader(dec)
	}
	return &payloadReader{
		r:        r,
		dec:      dec,
		digester: digest.Canonical.Digester(),
		want:     e.Digest,
	}, nil
}

// Close releases the file handle. On writable handles it first writes the
// index and footer, then commits a staged append by renaming over the
// original; skipping Close on a writable handle loses all entries written
// through it.
func (c *Container) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if !c.writable {
		return c.f.Close()
	}
	err := c.finalize()
	if cerr := c.f.Close(); err == nil {
		err = cerr
	}
	if c.tmpPath == "" {
		return err
	}
	if err != nil {
		os.Remove(c.tmpPath)
		return err
	}
	if err := os.Rename(c.tmpPath, c.path); err != nil {
		os.Remove(c.tmpPath)
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

func (c *Container) writeGuard(key string) error {
	if c.closed {
		return ErrClosed
	}
	if !c.writable {
		return ErrReadOnly
	}
	if key == "." || !fs.ValidPath(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if _, ok := c.byKey[key]; ok {
		return fmt.Errorf("%w: %q", ErrKeyExists, key)
	}
	return nil
}

func (c *Container) add(e Entry) {
	c.byKey[e.Key] = len(c.entries)
	c.entries = append(c.entries, e)
}

func (c *Container) finalize() error {
	idx := buildIndex(c.entries)
	if _, err := c.f.Seek(int64(c.dataEnd), io.SeekStart); err != nil { //nolint:gosec // dataEnd tracks file offsets
		return fmt.Errorf("seek index region: %w", err)
	}
	if _, err := c.f.Write(idx); err != nil {
		return fmt.Errorf("write container index: %w", err)
	}

	footer := make([]byte, footerSize)
	binary.LittleEndian.PutUint64(footer[0:8], c.dataEnd)
	binary.LittleEndian.PutUint64(footer[8:16], uint64(len(idx)))
	copy(footer[16:], footerMagic)
	if _, err := c.f.Write(footer); err != nil {
		return fmt.Errorf("write container footer: %w", err)
	}

	// Appending over a previous, larger index can leave stale bytes past the
	// new footer.
	end := int64(c.dataEnd) + int64(len(idx)) + footerSize //nolint:gosec // dataEnd tracks file offsets
	if err := c.f.Truncate(end); err != nil {
		return fmt.Errorf("truncate container: %w", err)
	}
	return c.f.Sync()
}

// payloadReader streams a decoded payload with incremental digest
// verification at EOF.
type payloadReader struct {
	r        io.Reader
	dec      io.ReadCloser
	digester digest.Digester
	want     digest.Digest
	verified bool
}

func (pr *payloadReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.digester.Hash().Write(p[:n])
	}
	if err == io.EOF && !pr.verified {
		pr.verified = true
		if pr.want != "" && pr.digester.Digest() != pr.want {
			return n, ErrDigestMismatch
		}
	}
	return n, err
}

func (pr *payloadReader) Close() error {
	return pr.dec.Close()
}
