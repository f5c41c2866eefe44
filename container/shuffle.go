package container

import "io"

// The shuffle filter groups the Nth byte of each fixed-width word together
// before compression, which improves ratios on structured numeric data.
// It is applied independently to fixed-size blocks so both directions can
// stream; the transform is length-preserving, so the final partial block
// needs no framing.
const (
	shuffleWord      = 8
	shuffleBlockSize = 64 * 1024
)

// shuffleBlock writes the shuffled form of src into dst. Both slices must
// have the same length. Bytes past the last full word are copied unchanged.
func shuffleBlock(dst, src []byte) {
	words := len(src) / shuffleWord
	for j := 0; j < shuffleWord; j++ {
		for i := 0; i < words; i++ {
			dst[j*words+i] = src[i*shuffleWord+j]
		}
	}
	copy(dst[words*shuffleWord:], src[words*shuffleWord:])
}

// unshuffleBlock inverts shuffleBlock.
func unshuffleBlock(dst, src []byte) {
	words := len(src) / shuffleWord
	for j := 0; j < shuffleWord; j++ {
		for i := 0; i < words; i++ {
			dst[i*shuffleWord+j] = src[j*words+i]
		}
	}
	copy(dst[words*shuffleWord:], src[words*shuffleWord:])
}

// shuffleWriter buffers writes into blocks, shuffles each full block, and
// forwards it to w. Close flushes the final partial block without closing w.
type shuffleWriter struct {
	w   io.Writer
	buf []byte
	out []byte
	n   int
}

func newShuffleWriter(w io.Writer) *shuffleWriter {
	return &shuffleWriter{
		w:   w,
		buf: make([]byte, shuffleBlockSize),
		out: make([]byte, shuffleBlockSize),
	}
}

func (sw *shuffleWriter) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		n := copy(sw.buf[sw.n:], p)
		sw.n += n
		p = p[n:]
		if sw.n == len(sw.buf) {
			if err := sw.flush(); err != nil {
				return total - len(p), err
			}
		}
	}
	return total, nil
}

func (sw *shuffleWriter) Close() error {
	return sw.flush()
}

func (sw *shuffleWriter) flush() error {
	if sw.n == 0 {
		return nil
	}
	shuffleBlock(sw.out[:sw.n], sw.buf[:sw.n])
	_, err := sw.w.Write(sw.out[:sw.n])
	sw.n = 0
	return err
}

// shuffleReader reads blocks from r, unshuffles them, and serves the result.
// Block boundaries on the read side match the write side because blocks have
// a fixed size and the transform preserves length.
type shuffleReader struct {
	r    io.Reader
	buf  []byte
	out  []byte
	pos  int
	n    int
	done bool
}

func newShuffleReader(r io.Reader) *shuffleReader {
	return &shuffleReader{
		r:   r,
		buf: make([]byte, shuffleBlockSize),
		out: make([]byte, shuffleBlockSize),
	}
}

func (sr *shuffleReader) Read(p []byte) (int, error) {
	for sr.pos == sr.n {
		if sr.done {
			return 0, io.EOF
		}
		if err := sr.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, sr.out[sr.pos:sr.n])
	sr.pos += n
	return n, nil
}

func (sr *shuffleReader) fill() error {
	n, err := io.ReadFull(sr.r, sr.buf)
	switch err {
	case nil:
	case io.ErrUnexpectedEOF, io.EOF:
		sr.done = true
	default:
		return err
	}
	unshuffleBlock(sr.out[:n], sr.buf[:n])
	sr.pos, sr.n = 0, n
	if n == 0 && !sr.done {
		return io.ErrNoProgress
	}
	return nil
}
