package container

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffleBlockInverse(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, 1, 7, 8, 9, 63, 64, 1000, shuffleBlockSize} {
		src := make([]byte, size)
		_, err := rand.Read(src)
		require.NoError(t, err)

		shuffled := make([]byte, size)
		restored := make([]byte, size)
		shuffleBlock(shuffled, src)
		unshuffleBlock(restored, shuffled)
		assert.Equal(t, src, restored, "size %d", size)
	}
}

func TestShuffleBlockLayout(t *testing.T) {
	t.Parallel()

	// Two 8-byte words: all first bytes, then all second bytes, and so on.
	src := []byte{
		0, 1, 2, 3, 4, 5, 6, 7,
		10, 11, 12, 13, 14, 15, 16, 17,
	}
	want := []byte{
		0, 10, 1, 11, 2, 12, 3, 13,
		4, 14, 5, 15, 6, 16, 7, 17,
	}
	dst := make([]byte, len(src))
	shuffleBlock(dst, src)
	assert.Equal(t, want, dst)
}

func TestShuffleBlockTail(t *testing.T) {
	t.Parallel()

	// Bytes past the last full word pass through unchanged.
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8, 250, 251, 252}
	dst := make([]byte, len(src))
	shuffleBlock(dst, src)
	assert.Equal(t, []byte{250, 251, 252}, dst[8:])
}

func TestShuffleWriterReaderRoundTrip(t *testing.T) {
	t.Parallel()

	sizes := []int{0, 1, 7, 8, 100, shuffleBlockSize - 1, shuffleBlockSize, shuffleBlockSize + 3, 3 * shuffleBlockSize}
	for _, size := range sizes {
		t.Run(fmt.Sprintf("size-%d", size), func(t *testing.T) {
			t.Parallel()

			src := make([]byte, size)
			_, err := rand.Read(src)
			require.NoError(t, err)

			var buf bytes.Buffer
			sw := newShuffleWriter(&buf)
			// Uneven write sizes cross block boundaries mid-write.
			for chunk := src; len(chunk) > 0; {
				n := 777
				if n > len(chunk) {
					n = len(chunk)
				}
				_, err := sw.Write(chunk[:n])
				require.NoError(t, err)
				chunk = chunk[n:]
			}
			require.NoError(t, sw.Close())
			require.Equal(t, size, buf.Len())

			got, err := io.ReadAll(newShuffleReader(&buf))
			require.NoError(t, err)
			assert.Equal(t, src, got)
		})
	}
}
