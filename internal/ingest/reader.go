package ingest

// reader.go wraps uploaded files so encoding/csv sees clean UTF-8:
//
//   - a leading UTF-8 byte order mark is dropped
//   - invalid UTF-8 bytes become '?'
//   - bytes consumed are counted for logging
//
// Everything streams; nothing buffers the whole file.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// cleanReader strips a BOM and replaces invalid UTF-8 sequences.
type cleanReader struct {
	src     *bufio.Reader
	started bool
	pending []byte // encoded rune that did not fit in the caller's buffer
}

func newCleanReader(r io.Reader) *cleanReader {
	return &cleanReader{src: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (c *cleanReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if !c.started {
		c.started = true
		if head, err := c.src.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = c.src.Discard(len(utf8BOM))
		}
	}

	n := copy(p, c.pending)
	c.pending = c.pending[n:]

	for n < len(p) {
		// Do not block for more input once something can be returned.
		if n > 0 && c.src.Buffered() == 0 {
			break
		}
		r, size, err := c.src.ReadRune()
		if err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}
		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}
		var enc [utf8.UTFMax]byte
		k := utf8.EncodeRune(enc[:], r)
		copied := copy(p[n:], enc[:k])
		n += copied
		if copied < k {
			c.pending = append(c.pending[:0], enc[copied:k]...)
		}
	}
	return n, nil
}

// countingReader tracks bytes read from the underlying reader.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
