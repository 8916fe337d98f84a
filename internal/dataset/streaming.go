package dataset

// streaming.go wraps raw readers so encoding/csv never sees a UTF-8 BOM or
// invalid byte sequences. Both transforms work on a bufio.Reader and keep
// memory at the buffer size regardless of file size.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SkipBOM returns a buffered reader positioned after a leading UTF-8 BOM, if any.
func SkipBOM(r io.Reader) *bufio.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// Sanitizer replaces every invalid UTF-8 byte with '?'.
type Sanitizer struct {
	src *bufio.Reader
	buf [utf8.UTFMax]byte
	pen []byte
}

// NewSanitizer wraps r.
func NewSanitizer(r io.Reader) *Sanitizer {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Sanitizer{src: br}
}

// Read implements io.Reader.
func (s *Sanitizer) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(s.pen) > 0 {
			c := copy(p[n:], s.pen)
			s.pen = s.pen[c:]
			n += c
			continue
		}
		r, size, err := s.src.ReadRune()
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
		w := utf8.EncodeRune(s.buf[:], r)
		c := copy(p[n:], s.buf[:w])
		s.pen = s.buf[c:w]
		n += c
		if s.src.Buffered() == 0 && n > 0 {
			// Hand back what we have instead of blocking on the next fill.
			break
		}
	}
	return n, nil
}

// CountingReader tracks bytes read for load statistics.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// WrapRaw applies BOM skipping, UTF-8 sanitising and byte counting in that order.
func WrapRaw(r io.Reader) *CountingReader {
	return &CountingReader{r: NewSanitizer(SkipBOM(r))}
}
