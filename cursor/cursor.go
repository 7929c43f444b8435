// Package cursor implements a buffered, positioned byte reader tailored to
// record-oriented JSON input.
//
// A Cursor exposes its buffered window directly (Buffered, FindFirstOf) so
// callers can scan without copying. Such slices, and the ones returned by
// ReadValue, stay valid only until the next call that may read more input.
package cursor

import (
	"bytes"
	"io"
)

const defaultBufferSize = 64 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Cursor reads from an io.Reader through a growable buffer.
type Cursor struct {
	r    io.Reader
	buf  []byte
	pos  int
	end  int
	base int64 // absolute offset of buf[0]
	mark int   // bytes from mark onward survive refills; -1 when unset
	err  error // sticky read error, io.EOF included
}

// New returns a Cursor reading from r with the default buffer size.
func New(r io.Reader) *Cursor { return NewSize(r, defaultBufferSize) }

// NewSize returns a Cursor with an initial buffer of the given size. The buffer
// grows when a single value does not fit.
func NewSize(r io.Reader, size int) *Cursor {
	if size < 16 {
		size = 16
	}
	return &Cursor{r: r, buf: make([]byte, size), mark: -1}
}

// FromBytes returns a Cursor over an in-memory input. b is not copied and is
// never written to.
func FromBytes(b []byte) *Cursor {
	return &Cursor{buf: b, end: len(b), mark: -1, err: io.EOF}
}

// Offset returns the absolute position of the next unread byte.
func (c *Cursor) Offset() int64 { return c.base + int64(c.pos) }

// Err returns the first non-EOF error returned by the underlying reader.
func (c *Cursor) Err() error {
	if c.err == io.EOF {
		return nil
	}
	return c.err
}

// EOF reports whether the input is exhausted.
func (c *Cursor) EOF() bool { return c.pos >= c.end && !c.fill() }

// Peek returns the next byte without consuming it.
func (c *Cursor) Peek() (byte, bool) {
	if c.pos >= c.end && !c.fill() {
		return 0, false
	}
	return c.buf[c.pos], true
}

// Advance consumes n bytes. n must not exceed len(c.Buffered()).
func (c *Cursor) Advance(n int) { c.pos += n }

// Buffered returns the unread bytes currently held in the buffer.
func (c *Cursor) Buffered() []byte { return c.buf[c.pos:c.end] }

// FindFirstOf returns the index within Buffered of the first byte at or after
// from that is contained in set, or -1 if none of the buffered bytes match.
func (c *Cursor) FindFirstOf(from int, set string) int {
	if c.pos+from >= c.end {
		return -1
	}
	i := bytes.IndexAny(c.buf[c.pos+from:c.end], set)
	if i < 0 {
		return -1
	}
	return from + i
}

// SkipWhitespace consumes JSON insignificant whitespace.
func (c *Cursor) SkipWhitespace() {
	for {
		for c.pos < c.end {
			switch c.buf[c.pos] {
			case ' ', '\t', '\n', '\r':
				c.pos++
			default:
				return
			}
		}
		if !c.fill() {
			return
		}
	}
}

// AssertChar consumes ch or fails without consuming anything.
func (c *Cursor) AssertChar(ch byte) error {
	b, ok := c.Peek()
	if !ok {
		return c.unexpectedEOF()
	}
	if b != ch {
		return c.syntaxErrorf("expected %q, got %q", ch, b)
	}
	c.pos++
	return nil
}

// SkipBOM consumes a UTF-8 byte order mark at the current position.
func (c *Cursor) SkipBOM() {
	for c.end-c.pos < len(utf8BOM) && c.fill() {
	}
	if bytes.HasPrefix(c.buf[c.pos:c.end], utf8BOM) {
		c.pos += len(utf8BOM)
	}
}

// SkipToNextLine discards input up to and including the next newline that is
// not escaped by a backslash, or up to the end of the stream. It never fails.
func (c *Cursor) SkipToNextLine() {
	for {
		i := bytes.IndexAny(c.buf[c.pos:c.end], "\n\\")
		if i < 0 {
			c.pos = c.end
			if !c.fill() {
				return
			}
			continue
		}
		c.pos += i
		if c.buf[c.pos] == '\n' {
			c.pos++
			return
		}
		c.pos++
		if c.pos >= c.end && !c.fill() {
			return
		}
		c.pos++
	}
}

// fill reads more input, keeping every byte from the mark (or the current
// position when no mark is set). It reports whether new bytes arrived.
func (c *Cursor) fill() bool {
	if c.err != nil {
		return false
	}
	keep := c.pos
	if c.mark >= 0 && c.mark < keep {
		keep = c.mark
	}
	if keep > 0 {
		n := copy(c.buf, c.buf[keep:c.end])
		c.base += int64(keep)
		c.pos -= keep
		if c.mark >= 0 {
			c.mark -= keep
		}
		c.end = n
	}
	if c.end == len(c.buf) {
		nb := make([]byte, 2*len(c.buf))
		copy(nb, c.buf[:c.end])
		c.buf = nb
	}
	for range 100 {
		n, err := c.r.Read(c.buf[c.end:])
		c.end += n
		if err != nil {
			c.err = err
			return n > 0
		}
		if n > 0 {
			return true
		}
	}
	c.err = io.ErrNoProgress
	return false
}
