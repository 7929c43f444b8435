package cursor

import (
	"bytes"

	"github.com/go-json-experiment/json/jsontext"
)

// ReadString consumes a quoted JSON string and appends its unescaped content
// to dst.
func (c *Cursor) ReadString(dst []byte) ([]byte, error) {
	c.mark = c.pos
	defer func() { c.mark = -1 }()
	if err := c.skipString(); err != nil {
		return dst, err
	}
	out, err := jsontext.AppendUnquote(dst, c.buf[c.mark:c.pos])
	if err != nil {
		return dst, &SyntaxError{Offset: c.base + int64(c.mark), Msg: err.Error()}
	}
	return out, nil
}

// SkipValue consumes one JSON value: an object or array with any nesting, a
// string with any escapes, a number or a literal. Containers are checked for
// balanced closers; scalars are only checked for their alphabet.
func (c *Cursor) SkipValue() error {
	c.SkipWhitespace()
	b, ok := c.Peek()
	if !ok {
		return c.unexpectedEOF()
	}
	switch b {
	case '"':
		return c.skipString()
	case '{', '[':
		return c.skipContainer()
	default:
		return c.skipScalar()
	}
}

// ReadValue consumes one JSON value like SkipValue and returns its raw bytes.
func (c *Cursor) ReadValue() ([]byte, error) {
	c.SkipWhitespace()
	c.mark = c.pos
	err := c.SkipValue()
	start := c.mark
	c.mark = -1
	if err != nil {
		return nil, err
	}
	return c.buf[start:c.pos], nil
}

func (c *Cursor) skipString() error {
	if err := c.AssertChar('"'); err != nil {
		return err
	}
	for {
		i := bytes.IndexAny(c.buf[c.pos:c.end], `"\`)
		if i < 0 {
			c.pos = c.end
			if !c.fill() {
				return c.unexpectedEOF()
			}
			continue
		}
		c.pos += i
		if c.buf[c.pos] == '"' {
			c.pos++
			return nil
		}
		for c.pos+1 >= c.end {
			if !c.fill() {
				return c.unexpectedEOF()
			}
		}
		c.pos += 2
	}
}

func (c *Cursor) skipContainer() error {
	var stack [32]byte
	closers := stack[:0]
	for {
		for c.pos < c.end {
			switch b := c.buf[c.pos]; b {
			case '{':
				closers = append(closers, '}')
				c.pos++
			case '[':
				closers = append(closers, ']')
				c.pos++
			case '}', ']':
				if len(closers) == 0 || closers[len(closers)-1] != b {
					return c.syntaxErrorf("unexpected %q", b)
				}
				closers = closers[:len(closers)-1]
				c.pos++
				if len(closers) == 0 {
					return nil
				}
			case '"':
				if err := c.skipString(); err != nil {
					return err
				}
			default:
				c.pos++
			}
		}
		if !c.fill() {
			return c.unexpectedEOF()
		}
	}
}

func (c *Cursor) skipScalar() error {
	start := c.Offset()
	for {
		for c.pos < c.end {
			b := c.buf[c.pos]
			if isDelimiter(b) {
				return c.scalarEnd(start, b)
			}
			if !isScalarByte(b) {
				return c.syntaxErrorf("invalid character %q in value", b)
			}
			c.pos++
		}
		if !c.fill() {
			break
		}
	}
	if c.Offset() == start {
		return c.unexpectedEOF()
	}
	return nil
}

func (c *Cursor) scalarEnd(start int64, next byte) error {
	if c.Offset() == start {
		return c.syntaxErrorf("expected value, got %q", next)
	}
	return nil
}

func isDelimiter(b byte) bool {
	switch b {
	case ',', '}', ']', ':', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func isScalarByte(b byte) bool {
	switch {
	case b >= '0' && b <= '9', b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
		return true
	case b == '+' || b == '-' || b == '.':
		return true
	}
	return false
}
