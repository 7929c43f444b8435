package cursor

import (
	"fmt"
	"io"
)

// SyntaxError reports malformed input at an absolute byte offset. Truncated
// input unwraps to io.ErrUnexpectedEOF.
type SyntaxError struct {
	Offset int64
	Msg    string
	err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.err }

// InputOffset returns Offset.
func (e *SyntaxError) InputOffset() int64 { return e.Offset }

func (c *Cursor) syntaxErrorf(format string, args ...any) error {
	return &SyntaxError{Offset: c.Offset(), Msg: fmt.Sprintf(format, args...)}
}

// unexpectedEOF surfaces a pending read error in preference to a plain
// truncation report.
func (c *Cursor) unexpectedEOF() error {
	if c.err != nil && c.err != io.EOF {
		return c.err
	}
	return &SyntaxError{Offset: c.Offset(), Msg: "unexpected end of stream", err: io.ErrUnexpectedEOF}
}
