package eachrow

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/reoring/eachrow/cursor"
	"github.com/reoring/eachrow/i18n"
)

// Row error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeUnexpectedEOF  = "unexpected_eof"
	CodeDuplicateField = "duplicate_field"
	CodeUnknownField   = "unknown_field"
	CodeValueParse     = "value_parse"
	CodeSyntax         = "syntax_error"
	// CodeInvariant marks a decoder bug rather than bad input. Readers never
	// skip rows that fail with it.
	CodeInvariant = "invariant_violation"
)

// Frame is one entry of a RowError context stack.
type Frame struct {
	Key string // set for "while reading the value of key" frames
	Row int64  // set for row frames
}

func (f Frame) String() string {
	if f.Key != "" {
		return i18n.T("reading_key", map[string]string{"key": f.Key})
	}
	return i18n.T("row", map[string]string{"row": strconv.FormatInt(f.Row, 10)})
}

// RowError reports why a single row could not be decoded.
type RowError struct {
	Code   string // One of the codes listed above.
	Field  string // Column name, or the offending key for unknown/duplicate fields.
	Offset int64  // Byte offset in the input (-1 when unknown).
	// Context is ordered innermost first.
	Context []Frame
	Cause   error
}

func (e *RowError) Error() string {
	b := &strings.Builder{}
	b.WriteString(i18n.T(e.Code, nil))
	if e.Field != "" && (len(e.Context) == 0 || e.Context[0].Key != e.Field) {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	for _, f := range e.Context {
		b.WriteString(" (")
		b.WriteString(f.String())
		b.WriteByte(')')
	}
	return b.String()
}

func (e *RowError) Unwrap() error { return e.Cause }

// AsRowError extracts a RowError from an error using errors.As internally.
func AsRowError(err error) (*RowError, bool) {
	if err == nil {
		return nil, false
	}
	var re *RowError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsCode reports whether err carries a RowError with the given code.
func IsCode(err error, code string) bool {
	re, ok := AsRowError(err)
	return ok && re.Code == code
}

// structural classifies a cursor failure while walking object structure.
func structural(err error) error {
	code := CodeSyntax
	if errors.Is(err, io.ErrUnexpectedEOF) {
		code = CodeUnexpectedEOF
	}
	return &RowError{Code: code, Offset: offsetOf(err), Cause: err}
}

// annotate pushes a key frame onto a value failure, classifying foreign errors
// as value_parse.
func annotate(err error, key string) error {
	if re, ok := AsRowError(err); ok {
		re.Context = append(re.Context, Frame{Key: key})
		return re
	}
	code := CodeValueParse
	if errors.Is(err, io.ErrUnexpectedEOF) {
		code = CodeUnexpectedEOF
	}
	return &RowError{Code: code, Field: key, Offset: offsetOf(err), Cause: err, Context: []Frame{{Key: key}}}
}

func eofError(c *cursor.Cursor) error {
	cause := c.Err()
	if cause == nil {
		cause = io.ErrUnexpectedEOF
	}
	return &RowError{Code: CodeUnexpectedEOF, Offset: c.Offset(), Cause: cause}
}

// offsetOf finds the input offset carried by err, such as the one of a
// cursor.SyntaxError.
func offsetOf(err error) int64 {
	var oe interface{ InputOffset() int64 }
	if errors.As(err, &oe) {
		return oe.InputOffset()
	}
	return -1
}
