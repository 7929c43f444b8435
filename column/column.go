// Package column provides the column types a JSONEachRow schema is built from:
// integers, floats, strings, booleans, dates, UUIDs, decimals, raw JSON and
// the Nullable and Array wrappers.
package column

import (
	"fmt"

	"github.com/reoring/eachrow"
	"github.com/reoring/eachrow/cursor"
)

// scalarType is implemented by the types Nullable accepts.
type scalarType interface {
	eachrow.ColumnType
	isScalar()
}

// scalar is a column type whose values are a single JSON token.
type scalar[T any] struct {
	name  string
	def   T
	parse func(raw []byte) (T, error)
	// export converts a stored value for Value; identity when nil.
	export func(T) any
}

func (t *scalar[T]) Name() string { return t.name }
func (t *scalar[T]) isScalar()    {}

func (t *scalar[T]) NewColumn() eachrow.Column { return &Vector[T]{typ: t} }

// Vector stores the values of a scalar column.
type Vector[T any] struct {
	typ  *scalar[T]
	data []T
}

// DecodeJSON appends the value at c. JSON null appends the type default.
func (v *Vector[T]) DecodeJSON(c *cursor.Cursor) error {
	c.SkipWhitespace()
	off := c.Offset()
	raw, err := c.ReadValue()
	if err != nil {
		return err
	}
	if isNull(raw) {
		v.InsertDefault()
		return nil
	}
	x, err := v.typ.parse(raw)
	if err != nil {
		return newParseError(v.typ.name, raw, off, err)
	}
	v.data = append(v.data, x)
	return nil
}

func (v *Vector[T]) InsertDefault() { v.data = append(v.data, v.typ.def) }

func (v *Vector[T]) Len() int { return len(v.data) }

func (v *Vector[T]) Truncate(n int) {
	clear(v.data[n:])
	v.data = v.data[:n]
}

func (v *Vector[T]) Value(i int) any {
	if v.typ.export != nil {
		return v.typ.export(v.data[i])
	}
	return v.data[i]
}

// Data returns the stored values. The slice is shared with the column.
func (v *Vector[T]) Data() []T { return v.data }

func isNull(raw []byte) bool { return string(raw) == "null" }

// ParseError reports a JSON value that does not fit its column type.
type ParseError struct {
	Type   string
	Text   string // offending input, shortened
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("cannot parse %s from %s", e.Type, e.Text)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// InputOffset returns Offset.
func (e *ParseError) InputOffset() int64 { return e.Offset }

const maxErrorText = 64

func newParseError(typ string, raw []byte, off int64, err error) *ParseError {
	text := string(raw)
	if len(text) > maxErrorText {
		text = text[:maxErrorText] + "..."
	}
	return &ParseError{Type: typ, Text: text, Offset: off, Err: err}
}
