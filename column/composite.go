package column

import (
	"fmt"

	"github.com/reoring/eachrow"
	"github.com/reoring/eachrow/cursor"
)

type nullableType struct{ inner scalarType }

// Nullable wraps a scalar type so that JSON null is kept as null instead of
// the inner type's default.
func Nullable(inner eachrow.ColumnType) (eachrow.ColumnType, error) {
	s, ok := inner.(scalarType)
	if !ok {
		return nil, fmt.Errorf("nested type %s cannot be inside Nullable", inner.Name())
	}
	return &nullableType{inner: s}, nil
}

func (t *nullableType) Name() string { return "Nullable(" + t.inner.Name() + ")" }

func (t *nullableType) NewColumn() eachrow.Column {
	return &NullableColumn{inner: t.inner.NewColumn()}
}

// NullableColumn pairs a scalar column with a null map. Null rows hold the
// inner default.
type NullableColumn struct {
	inner eachrow.Column
	nulls []bool
}

func (n *NullableColumn) DecodeJSON(c *cursor.Cursor) error {
	if b, ok := c.Peek(); ok && b == 'n' {
		raw, err := c.ReadValue()
		if err != nil {
			return err
		}
		if !isNull(raw) {
			return newParseError("Nullable", raw, c.Offset()-int64(len(raw)), nil)
		}
		n.inner.InsertDefault()
		n.nulls = append(n.nulls, true)
		return nil
	}
	if err := n.inner.DecodeJSON(c); err != nil {
		return err
	}
	n.nulls = append(n.nulls, false)
	return nil
}

// InsertDefault appends null.
func (n *NullableColumn) InsertDefault() {
	n.inner.InsertDefault()
	n.nulls = append(n.nulls, true)
}

func (n *NullableColumn) Len() int { return len(n.nulls) }

func (n *NullableColumn) Truncate(rows int) {
	n.inner.Truncate(rows)
	n.nulls = n.nulls[:rows]
}

func (n *NullableColumn) Value(i int) any {
	if n.nulls[i] {
		return nil
	}
	return n.inner.Value(i)
}

func (n *NullableColumn) IsNull(i int) bool { return n.nulls[i] }

type arrayType struct{ elem eachrow.ColumnType }

// Array stores JSON arrays whose elements are of type elem. JSON null reads
// as an empty array.
func Array(elem eachrow.ColumnType) eachrow.ColumnType { return &arrayType{elem: elem} }

func (t *arrayType) Name() string { return "Array(" + t.elem.Name() + ")" }

func (t *arrayType) NewColumn() eachrow.Column {
	return &ArrayColumn{elems: t.elem.NewColumn()}
}

// ArrayColumn keeps all elements in one flat column; offsets[i] is the end
// of row i within it.
type ArrayColumn struct {
	elems   eachrow.Column
	offsets []int
}

func (a *ArrayColumn) DecodeJSON(c *cursor.Cursor) error {
	start := a.elems.Len()
	if err := a.decodeElems(c); err != nil {
		a.elems.Truncate(start)
		return err
	}
	a.offsets = append(a.offsets, a.elems.Len())
	return nil
}

func (a *ArrayColumn) decodeElems(c *cursor.Cursor) error {
	if b, ok := c.Peek(); ok && b == 'n' {
		raw, err := c.ReadValue()
		if err != nil {
			return err
		}
		if !isNull(raw) {
			return newParseError("Array", raw, c.Offset()-int64(len(raw)), nil)
		}
		return nil
	}
	if err := c.AssertChar('['); err != nil {
		return err
	}
	for i := 0; ; i++ {
		c.SkipWhitespace()
		if b, ok := c.Peek(); ok && b == ']' {
			c.Advance(1)
			return nil
		}
		if i > 0 {
			if err := c.AssertChar(','); err != nil {
				return err
			}
			c.SkipWhitespace()
		}
		if err := a.elems.DecodeJSON(c); err != nil {
			return err
		}
	}
}

// InsertDefault appends an empty array.
func (a *ArrayColumn) InsertDefault() { a.offsets = append(a.offsets, a.elems.Len()) }

func (a *ArrayColumn) Len() int { return len(a.offsets) }

func (a *ArrayColumn) Truncate(rows int) {
	a.offsets = a.offsets[:rows]
	end := 0
	if rows > 0 {
		end = a.offsets[rows-1]
	}
	a.elems.Truncate(end)
}

func (a *ArrayColumn) Value(i int) any {
	start := 0
	if i > 0 {
		start = a.offsets[i-1]
	}
	out := make([]any, 0, a.offsets[i]-start)
	for j := start; j < a.offsets[i]; j++ {
		out = append(out, a.elems.Value(j))
	}
	return out
}
