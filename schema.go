package eachrow

import (
	"errors"
	"fmt"

	"github.com/reoring/eachrow/cursor"
)

// ColumnType describes how values of a column are stored and parsed.
type ColumnType interface {
	Name() string
	NewColumn() Column
}

// Column is the append-only storage of one column in a block.
type Column interface {
	// DecodeJSON parses one JSON value at the cursor and appends it.
	DecodeJSON(c *cursor.Cursor) error
	// InsertDefault appends the type's default value.
	InsertDefault()
	Len() int
	// Truncate drops every value from row n onward.
	Truncate(n int)
	// Value returns row i as a plain Go value.
	Value(i int) any
}

// ColumnDef names one column of a Schema.
type ColumnDef struct {
	Name string
	Type ColumnType
}

// ErrInvalidSchema is wrapped by every NewSchema failure.
var ErrInvalidSchema = errors.New("invalid schema")

// Schema is the ordered, immutable list of columns a stream decodes into. It
// may be shared by any number of decoders.
type Schema struct {
	defs  []ColumnDef
	index map[string]int
}

// NewSchema validates defs: at least one column, non-empty unique names, and a
// type for each column.
func NewSchema(defs ...ColumnDef) (*Schema, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrInvalidSchema)
	}
	s := &Schema{defs: append([]ColumnDef(nil), defs...), index: make(map[string]int, len(defs))}
	for i, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: column %d has no name", ErrInvalidSchema, i)
		}
		if d.Type == nil {
			return nil, fmt.Errorf("%w: column %q has no type", ErrInvalidSchema, d.Name)
		}
		if _, dup := s.index[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, d.Name)
		}
		s.index[d.Name] = i
	}
	return s, nil
}

// MustSchema is NewSchema for statically known column lists.
func MustSchema(defs ...ColumnDef) *Schema {
	s, err := NewSchema(defs...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Len() int { return len(s.defs) }

// Def returns column i.
func (s *Schema) Def(i int) ColumnDef { return s.defs[i] }

func (s *Schema) Names() []string {
	out := make([]string, len(s.defs))
	for i, d := range s.defs {
		out[i] = d.Name
	}
	return out
}

// Index returns the position of the named column.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// NewColumns allocates empty storage for every column, in schema order.
func (s *Schema) NewColumns() []Column {
	out := make([]Column, len(s.defs))
	for i, d := range s.defs {
		out[i] = d.Type.NewColumn()
	}
	return out
}
