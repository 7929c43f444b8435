// Package schemafile loads table definitions from YAML. A file holds one
// table per document:
//
//	name: events
//	order_by: [id, -ts]
//	settings:
//	  skip_unknown_fields: true
//	  import_nested_json: true
//	  max_errors: 10
//	columns:
//	  - {name: id, type: UInt64}
//	  - {name: ts, type: DateTime}
//	  - {name: user.name, type: String}
//
// A "-" before an order_by column sorts it descending.
package schemafile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/eachrow"
	"github.com/reoring/eachrow/column"
)

// Table is one loaded table definition.
type Table struct {
	Name    string
	Schema  *eachrow.Schema
	OrderBy []string
	Options eachrow.Options
	Reader  eachrow.ReaderOpt
}

// DuplicateColumnError reports a column name defined twice, with both positions.
type DuplicateColumnError struct {
	Name      string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate column %q at %d:%d (first at %d:%d)", e.Name, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

type document struct {
	Name     string      `yaml:"name"`
	OrderBy  []string    `yaml:"order_by"`
	Settings settings    `yaml:"settings"`
	Columns  []columnDoc `yaml:"columns"`
}

type settings struct {
	SkipUnknownFields bool    `yaml:"skip_unknown_fields"`
	ImportNestedJSON  bool    `yaml:"import_nested_json"`
	BlockSize         int     `yaml:"block_size"`
	MaxErrors         int     `yaml:"max_errors"`
	MaxErrorRatio     float64 `yaml:"max_error_ratio"`
}

type columnDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	line int
	col  int
}

func (c *columnDoc) UnmarshalYAML(n *yaml.Node) error {
	type plain columnDoc
	if err := n.Decode((*plain)(c)); err != nil {
		return err
	}
	c.line, c.col = n.Line, n.Column
	return nil
}

// Load reads every table document from r. Unknown keys are rejected.
func Load(r io.Reader) ([]Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var out []Table
	for {
		var doc document
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		t, err := doc.table()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
}

// LoadFile is Load for a file on disk.
func LoadFile(path string) ([]Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tables, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tables, nil
}

func (d *document) table() (Table, error) {
	if d.Name == "" {
		return Table{}, errors.New("table without a name")
	}
	first := make(map[string][2]int, len(d.Columns))
	defs := make([]eachrow.ColumnDef, 0, len(d.Columns))
	for _, c := range d.Columns {
		if pos, dup := first[c.Name]; dup {
			return Table{}, &DuplicateColumnError{Name: c.Name, FirstLine: pos[0], FirstCol: pos[1], Line: c.line, Col: c.col}
		}
		first[c.Name] = [2]int{c.line, c.col}
		typ, err := column.Parse(c.Type)
		if err != nil {
			return Table{}, fmt.Errorf("table %s, line %d: %w", d.Name, c.line, err)
		}
		defs = append(defs, eachrow.ColumnDef{Name: c.Name, Type: typ})
	}
	s, err := eachrow.NewSchema(defs...)
	if err != nil {
		return Table{}, fmt.Errorf("table %s: %w", d.Name, err)
	}
	for _, k := range d.OrderBy {
		if _, ok := s.Index(strings.TrimPrefix(k, "-")); !ok {
			return Table{}, fmt.Errorf("table %s: order_by column %q is not defined", d.Name, k)
		}
	}
	return Table{
		Name:    d.Name,
		Schema:  s,
		OrderBy: d.OrderBy,
		Options: eachrow.Options{
			SkipUnknownFields: d.Settings.SkipUnknownFields,
			ImportNestedJSON:  d.Settings.ImportNestedJSON,
		},
		Reader: eachrow.ReaderOpt{
			BlockSize:     d.Settings.BlockSize,
			MaxErrors:     d.Settings.MaxErrors,
			MaxErrorRatio: d.Settings.MaxErrorRatio,
		},
	}, nil
}
