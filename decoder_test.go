package eachrow_test

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/reoring/eachrow"
	"github.com/reoring/eachrow/column"
	"github.com/reoring/eachrow/cursor"
)

func schema(t *testing.T, defs ...string) *eachrow.Schema {
	t.Helper()
	var cols []eachrow.ColumnDef
	for i := 0; i < len(defs); i += 2 {
		typ, err := column.Parse(defs[i+1])
		if err != nil {
			t.Fatalf("column type %q: %v", defs[i+1], err)
		}
		cols = append(cols, eachrow.ColumnDef{Name: defs[i], Type: typ})
	}
	s, err := eachrow.NewSchema(cols...)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return s
}

// oneByte reads in one byte per Read through the smallest cursor buffer.
func oneByte(in string) *cursor.Cursor {
	return cursor.NewSize(iotest.OneByteReader(strings.NewReader(in)), 16)
}

// decodeAll decodes every row of in into one block, failing on any error.
func decodeAll(t *testing.T, s *eachrow.Schema, opt eachrow.Options, in string) *eachrow.Block {
	t.Helper()
	d := eachrow.NewDecoder(s, opt)
	c := oneByte(in)
	b := eachrow.NewBlock(s)
	for {
		err := b.DecodeRow(d, c)
		if errors.Is(err, io.EOF) {
			return b
		}
		if err != nil {
			t.Fatalf("row %d: %v", b.Rows()+1, err)
		}
	}
}

func mustRowError(t *testing.T, err error, code string) *eachrow.RowError {
	t.Helper()
	re, ok := eachrow.AsRowError(err)
	if !ok {
		t.Fatalf("expected RowError %s, got %v", code, err)
	}
	if re.Code != code {
		t.Fatalf("code: got %s want %s (%v)", re.Code, code, err)
	}
	return re
}

func equal(t *testing.T, what string, got, want any) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("%s: got %#v want %#v", what, got, want)
	}
}

func TestDecodeRow_Basic(t *testing.T) {
	s := schema(t, "id", "Int64", "name", "String", "score", "Nullable(Float64)")
	b := decodeAll(t, s, eachrow.Options{}, `{"id":1,"name":"alice","score":9.5}
{"name":"bob","id":2}
`)
	if b.Rows() != 2 {
		t.Fatalf("rows: got %d", b.Rows())
	}
	equal(t, "row 0", b.Row(0), map[string]any{"id": int64(1), "name": "alice", "score": 9.5})
	equal(t, "row 1", b.Row(1), map[string]any{"id": int64(2), "name": "bob", "score": nil})
	if f := b.Presence[1].Flags(2); f != eachrow.PresenceDefaultApplied {
		t.Fatalf("absent score flags: %v", f)
	}
	if f := b.Presence[1].Flags(0); f != eachrow.PresenceSeen {
		t.Fatalf("present id flags: %v", f)
	}
}

func TestDecodeRow_Completeness(t *testing.T) {
	s := schema(t, "a", "Int64", "b", "String", "c", "Bool")
	b := decodeAll(t, s, eachrow.Options{}, `{"a":1}{"b":"x","c":true}{}{"c":false,"a":3,"b":"y"}`)
	if b.Rows() != 4 {
		t.Fatalf("rows: got %d", b.Rows())
	}
	for i, col := range b.Columns {
		if col.Len() != 4 {
			t.Fatalf("column %d holds %d values", i, col.Len())
		}
	}
	for i, want := range []int{1, 2, 0, 3} {
		if got := b.Presence[i].Count(); got != want {
			t.Fatalf("row %d: %d keys seen, want %d", i, got, want)
		}
	}
}

func TestDecodeRow_OrderIndependence(t *testing.T) {
	s := schema(t, "a", "Int64", "b", "String", "c", "Array(Int32)")
	b := decodeAll(t, s, eachrow.Options{}, `{"a":1,"b":"x","c":[1,2]}
{"c":[1,2],"a":1,"b":"x"}
{"b":"x","c":[1,2],"a":1}
{"a":1,"b":"x","c":[1,2]}
`)
	if b.Rows() != 4 {
		t.Fatalf("rows: got %d", b.Rows())
	}
	for i := 1; i < b.Rows(); i++ {
		equal(t, "values", b.Values(i), b.Values(0))
		equal(t, "presence", b.Presence[i], b.Presence[0])
	}
}

func TestDecodeRow_DuplicateField(t *testing.T) {
	s := schema(t, "a", "Int64")
	d := eachrow.NewDecoder(s)
	b := eachrow.NewBlock(s)

	err := b.DecodeRow(d, cursor.FromBytes([]byte(`{"a":1,"a":2}`)))
	re := mustRowError(t, err, eachrow.CodeDuplicateField)
	if re.Field != "a" {
		t.Fatalf("field: got %q", re.Field)
	}
	if !strings.Contains(err.Error(), "duplicate field") {
		t.Fatalf("message: %v", err)
	}
	if b.Columns[0].Len() != 0 || b.Rows() != 0 {
		t.Fatalf("failed row left %d values, %d rows", b.Columns[0].Len(), b.Rows())
	}
}

func TestDecodeRow_UnknownField(t *testing.T) {
	s := schema(t, "a", "Int64")
	in := `{"a":3,"z":{"deep":[1,{"x":"}"}]}}`

	b := decodeAll(t, s, eachrow.Options{SkipUnknownFields: true}, in)
	if b.Rows() != 1 || b.Columns[0].Value(0) != int64(3) {
		t.Fatalf("skip: got %v", b.Values(0))
	}

	_, err := eachrow.NewDecoder(s).DecodeRow(cursor.FromBytes([]byte(in)), s.NewColumns())
	if re := mustRowError(t, err, eachrow.CodeUnknownField); re.Field != "z" {
		t.Fatalf("field: got %q", re.Field)
	}
}

func TestDecodeRow_NestedFlattening(t *testing.T) {
	s := schema(t, "a", "Int64", "n.x", "Int64", "n.y", "Int64", "p.q.r", "String")
	opt := eachrow.Options{ImportNestedJSON: true}
	b := decodeAll(t, s, opt, `{"a":2,"n":{"x":5,"y":6}}
{"n":{"y":7},"p":{"q":{"r":"deep"}},"a":1}
{"n":null,"n.x":9}
`)
	if b.Rows() != 3 {
		t.Fatalf("rows: got %d", b.Rows())
	}
	equal(t, "row 0", b.Values(0), []any{int64(2), int64(5), int64(6), ""})
	if b.Presence[0].Count() != 3 {
		t.Fatalf("row 0 seen: %d", b.Presence[0].Count())
	}
	equal(t, "row 1", b.Values(1), []any{int64(1), int64(0), int64(7), "deep"})
	if b.Presence[1].Seen(1) {
		t.Fatalf("n.x was not in row 1")
	}
	equal(t, "row 2", b.Values(2), []any{int64(0), int64(9), int64(0), ""})

	// without nested import the group key is unknown
	_, err := eachrow.NewDecoder(s).DecodeRow(cursor.FromBytes([]byte(`{"n":{"x":1}}`)), s.NewColumns())
	mustRowError(t, err, eachrow.CodeUnknownField)
}

func TestDecodeRow_NestedDuplicateAcrossForms(t *testing.T) {
	s := schema(t, "n.x", "Int64")
	d := eachrow.NewDecoder(s, eachrow.Options{ImportNestedJSON: true})
	_, err := d.DecodeRow(cursor.FromBytes([]byte(`{"n.x":1,"n":{"x":2}}`)), s.NewColumns())
	if re := mustRowError(t, err, eachrow.CodeDuplicateField); re.Field != "n.x" {
		t.Fatalf("field: got %q", re.Field)
	}
}

func TestDecodeRow_NestedErrorsCarryFullName(t *testing.T) {
	s := schema(t, "n.x", "Int64")
	d := eachrow.NewDecoder(s, eachrow.Options{ImportNestedJSON: true})
	_, err := d.DecodeRow(cursor.FromBytes([]byte(`{"n":{"x":"oops"}}`)), s.NewColumns())
	re := mustRowError(t, err, eachrow.CodeValueParse)
	if len(re.Context) != 1 || re.Context[0].Key != "n.x" {
		t.Fatalf("context: %+v", re.Context)
	}
	if !strings.Contains(err.Error(), "while reading the value of key n.x") {
		t.Fatalf("message: %v", err)
	}

	_, err = d.DecodeRow(cursor.FromBytes([]byte(`{"n":{"z":1}}`)), s.NewColumns())
	if re := mustRowError(t, err, eachrow.CodeUnknownField); re.Field != "n.z" {
		t.Fatalf("field: got %q", re.Field)
	}
}

func TestDecodeRow_SeparatorDeferral(t *testing.T) {
	s := schema(t, "a", "Int64")
	d := eachrow.NewDecoder(s)
	c := cursor.FromBytes([]byte(`{"a":1};{"a":2}, {"a":3}`))
	cols := s.NewColumns()

	for i, want := range []int64{1, 2, 3} {
		if _, err := d.DecodeRow(c, cols); err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		if got := cols[0].Value(i); got != want {
			t.Fatalf("row %d: got %v", i, got)
		}
		if i == 0 {
			// the separator belongs to the next row
			if b, ok := c.Peek(); !ok || b != ';' {
				t.Fatalf("separator consumed early, peek=%q", b)
			}
		}
	}
	if _, err := d.DecodeRow(c, cols); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestDecodeRow_Recovery(t *testing.T) {
	s := schema(t, "a", "Int64", "n.x", "Int64")
	d := eachrow.NewDecoder(s, eachrow.Options{ImportNestedJSON: true})
	c := cursor.FromBytes([]byte("{\"n\":{\"x\": }}\n{\"a\": }\n{\"a\":5}"))
	b := eachrow.NewBlock(s)

	for range 2 {
		mustRowError(t, b.DecodeRow(d, c), eachrow.CodeValueParse)
		d.Sync(c)
	}
	if err := b.DecodeRow(d, c); err != nil {
		t.Fatalf("after sync: %v", err)
	}
	equal(t, "row", b.Values(0), []any{int64(5), int64(0)})
	if b.Presence[0].Count() != 1 || !b.Presence[0].Seen(0) {
		t.Fatalf("presence: only a should be seen")
	}
}

func TestDecodeRow_EmptyObjectDefaults(t *testing.T) {
	s := schema(t, "i", "Int64", "s", "String", "n", "Nullable(String)", "arr", "Array(Int64)", "d", "Decimal(10, 2)")
	b := decodeAll(t, s, eachrow.Options{}, `{}`)
	if b.Rows() != 1 || b.Presence[0].Count() != 0 {
		t.Fatalf("rows=%d seen=%d", b.Rows(), b.Presence[0].Count())
	}
	for i := range b.Columns {
		if f := b.Presence[0].Flags(i); f != eachrow.PresenceDefaultApplied {
			t.Fatalf("column %d flags: %v", i, f)
		}
	}
	row := b.Row(0)
	equal(t, "i", row["i"], int64(0))
	equal(t, "s", row["s"], "")
	equal(t, "n", row["n"], nil)
	equal(t, "arr", row["arr"], []any{})
}

func TestDecodeRow_EscapedKeys(t *testing.T) {
	s := schema(t, `we"ird`, "String", "é", "Int64")
	b := decodeAll(t, s, eachrow.Options{}, `{"we\"ird":"v","é":4}`)
	equal(t, "row", b.Values(0), []any{"v", int64(4)})
}

// Whether a key is accepted must not depend on how the input is chunked.
func TestDecodeRow_KeysIndependentOfBuffering(t *testing.T) {
	s := schema(t, "a", "Int64", "n.x", "Int64")
	opt := eachrow.Options{SkipUnknownFields: true, ImportNestedJSON: true}
	cases := []string{
		"{\"z\xff\":1,\"a\":2}",
		"{\"z\tq\":1,\"a\":2}",
		"{\"n\":{\"x\x01\":1},\"a\":2}",
		`{"é":1,"a":2}`,
		`{"zé":1,"a":2}`,
	}
	for _, in := range cases {
		t.Run(in, func(t *testing.T) {
			type result struct {
				code   string
				values []any
			}
			run := func(c *cursor.Cursor) result {
				cols := s.NewColumns()
				_, err := eachrow.NewDecoder(s, opt).DecodeRow(c, cols)
				if err != nil {
					re, ok := eachrow.AsRowError(err)
					if !ok {
						t.Fatalf("expected RowError, got %v", err)
					}
					return result{code: re.Code}
				}
				return result{values: []any{cols[0].Value(0), cols[1].Value(0)}}
			}
			whole := run(cursor.FromBytes([]byte(in)))
			split := run(oneByte(in))
			equal(t, "one byte reads vs whole input", split, whole)
		})
	}

	// raw control characters and invalid UTF-8 are malformed keys
	for _, in := range cases[:3] {
		_, err := eachrow.NewDecoder(s, opt).DecodeRow(cursor.FromBytes([]byte(in)), s.NewColumns())
		mustRowError(t, err, eachrow.CodeSyntax)
	}
}

func TestDecodeRow_StructuralErrors(t *testing.T) {
	s := schema(t, "a", "Int64")
	cases := map[string]string{
		`[1]`:         eachrow.CodeSyntax,
		`{"a" 1}`:     eachrow.CodeSyntax,
		`{"a":1 "b"}`: eachrow.CodeSyntax,
		`{"a":1`:      eachrow.CodeUnexpectedEOF,
		`{"a`:         eachrow.CodeUnexpectedEOF,
	}
	for in, code := range cases {
		t.Run(in, func(t *testing.T) {
			_, err := eachrow.NewDecoder(s).DecodeRow(cursor.FromBytes([]byte(in)), s.NewColumns())
			mustRowError(t, err, code)
		})
	}
}

func TestDecodeRow_ColumnCountMismatch(t *testing.T) {
	s := schema(t, "a", "Int64", "b", "Int64")
	_, err := eachrow.NewDecoder(s).DecodeRow(cursor.FromBytes([]byte(`{}`)), s.NewColumns()[:1])
	mustRowError(t, err, eachrow.CodeInvariant)
}

func TestNewSchema_Invalid(t *testing.T) {
	cases := map[string][]eachrow.ColumnDef{
		"empty": nil,
		"duplicate": {
			{Name: "a", Type: column.Int64()},
			{Name: "a", Type: column.String()},
		},
		"untyped": {{Name: "a"}},
	}
	for name, defs := range cases {
		if _, err := eachrow.NewSchema(defs...); !errors.Is(err, eachrow.ErrInvalidSchema) {
			t.Fatalf("%s: expected ErrInvalidSchema, got %v", name, err)
		}
	}
}
