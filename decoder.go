package eachrow

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/reoring/eachrow/cursor"
	"github.com/reoring/eachrow/internal/engine"
)

// Decoder turns JSON objects, one per row, into appends on the columns of a
// Schema. It keeps per-stream caches and is not safe for concurrent use; use
// one Decoder per input stream.
type Decoder struct {
	schema   *Schema
	opt      Options
	resolver *engine.Resolver
	seen     Presence
	// scratch holds the dotted name of the key being read. Bytes below the
	// current nesting prefix length are the enclosing group names.
	scratch []byte
}

// NewDecoder returns a Decoder for s. When several Options are given the last
// one wins.
func NewDecoder(s *Schema, opts ...Options) *Decoder {
	var opt Options
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return &Decoder{
		schema:   s,
		opt:      opt,
		resolver: engine.NewResolver(s.Names(), opt.ImportNestedJSON),
		scratch:  make([]byte, 0, 64),
	}
}

func (d *Decoder) Schema() *Schema { return d.schema }

// DecodeRow reads the next object from c and appends exactly one value to
// every column of cols: the parsed value for keys present in the object, the
// column default for the rest. A leading ',' or ';' between objects is
// consumed. DecodeRow returns io.EOF when only whitespace remains.
//
// On error some columns may already hold a value for the failed row; callers
// that keep going must truncate them (Block.DecodeRow does) and call Sync.
//
// The returned Presence is reused by the next call; Clone it to keep it.
func (d *Decoder) DecodeRow(c *cursor.Cursor, cols []Column) (Presence, error) {
	if len(cols) != d.schema.Len() {
		return Presence{}, &RowError{
			Code:   CodeInvariant,
			Offset: c.Offset(),
			Cause:  fmt.Errorf("got %d columns for a schema of %d", len(cols), d.schema.Len()),
		}
	}
	c.SkipWhitespace()
	if b, ok := c.Peek(); ok && (b == ',' || b == ';') {
		c.Advance(1)
		c.SkipWhitespace()
	}
	if c.EOF() {
		if err := c.Err(); err != nil {
			return Presence{}, err
		}
		return Presence{}, io.EOF
	}

	d.seen.reset(len(cols))
	d.scratch = d.scratch[:0]
	if err := d.readObject(c, cols, 0); err != nil {
		return Presence{}, err
	}
	for i, col := range cols {
		if !d.seen.Seen(i) {
			col.InsertDefault()
		}
	}
	return d.seen, nil
}

// Sync moves c past the rest of a failed row so that the next DecodeRow starts
// at a row boundary.
func (d *Decoder) Sync(c *cursor.Cursor) { c.SkipToNextLine() }

// readObject consumes one object whose keys are relative to the first
// prefixLen bytes of d.scratch.
func (d *Decoder) readObject(c *cursor.Cursor, cols []Column, prefixLen int) error {
	if err := c.AssertChar('{'); err != nil {
		return structural(err)
	}
	for keyIndex := 0; ; keyIndex++ {
		more, err := advanceToNextKey(c, keyIndex)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		name, err := d.readColumnName(c, prefixLen)
		if err != nil {
			return structural(err)
		}

		res := d.resolver.Resolve(name, keyIndex)
		switch res.Target {
		case engine.TargetLeaf:
			if err := skipColon(c); err != nil {
				return err
			}
			if err := d.readField(c, cols, res.Index); err != nil {
				return err
			}
		case engine.TargetNested:
			// name may alias the input buffer, which the colon skip can refill.
			d.scratch = append(d.scratch[:0], name...)
			n := len(d.scratch)
			if err := skipColon(c); err != nil {
				return err
			}
			if err := d.readNested(c, cols, n); err != nil {
				return err
			}
		case engine.TargetUnknown:
			if !d.opt.SkipUnknownFields {
				return &RowError{Code: CodeUnknownField, Field: string(name), Offset: c.Offset()}
			}
			if err := skipColon(c); err != nil {
				return err
			}
			if err := c.SkipValue(); err != nil {
				return structural(err)
			}
		default:
			return &RowError{
				Code:   CodeInvariant,
				Field:  string(name),
				Offset: c.Offset(),
				Cause:  fmt.Errorf("unhandled resolution target %d", res.Target),
			}
		}
	}
}

// readNested handles the value of a nested group key whose full name is
// d.scratch[:n]. A null value sets nothing.
func (d *Decoder) readNested(c *cursor.Cursor, cols []Column, n int) error {
	if b, ok := c.Peek(); ok && b == 'n' {
		raw, err := c.ReadValue()
		if err != nil {
			return structural(err)
		}
		if string(raw) != "null" {
			return &RowError{Code: CodeSyntax, Field: string(d.scratch[:n]), Offset: c.Offset(), Cause: fmt.Errorf("unexpected literal %q", raw)}
		}
		return nil
	}
	d.scratch = append(d.scratch[:n], engine.NestedSeparator)
	return d.readObject(c, cols, n+1)
}

func (d *Decoder) readField(c *cursor.Cursor, cols []Column, i int) error {
	name := d.schema.defs[i].Name
	if d.seen.Seen(i) {
		return &RowError{Code: CodeDuplicateField, Field: name, Offset: c.Offset()}
	}
	if err := cols[i].DecodeJSON(c); err != nil {
		return annotate(err, name)
	}
	d.seen.set(i)
	return nil
}

// readColumnName returns the full name of the key at c. Top-level keys without
// escapes are returned as a view of the cursor buffer, valid until the cursor
// reads more input; everything else is decoded into d.scratch after the
// current prefix. Both paths accept the same keys: a view that is not plain
// text goes through ReadString for its error.
func (d *Decoder) readColumnName(c *cursor.Cursor, prefixLen int) ([]byte, error) {
	if prefixLen == 0 {
		if buf := c.Buffered(); len(buf) > 1 && buf[0] == '"' {
			if i := c.FindFirstOf(1, `"\`); i > 0 && buf[i] == '"' && plainKey(buf[1:i]) {
				c.Advance(i + 1)
				return buf[1:i], nil
			}
		}
	}
	name, err := c.ReadString(d.scratch[:prefixLen])
	if err != nil {
		return nil, err
	}
	d.scratch = name
	return name, nil
}

// plainKey reports whether an unescaped key is valid UTF-8 without control
// characters.
func plainKey(key []byte) bool {
	ascii := true
	for _, b := range key {
		if b < 0x20 {
			return false
		}
		if b >= utf8.RuneSelf {
			ascii = false
		}
	}
	return ascii || utf8.Valid(key)
}

// advanceToNextKey positions c at the next key of an object. It reports false
// once the closing brace is consumed.
func advanceToNextKey(c *cursor.Cursor, keyIndex int) (bool, error) {
	c.SkipWhitespace()
	b, ok := c.Peek()
	if !ok {
		return false, eofError(c)
	}
	if b == '}' {
		c.Advance(1)
		return false, nil
	}
	if keyIndex > 0 {
		if err := c.AssertChar(','); err != nil {
			return false, structural(err)
		}
		c.SkipWhitespace()
	}
	return true, nil
}

func skipColon(c *cursor.Cursor) error {
	c.SkipWhitespace()
	if err := c.AssertChar(':'); err != nil {
		return structural(err)
	}
	c.SkipWhitespace()
	return nil
}
