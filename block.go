package eachrow

import "github.com/reoring/eachrow/cursor"

// Block is a batch of decoded rows held column by column.
type Block struct {
	Schema   *Schema
	Columns  []Column
	Presence []Presence // one entry per row
}

// NewBlock returns an empty block with fresh columns for s.
func NewBlock(s *Schema) *Block {
	return &Block{Schema: s, Columns: s.NewColumns()}
}

// Rows returns the number of rows appended through DecodeRow.
func (b *Block) Rows() int { return len(b.Presence) }

// DecodeRow decodes the next row of c into the block. A failed row leaves
// every column as it was before the call.
func (b *Block) DecodeRow(d *Decoder, c *cursor.Cursor) error {
	n := b.Rows()
	p, err := d.DecodeRow(c, b.Columns)
	if err != nil {
		for _, col := range b.Columns {
			if col.Len() > n {
				col.Truncate(n)
			}
		}
		return err
	}
	b.Presence = append(b.Presence, p.Clone())
	return nil
}

// Row returns row i keyed by column name.
func (b *Block) Row(i int) map[string]any {
	out := make(map[string]any, len(b.Columns))
	for j, col := range b.Columns {
		out[b.Schema.defs[j].Name] = col.Value(i)
	}
	return out
}

// Values returns row i in schema order.
func (b *Block) Values(i int) []any {
	out := make([]any, len(b.Columns))
	for j, col := range b.Columns {
		out[j] = col.Value(i)
	}
	return out
}
