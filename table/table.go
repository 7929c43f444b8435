// Package table keeps decoded blocks in memory and serves their rows in
// ORDER BY order.
package table

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reoring/eachrow"
	"github.com/reoring/eachrow/schemafile"
)

// Table is an in-memory, append-only table.
type Table struct {
	def     schemafile.Table
	keys    []sortKey
	mu      sync.RWMutex
	blocks  []*eachrow.Block
	index   *btree.BTreeG[*rowOrdered]
	nextSeq uint64
}

type sortKey struct {
	col     int
	reverse bool
}

// rowOrdered addresses one stored row. seq keeps rows with equal keys in
// insertion order.
type rowOrdered struct {
	block, row int
	seq        uint64
	values     []any
}

// New creates an empty table for def.
func New(def schemafile.Table) (*Table, error) {
	t := &Table{def: def}
	for _, field := range def.OrderBy {
		reverse := strings.HasPrefix(field, "-")
		i, ok := def.Schema.Index(strings.TrimPrefix(field, "-"))
		if !ok {
			return nil, fmt.Errorf("table %s: order_by column %q is not defined", def.Name, field)
		}
		t.keys = append(t.keys, sortKey{col: i, reverse: reverse})
	}
	t.index = btree.NewG(32, func(a, b *rowOrdered) bool {
		for i, k := range t.keys {
			c := compareValues(a.values[i], b.values[i])
			if c == 0 {
				continue
			}
			if k.reverse {
				return c > 0
			}
			return c < 0
		}
		return a.seq < b.seq
	})
	return t, nil
}

func (t *Table) Name() string { return t.def.Name }

func (t *Table) Schema() *eachrow.Schema { return t.def.Schema }

// Rows returns the number of stored rows.
func (t *Table) Rows() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.index.Len()
}

// Insert stores a block. The block must not be modified afterwards.
func (t *Table) Insert(b *eachrow.Block) error {
	if b.Schema != t.def.Schema {
		return fmt.Errorf("table %s: block has a different schema", t.def.Name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	bi := len(t.blocks)
	t.blocks = append(t.blocks, b)
	for r := 0; r < b.Rows(); r++ {
		values := make([]any, len(t.keys))
		for i, k := range t.keys {
			values[i] = b.Columns[k.col].Value(r)
		}
		t.index.ReplaceOrInsert(&rowOrdered{block: bi, row: r, seq: t.nextSeq, values: values})
		t.nextSeq++
	}
	return nil
}

// Ingest decodes r with the table's settings and inserts every block.
func (t *Table) Ingest(ctx context.Context, r io.Reader, log *slog.Logger) (eachrow.Stats, error) {
	ropt := t.def.Reader
	if log != nil {
		ropt.Logger = log.With("table", t.def.Name)
	}
	rd := eachrow.NewReader(r, t.def.Schema, t.def.Options, ropt)
	err := rd.ReadAll(ctx, t.Insert)
	return rd.Stats(), err
}

// Ascend calls fn for rows in ORDER BY order, skipping the first offset rows,
// until fn returns false.
func (t *Table) Ascend(offset int, fn func(row map[string]any) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i := 0
	t.index.Ascend(func(ro *rowOrdered) bool {
		i++
		if i <= offset {
			return true
		}
		return fn(t.blocks[ro.block].Row(ro.row))
	})
}

// Scan returns up to limit rows starting at offset, in ORDER BY order.
func (t *Table) Scan(offset, limit int) []map[string]any {
	out := []map[string]any{}
	t.Ascend(offset, func(row map[string]any) bool {
		if len(out) >= limit {
			return false
		}
		out = append(out, row)
		return true
	})
	return out
}

// compareValues orders column values. Values of different dynamic types, nil
// included, order by type name so that the tree stays consistent.
func compareValues(a, b any) int {
	switch x := a.(type) {
	case int8:
		if y, ok := b.(int8); ok {
			return cmp.Compare(x, y)
		}
	case int16:
		if y, ok := b.(int16); ok {
			return cmp.Compare(x, y)
		}
	case int32:
		if y, ok := b.(int32); ok {
			return cmp.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case uint8:
		if y, ok := b.(uint8); ok {
			return cmp.Compare(x, y)
		}
	case uint16:
		if y, ok := b.(uint16); ok {
			return cmp.Compare(x, y)
		}
	case uint32:
		if y, ok := b.(uint32); ok {
			return cmp.Compare(x, y)
		}
	case uint64:
		if y, ok := b.(uint64); ok {
			return cmp.Compare(x, y)
		}
	case float32:
		if y, ok := b.(float32); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case decimal.Decimal:
		if y, ok := b.(decimal.Decimal); ok {
			return x.Cmp(y)
		}
	case uuid.UUID:
		if y, ok := b.(uuid.UUID); ok {
			return bytes.Compare(x[:], y[:])
		}
	}
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		}
		return 1
	}
	return cmp.Compare(fmt.Sprintf("%T%v", a, a), fmt.Sprintf("%T%v", b, b))
}
