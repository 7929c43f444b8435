package table

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/eachrow/schemafile"
)

func events(t *testing.T) schemafile.Table {
	t.Helper()
	defs, err := schemafile.Load(strings.NewReader(`
name: events
order_by: [kind, -n]
settings: {max_errors: 1}
columns:
  - {name: kind, type: String}
  - {name: n, type: Int64}
`))
	require.NoError(t, err)
	return defs[0]
}

func TestTable_IngestOrdersRows(t *testing.T) {
	tbl, err := New(events(t))
	require.NoError(t, err)

	stats, err := tbl.Ingest(context.Background(), strings.NewReader(`{"kind":"b","n":1}
{"kind":"a","n":1}
{"kind":"b","n":3}
not json
{"kind":"a","n":2}
`), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Rows)
	assert.Equal(t, int64(1), stats.Failed)
	require.Equal(t, 4, tbl.Rows())

	var got []string
	tbl.Ascend(0, func(row map[string]any) bool {
		got = append(got, row["kind"].(string)+string(rune('0'+row["n"].(int64))))
		return true
	})
	assert.Equal(t, []string{"a2", "a1", "b3", "b1"}, got)

	page := tbl.Scan(1, 2)
	require.Len(t, page, 2)
	assert.Equal(t, map[string]any{"kind": "a", "n": int64(1)}, page[0])
	assert.Empty(t, tbl.Scan(10, 2))
}

func TestTable_EqualKeysKeepInsertionOrder(t *testing.T) {
	def := events(t)
	def.OrderBy = nil
	tbl, err := New(def)
	require.NoError(t, err)
	_, err = tbl.Ingest(context.Background(), strings.NewReader(`{"n":3}{"n":1}{"n":2}`), nil)
	require.NoError(t, err)
	var got []any
	for _, row := range tbl.Scan(0, 10) {
		got = append(got, row["n"])
	}
	assert.Equal(t, []any{int64(3), int64(1), int64(2)}, got)
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Create(events(t)))
	assert.Error(t, c.Create(events(t)))
	assert.Equal(t, []string{"events"}, c.Names())

	_, err := c.Get("nope")
	assert.ErrorIs(t, err, ErrTableNotFound)
	tbl, err := c.Get("events")
	require.NoError(t, err)
	assert.Equal(t, "events", tbl.Name())
}

func TestCompareValues(t *testing.T) {
	now := time.Now()
	cases := []struct {
		a, b any
		want int
	}{
		{int64(1), int64(2), -1},
		{"b", "a", 1},
		{false, true, -1},
		{now, now, 0},
		{decimal.RequireFromString("1.10"), decimal.RequireFromString("1.1"), 0},
		{uuid.UUID{1}, uuid.UUID{2}, -1},
		{nil, int64(0), -1},
		{nil, nil, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, compareValues(tc.a, tc.b), "%v vs %v", tc.a, tc.b)
	}
}
