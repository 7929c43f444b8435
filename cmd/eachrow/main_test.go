package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestRun_IngestAndPrint(t *testing.T) {
	dir := t.TempDir()
	c := Default()
	c.Schema = writeFile(t, dir, "schema.yaml", `
name: events
order_by: [-id]
settings: {skip_unknown_fields: true}
columns:
  - {name: id, type: Int64}
  - {name: tags, type: Array(String)}
`)
	c.Input = writeFile(t, dir, "rows.json", `{"id":1,"tags":["a"],"extra":true}
{"id":2}
`)
	c.Print = true

	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, run(context.Background(), c, log, &out))
	assert.Equal(t, `{"id":2,"tags":[]}`+"\n"+`{"id":1,"tags":["a"]}`+"\n", out.String())
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	twoTables := writeFile(t, dir, "two.yaml", "name: a\ncolumns: [{name: x, type: Int64}]\n---\nname: b\ncolumns: [{name: x, type: Int64}]\n")
	input := writeFile(t, dir, "rows.json", "{\"x\":1}\n{\"y\":2}\n")

	c := Default()
	assert.Error(t, run(context.Background(), c, log, io.Discard), "schema is required")

	c.Schema = twoTables
	c.Input = input
	assert.Error(t, run(context.Background(), c, log, io.Discard), "ambiguous table")

	c.Table = "b"
	assert.Error(t, run(context.Background(), c, log, io.Discard), "unknown field y")

	c.Table = "c"
	assert.Error(t, run(context.Background(), c, log, io.Discard), "no such table")
}
