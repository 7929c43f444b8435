// Package eachrow decodes JSONEachRow streams, one JSON object per row, into
// typed columns.
//
//   - A Schema lists the columns; column types live in the column package.
//   - A Decoder appends one row per DecodeRow call and reports which columns
//     the object set (Presence). Missing columns receive their type default.
//   - A Reader batches rows into Blocks, skips malformed rows within an error
//     budget and logs them with log/slog.
//   - Failures are RowErrors carrying a stable code and a context stack.
//
// Design policy:
//   - Keep only public APIs in the root package; put detailed implementations under internal/.
//   - Byte-level scanning lives in cursor/, key resolution in internal/engine.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s := eachrow.MustSchema(
//		eachrow.ColumnDef{Name: "id", Type: column.UInt64()},
//		eachrow.ColumnDef{Name: "user.name", Type: column.String()},
//	)
//	r := eachrow.NewReader(f, s, eachrow.Options{ImportNestedJSON: true})
//	err := r.ReadAll(ctx, func(b *eachrow.Block) error { ... })
package eachrow
