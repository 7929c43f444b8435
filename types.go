package eachrow

import "log/slog"

// Options configures a Decoder.
type Options struct {
	// SkipUnknownFields drops keys that match no column instead of failing the row.
	SkipUnknownFields bool
	// ImportNestedJSON lets an object value under key "n" fill columns named
	// "n.<member>".
	ImportNestedJSON bool
}

// ReaderOpt configures a Reader.
type ReaderOpt struct {
	BlockSize int // Rows per block; DefaultBlockSize when zero.
	// A malformed row is skipped while the number of failed rows stays within
	// MaxErrors or their share of all rows within MaxErrorRatio. Both zero
	// means the first malformed row fails the read.
	MaxErrors     int
	MaxErrorRatio float64
	BufferSize    int          // Initial input buffer size.
	Logger        *slog.Logger // Receives skipped-row warnings; slog.Default() when nil.
}

// DefaultBlockSize is the number of rows per block when ReaderOpt.BlockSize is zero.
const DefaultBlockSize = 65536
