package eachrow

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/reoring/eachrow/cursor"
)

// Reader decodes a JSONEachRow stream block by block, skipping malformed rows
// within the configured error budget.
type Reader struct {
	dec     *Decoder
	cur     *cursor.Cursor
	opt     ReaderOpt
	log     *slog.Logger
	id      string
	started bool
	rows    int64 // rows attempted, failed ones included
	failed  int64
}

// Stats counts the rows a Reader has seen so far.
type Stats struct {
	Rows   int64
	Failed int64
}

// NewReader returns a Reader decoding r against s.
func NewReader(r io.Reader, s *Schema, opt Options, ropt ...ReaderOpt) *Reader {
	var ro ReaderOpt
	if len(ropt) > 0 {
		ro = ropt[len(ropt)-1]
	}
	var cur *cursor.Cursor
	if ro.BufferSize > 0 {
		cur = cursor.NewSize(r, ro.BufferSize)
	} else {
		cur = cursor.New(r)
	}
	return newReader(cur, NewDecoder(s, opt), ro)
}

// NewBytesReader returns a Reader over an in-memory input without copying it.
func NewBytesReader(b []byte, s *Schema, opt Options, ropt ...ReaderOpt) *Reader {
	var ro ReaderOpt
	if len(ropt) > 0 {
		ro = ropt[len(ropt)-1]
	}
	return newReader(cursor.FromBytes(b), NewDecoder(s, opt), ro)
}

func newReader(cur *cursor.Cursor, dec *Decoder, ro ReaderOpt) *Reader {
	if ro.BlockSize <= 0 {
		ro.BlockSize = DefaultBlockSize
	}
	log := ro.Logger
	if log == nil {
		log = slog.Default()
	}
	id := uuid.NewString()
	return &Reader{dec: dec, cur: cur, opt: ro, id: id, log: log.With("reader_id", id)}
}

// ID identifies this Reader in its log records.
func (r *Reader) ID() string { return r.id }

func (r *Reader) Stats() Stats { return Stats{Rows: r.rows, Failed: r.failed} }

// ReadBlock decodes up to BlockSize rows into a new block. It returns io.EOF
// once the stream holds no further rows. A row failure outside the error budget
// is returned with a row frame in its context; the Reader must not be used
// after that.
func (r *Reader) ReadBlock(ctx context.Context) (*Block, error) {
	if !r.started {
		r.cur.SkipBOM()
		r.started = true
	}
	b := NewBlock(r.dec.Schema())
	for b.Rows() < r.opt.BlockSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := b.DecodeRow(r.dec, r.cur)
		if errors.Is(err, io.EOF) {
			break
		}
		r.rows++
		if err == nil {
			continue
		}
		r.failed++
		if re, ok := AsRowError(err); ok {
			re.Context = append(re.Context, Frame{Row: r.rows})
		}
		if !r.allowError(err) {
			return nil, err
		}
		r.log.Warn("skipping malformed row",
			"row", r.rows,
			"offset", r.cur.Offset(),
			"error", err,
		)
		r.dec.Sync(r.cur)
	}
	if b.Rows() == 0 {
		return nil, io.EOF
	}
	return b, nil
}

// ReadAll drains the stream, calling fn for every block.
func (r *Reader) ReadAll(ctx context.Context, fn func(*Block) error) error {
	for {
		b, err := r.ReadBlock(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
	}
}

func (r *Reader) allowError(err error) bool {
	re, ok := AsRowError(err)
	if !ok || re.Code == CodeInvariant || r.cur.Err() != nil {
		return false
	}
	if r.failed <= int64(r.opt.MaxErrors) {
		return true
	}
	return float64(r.failed)/float64(r.rows) <= r.opt.MaxErrorRatio
}
