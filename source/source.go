// Package source opens JSONEachRow inputs, undoing gzip or zstd compression.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Encoding names a compression format.
type Encoding string

const (
	Identity Encoding = "identity"
	Gzip     Encoding = "gzip"
	Zstd     Encoding = "zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ParseEncoding accepts HTTP Content-Encoding values. Empty means Identity.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "identity":
		return Identity, nil
	case "gzip", "x-gzip":
		return Gzip, nil
	case "zstd":
		return Zstd, nil
	}
	return "", fmt.Errorf("unsupported content encoding %q", s)
}

// Decode wraps r so that reads return decompressed bytes.
func Decode(r io.Reader, enc Encoding) (io.ReadCloser, error) {
	switch enc {
	case Identity:
		return io.NopCloser(r), nil
	case Gzip:
		z, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return z, nil
	case Zstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		return d.IOReadCloser(), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", enc)
}

// Sniff detects the encoding of r from its magic bytes and decodes it.
func Sniff(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))
	enc := Identity
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		enc = Gzip
	case bytes.HasPrefix(head, zstdMagic):
		enc = Zstd
	}
	return Decode(br, enc)
}

// Open opens a file, or stdin for "-", and decodes it with Sniff.
func Open(path string) (io.ReadCloser, error) {
	var f *os.File
	if path == "-" {
		f = os.Stdin
	} else {
		var err error
		if f, err = os.Open(path); err != nil {
			return nil, err
		}
	}
	rc, err := Sniff(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &file{ReadCloser: rc, f: f}, nil
}

type file struct {
	io.ReadCloser
	f *os.File
}

func (f *file) Close() error {
	err := f.ReadCloser.Close()
	if f.f != os.Stdin {
		if cerr := f.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
