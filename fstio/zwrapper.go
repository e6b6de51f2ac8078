package fstio

import (
	"compress/gzip"
	"io"
)

// WrapWriter returns a writer that gzip-compresses everything written to
// it before passing it on to w, implementing the outer envelope a file can
// optionally be stored under (block tag 254: the whole file, header block
// included, sits inside this wrapper rather than any single block using
// it). Callers must Close the returned writer to flush the gzip trailer.
func WrapWriter(w io.Writer) *gzip.Writer {
	return gzip.NewWriter(w)
}

// UnwrapReader returns a reader that transparently gzip-decompresses r,
// the read-side counterpart to WrapWriter. Callers that don't know ahead
// of time whether a file is wrapped should peek its first two bytes for
// the gzip magic number (0x1f, 0x8b) before choosing this path.
func UnwrapReader(r io.Reader) (*gzip.Reader, error) {
	return gzip.NewReader(r)
}

// gzipMagic is the two-byte signature a wrapped file begins with.
var gzipMagic = [2]byte{0x1f, 0x8b}

// IsWrapped reports whether the first two bytes of header match the gzip
// magic number, letting a reader decide whether to route the rest of the
// file through UnwrapReader before parsing any block.
func IsWrapped(header []byte) bool {
	return len(header) >= 2 && header[0] == gzipMagic[0] && header[1] == gzipMagic[1]
}
