package compress

import (
	"bytes"
	"sync"

	kzlib "github.com/klauspost/compress/zlib"
)

// ZlibCodec implements the 'Z' backend (with '!'/'^' accepted as decode-only
// synonyms, see GetCodec) using klauspost/compress/zlib, the same module
// already relied on elsewhere for S2 and FastLZ-substitute compression.
type ZlibCodec struct{}

var _ Codec = ZlibCodec{}

// NewZlibCodec returns the zlib backend.
func NewZlibCodec() ZlibCodec { return ZlibCodec{} }

func (ZlibCodec) Marker() Marker { return MarkerZlib }

var zlibWriterPool = sync.Pool{
	New: func() any {
		w, _ := kzlib.NewWriterLevel(nil, kzlib.DefaultCompression)

		return w
	},
}

func (ZlibCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w := zlibWriterPool.Get().(*kzlib.Writer)
	defer zlibWriterPool.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (ZlibCodec) Decompress(data []byte, expectedLen int) ([]byte, error) {
	if len(data) == 0 {
		return checkLen(nil, expectedLen)
	}

	r, err := kzlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out := make([]byte, 0, max(expectedLen, 0))
	buf := bytes.NewBuffer(out)
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}

	return checkLen(buf.Bytes(), expectedLen)
}
