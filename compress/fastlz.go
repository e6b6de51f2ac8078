package compress

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
)

// FastLZCodec implements the 'F' backend. No FastLZ port is available in
// this module's dependency set, so the marker is serviced by
// klauspost/compress/flate at BestSpeed, matching FastLZ's role as a cheap,
// low-ratio backend rather than its exact byte format (see DESIGN.md).
type FastLZCodec struct{}

var _ Codec = FastLZCodec{}

// NewFastLZCodec returns the backend registered for the 'F' marker.
func NewFastLZCodec() FastLZCodec { return FastLZCodec{} }

func (FastLZCodec) Marker() Marker { return MarkerFastLZ }

func (FastLZCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (FastLZCodec) Decompress(data []byte, expectedLen int) ([]byte, error) {
	if len(data) == 0 {
		return checkLen(nil, expectedLen)
	}

	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	out := make([]byte, 0, max(expectedLen, 0))
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}

	return checkLen(buf.Bytes(), expectedLen)
}
