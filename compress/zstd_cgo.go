//go:build cgo

package compress

import "github.com/valyala/gozstd"

func (c ZstdCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, 3), nil
}

func (c ZstdCodec) Decompress(data []byte, expectedLen int) ([]byte, error) {
	if len(data) == 0 {
		return checkLen(nil, expectedLen)
	}

	out, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, err
	}

	return checkLen(out, expectedLen)
}
