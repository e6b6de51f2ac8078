package vc

import "github.com/openfst/fstio/compress"

// encodeChainPayload compresses data with marker's codec when that helps.
// A zero stored length in the return value means the chain stored its bytes
// raw; otherwise stored length is the uncompressed size needed to decompress.
// An empty input is always stored raw regardless of marker, matching the
// frame and time sections' treatment of empty payloads.
func encodeChainPayload(marker compress.Marker, data []byte) (storedLen uint64, payload []byte, err error) {
	if len(data) == 0 {
		return 0, data, nil
	}
	if marker == compress.MarkerRaw {
		return 0, data, nil
	}

	codec, err := compress.GetCodec(marker)
	if err != nil {
		return 0, nil, err
	}

	compressed, err := codec.Compress(data)
	if err != nil {
		return 0, nil, err
	}
	if len(compressed) < len(data) {
		return uint64(len(data)), compressed, nil
	}

	return 0, data, nil
}

// decodeChainPayload reverses encodeChainPayload. storedLen == 0 means the
// slice is already the raw uncompressed payload.
func decodeChainPayload(marker compress.Marker, data []byte, storedLen uint64) ([]byte, error) {
	if storedLen == 0 {
		return data, nil
	}

	codec, err := compress.GetCodec(marker)
	if err != nil {
		return nil, err
	}

	return codec.Decompress(data, int(storedLen))
}
