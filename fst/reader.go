package fst

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/openfst/fstio/errs"
	"github.com/openfst/fstio/fstio"
	"github.com/openfst/fstio/geom"
	"github.com/openfst/fstio/internal/options"
	"github.com/openfst/fstio/vc"
)

// File is a fully parsed file: the header, the resolved geometry, the
// hierarchy, the blackout list (if any), and every value-change block in
// on-disk order, ready for vc.NewIterator to walk.
type File struct {
	Header    fstio.Header
	Geometry  geom.Info
	Hierarchy fstio.Hierarchy
	Blackout  fstio.Blackout
	Blocks    []*vc.Block
}

// Reader parses a complete in-memory file image, unwrapping a leading
// Z-wrapper envelope first if present. A plain io.ReaderAt is accepted
// (matching the constructor shape of a seekable-file reader) but the
// entire size is read up front, since block boundaries can only be
// resolved by walking the file from the start.
type Reader struct {
	cfg  *config
	File File
}

// NewReader reads size bytes from r, transparently unwrapping a Z-wrapper
// envelope (tag 254) if the file begins with one, and parses every block
// it finds.
func NewReader(r io.ReaderAt, size int64, opts ...ReaderOption) (*Reader, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	data := make([]byte, size)
	if _, err := r.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", errs.ErrShortRead, err)
	}

	data, err := unwrapIfNeeded(data)
	if err != nil {
		return nil, err
	}

	file, err := parseFile(data, cfg)
	if err != nil {
		return nil, err
	}

	return &Reader{cfg: cfg, File: file}, nil
}

// unwrapIfNeeded recognizes a leading Z-wrapper block (tag 254:
// section_length, uncompressed_len, compressed_len, gzip_bytes) and
// returns the gunzipped bytes in its place, ready to be parsed as an
// ordinary unwrapped file. Data with any other leading tag is returned
// unchanged.
func unwrapIfNeeded(data []byte) ([]byte, error) {
	if len(data) == 0 || data[0] != tagZWrapper {
		return data, nil
	}

	span, err := nextBlock(data, 0)
	if err != nil {
		return nil, err
	}
	if len(span.payloadOnly) < 16 {
		return nil, fmt.Errorf("%w: z-wrapper header", errs.ErrInvalidHeaderSize)
	}

	pos := 0
	uncompressedLen := binary.BigEndian.Uint64(span.payloadOnly[pos : pos+8])
	pos += 8
	compressedLen := binary.BigEndian.Uint64(span.payloadOnly[pos : pos+8])
	pos += 8

	if pos+int(compressedLen) > len(span.payloadOnly) {
		return nil, fmt.Errorf("%w: z-wrapper body", errs.ErrTrailerOutOfBounds)
	}
	gzipBytes := span.payloadOnly[pos : pos+int(compressedLen)]

	if !fstio.IsWrapped(gzipBytes) {
		return nil, fmt.Errorf("%w: z-wrapper payload is not a gzip stream", errs.ErrInvalidBlockTag)
	}

	gz, err := fstio.UnwrapReader(bytes.NewReader(gzipBytes))
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	inner := make([]byte, 0, uncompressedLen)
	buf := make([]byte, 64*1024)
	for {
		n, err := gz.Read(buf)
		inner = append(inner, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if uint64(len(inner)) != uncompressedLen {
		return nil, fmt.Errorf("%w: z-wrapper", errs.ErrDecompressLenMismatch)
	}

	return inner, nil
}

// parseFile walks data's sequence of tag+section_length blocks, dispatching
// each to its decoder. Value-change blocks are parsed without the
// geometry: vc.ParseBlock sizes the chain index from the block's own
// vc_max_handle, and markers are interpreted only later, when
// vc.NewIterator is given file.Geometry.
func parseFile(data []byte, cfg *config) (File, error) {
	var file File
	pos := 0

	for pos < len(data) {
		span, err := nextBlock(data, pos)
		if err != nil {
			return File{}, err
		}
		pos = span.next

		switch span.tag {
		case tagHeader:
			file.Header, err = fstio.ParseHeader(span.withLength)
		case tagGeometry:
			file.Geometry, err = fstio.DecodeGeometry(span.withLength)
		case tagBlackout:
			file.Blackout, err = fstio.DecodeBlackout(span.payloadOnly)
		case tagHierarchy:
			file.Hierarchy, err = fstio.DecodeHierarchy(fstio.HierarchyPlain, span.withLength)
		case tagHierarchyLZ4:
			file.Hierarchy, err = fstio.DecodeHierarchy(fstio.HierarchyLZ4, span.withLength)
		case tagHierarchyLZ4Duo:
			file.Hierarchy, err = fstio.DecodeHierarchy(fstio.HierarchyLZ4Duo, span.withLength)
		case tagVcDataLegacy, tagVcDataDynAlias:
			var block *vc.Block
			block, err = vc.ParseBlock(span.payloadOnly)
			if err == nil {
				file.Blocks = append(file.Blocks, block)
			}
		case tagVcDataDynAlias2:
			err = fmt.Errorf("%w: tag %d (VcDataDynAlias2)", errs.ErrUnsupportedChainIndex, span.tag)
		case tagSkip:
			// Reserved filler; payload carries no meaning.
		default:
			err = fmt.Errorf("%w: tag %d", errs.ErrUnsupportedBlockTag, span.tag)
		}
		if err != nil {
			return File{}, err
		}
	}

	return file, nil
}

// NewIterator returns a change iterator over block (one of r.File.Blocks),
// interpreting markers per r.File.Geometry.
func (r *Reader) NewIterator(block *vc.Block) (*vc.Iterator, error) {
	return vc.NewIterator(block, r.File.Geometry)
}

// DecodeAllChains decompresses every present handle's chain payload in
// block, distributing the work across cfg.workerCount goroutines (a
// work-stealing index counter hands each goroutine the next unclaimed
// handle, the same pattern the teacher's row-parallel encoder uses). This
// is the path a caller materializing a whole block up front (rather than
// streaming it through NewIterator) should use instead of decoding each
// handle serially.
func (r *Reader) DecodeAllChains(block *vc.Block) (map[uint32][]byte, error) {
	maxHandle := block.MaxHandle()

	workers := r.cfg.workerCount
	if workers < 1 {
		workers = 1
	}
	if uint32(workers) > maxHandle {
		workers = int(maxHandle)
	}
	if workers < 1 {
		workers = 1
	}

	var (
		next    atomic.Uint32
		mu      sync.Mutex
		wg      sync.WaitGroup
		firstErr error
	)
	result := make(map[uint32][]byte, maxHandle)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				h := next.Add(1)
				if h > maxHandle {
					return
				}
				if !block.Present(h) {
					continue
				}
				raw, ok, err := block.DecodedChain(h)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()

					return
				}
				if !ok {
					continue
				}
				mu.Lock()
				result[h] = raw
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return result, nil
}
