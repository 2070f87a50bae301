package persistence

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
)

// compress encodes a chunk with zstd at the given level (1 fastest, 4 best).
func compress(src []byte, level int) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevel(level)))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(src, make([]byte, 0, len(src)/4+16)), nil
}

func decompress(src []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrFormat, err)
	}
	return out, nil
}

func encodeBools(v []bool) []byte {
	out := make([]byte, len(v))
	for i, b := range v {
		if b {
			out[i] = 1
		}
	}
	return out
}

func decodeBools(b []byte, n int) ([]bool, error) {
	if len(b) != n {
		return nil, fmt.Errorf("%w: mask chunk has %d bytes, want %d", ErrFormat, len(b), n)
	}
	out := make([]bool, n)
	for i, c := range b {
		switch c {
		case 0:
		case 1:
			out[i] = true
		default:
			return nil, fmt.Errorf("%w: invalid bool byte %#x at %d", ErrFormat, c, i)
		}
	}
	return out, nil
}

func encodeFloat64s(v []float64) []byte {
	out := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(f))
	}
	return out
}

func decodeFloat64s(b []byte, n int) ([]float64, error) {
	if len(b) != 8*n {
		return nil, fmt.Errorf("%w: float chunk has %d bytes, want %d", ErrFormat, len(b), 8*n)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return out, nil
}

// putArray writes the metadata and the single compressed chunk of an array
// node at prefix.
func putArray(s Store, prefix string, meta arrayMeta, raw []byte) error {
	if err := putJSON(s, prefix+"/"+keyArray, meta); err != nil {
		return err
	}
	chunk := raw
	if meta.Compressor != nil {
		var err error
		if chunk, err = compress(raw, meta.Compressor.Level); err != nil {
			return err
		}
	}
	return s.Put(prefix+"/"+chunkKey(len(meta.Shape)), chunk)
}

// getArray reads the metadata and decompressed chunk of an array node.
func getArray(s Store, prefix, dtype string) (arrayMeta, []byte, error) {
	var meta arrayMeta
	if err := getJSON(s, prefix+"/"+keyArray, &meta); err != nil {
		return meta, nil, err
	}
	if err := meta.validate(dtype); err != nil {
		return meta, nil, fmt.Errorf("%s: %w", prefix, err)
	}
	chunk, err := s.Get(prefix + "/" + chunkKey(len(meta.Shape)))
	if err != nil {
		return meta, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if meta.Compressor == nil {
		return meta, chunk, nil
	}
	raw, err := decompress(chunk)
	if err != nil {
		return meta, nil, fmt.Errorf("%s: %w", prefix, err)
	}
	return meta, raw, nil
}
