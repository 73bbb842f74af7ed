package query

import (
	"encoding/binary"
	"fmt"
	"math"
)

// VectorToBytes encodes a vector as little-endian float32, the descriptor
// blob layout the server expects.
func VectorToBytes(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// ConcatVectors encodes a batch of vectors into the single blob that
// accompanies a batch_properties AddDescriptor.
func ConcatVectors(vecs [][]float32) []byte {
	total := 0
	for _, v := range vecs {
		total += len(v)
	}
	buf := make([]byte, 0, total*4)
	for _, v := range vecs {
		buf = append(buf, VectorToBytes(v)...)
	}
	return buf
}

// BytesToVector decodes a little-endian float32 blob.
func BytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
