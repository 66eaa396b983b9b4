package vector

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// EncodeEmbedding encodes v as little-endian IEEE 754 float32 values with no
// length prefix; the length is derived from the blob size on decode.
func EncodeEmbedding(v []float32) []byte {
	b := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(x))
	}
	return b
}

// DecodeEmbedding decodes a blob produced by EncodeEmbedding.
func DecodeEmbedding(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d (not multiple of 4)", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// ParseNumbers converts decoded JSON numbers (or numeric strings) into a
// float32 vector, rejecting non-numeric and non-finite values.
func ParseNumbers(nums []json.Number) ([]float32, error) {
	out := make([]float32, len(nums))
	for i, n := range nums {
		f, err := strconv.ParseFloat(string(n), 32)
		if err != nil {
			return nil, fmt.Errorf("element %d: %q is not a number", i, string(n))
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("element %d: non-finite value", i)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// FormatNumbers is the inverse of ParseNumbers, using the shortest decimal
// that round-trips each float32.
func FormatNumbers(v []float32) []json.Number {
	out := make([]json.Number, len(v))
	for i, x := range v {
		out[i] = json.Number(strconv.FormatFloat(float64(x), 'g', -1, 32))
	}
	return out
}
