// Package hash fingerprints sample buffers with xxHash64.
package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Samples computes the xxHash64 of a sample buffer.
//
// Each (value, timestamp) pair is fed as 12 little-endian bytes, so two
// buffers hash equal exactly when their values and timestamps are equal.
func Samples(values []uint32, timestamps []int64) uint64 {
	d := xxhash.New()

	var scratch [12]byte
	n := min(len(values), len(timestamps))
	for i := range n {
		binary.LittleEndian.PutUint32(scratch[0:4], values[i])
		binary.LittleEndian.PutUint64(scratch[4:12], uint64(timestamps[i]))
		_, _ = d.Write(scratch[:])
	}

	return d.Sum64()
}
