package compress

import (
	"fmt"
	"slices"

	"github.com/klauspost/compress/s2"

	"github.com/arloliu/sumpdec/format"
)

// s2Codec stores each payload as one S2 block.
type s2Codec struct{}

func (s2Codec) Type() format.CompressionType { return format.CompressionS2 }

func (s2Codec) AppendCompressed(dst, src []byte) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}

	base := len(dst)
	bound := s2.MaxEncodedLen(len(src))
	if bound < 0 {
		return dst, fmt.Errorf("s2 compression failed: payload of %d bytes too large", len(src))
	}
	dst = slices.Grow(dst, bound)

	// s2.Encode writes from the start of the slice it is given.
	out := s2.Encode(dst[base:base+bound], src)

	return dst[:base+len(out)], nil
}

func (s2Codec) AppendDecompressed(dst, src []byte, size int) ([]byte, error) {
	if len(src) == 0 {
		return dst, checkSize(format.CompressionS2, 0, size)
	}

	n, err := s2.DecodedLen(src)
	if err != nil {
		return dst, fmt.Errorf("s2 decompression failed: %w", err)
	}
	if err := checkSize(format.CompressionS2, n, size); err != nil {
		return dst, err
	}

	base := len(dst)
	dst = slices.Grow(dst, n)
	if _, err := s2.Decode(dst[base:base+n], src); err != nil {
		return dst[:base], fmt.Errorf("s2 decompression failed: %w", err)
	}

	return dst[:base+n], nil
}
