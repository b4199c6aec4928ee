package compress

import (
	"fmt"
	"slices"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/sumpdec/format"
)

var lz4Compressors = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

// lz4Codec stores each payload as one LZ4 block. The block format does not
// carry the decoded length; the stream's recorded size sizes the output.
type lz4Codec struct{}

func (lz4Codec) Type() format.CompressionType { return format.CompressionLZ4 }

func (lz4Codec) AppendCompressed(dst, src []byte) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}

	base := len(dst)
	dst = slices.Grow(dst, lz4.CompressBlockBound(len(src)))

	lc, _ := lz4Compressors.Get().(*lz4.Compressor)
	defer lz4Compressors.Put(lc)

	n, err := lc.CompressBlock(src, dst[base:cap(dst)])
	if err != nil {
		return dst[:base], fmt.Errorf("lz4 compression failed: %w", err)
	}

	return dst[:base+n], nil
}

func (lz4Codec) AppendDecompressed(dst, src []byte, size int) ([]byte, error) {
	if len(src) == 0 {
		return dst, checkSize(format.CompressionLZ4, 0, size)
	}

	base := len(dst)
	dst = slices.Grow(dst, size)

	n, err := lz4.UncompressBlock(src, dst[base:base+size])
	if err != nil {
		return dst[:base], fmt.Errorf("lz4 decompression failed: %w", err)
	}
	if err := checkSize(format.CompressionLZ4, n, size); err != nil {
		return dst[:base], err
	}

	return dst[:base+n], nil
}
