//go:build cgo && gozstd

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"

	"github.com/arloliu/sumpdec/format"
)

const gozstdLevel = 3

func (zstdCodec) AppendCompressed(dst, src []byte) ([]byte, error) {
	return gozstd.CompressLevel(dst, src, gozstdLevel), nil
}

func (zstdCodec) AppendDecompressed(dst, src []byte, size int) ([]byte, error) {
	base := len(dst)
	out, err := gozstd.Decompress(dst, src)
	if err != nil {
		return dst, fmt.Errorf("zstd decompression failed: %w", err)
	}
	if err := checkSize(format.CompressionZstd, len(out)-base, size); err != nil {
		return dst, err
	}

	return out, nil
}
