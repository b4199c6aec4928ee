//go:build !cgo || !gozstd

package compress

import (
	"fmt"
	"slices"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/arloliu/sumpdec/format"
)

var zstdDecoders = sync.Pool{
	New: func() any {
		d, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
		}

		return d
	},
}

var zstdEncoders = sync.Pool{
	New: func() any {
		e, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderCRC(false),
			zstd.WithZeroFrames(true),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder: %v", err))
		}

		return e
	},
}

func (zstdCodec) AppendCompressed(dst, src []byte) ([]byte, error) {
	e, _ := zstdEncoders.Get().(*zstd.Encoder)
	defer zstdEncoders.Put(e)

	return e.EncodeAll(src, dst), nil
}

func (zstdCodec) AppendDecompressed(dst, src []byte, size int) ([]byte, error) {
	d, _ := zstdDecoders.Get().(*zstd.Decoder)
	defer zstdDecoders.Put(d)

	base := len(dst)
	out, err := d.DecodeAll(src, slices.Grow(dst, size))
	if err != nil {
		return dst, fmt.Errorf("zstd decompression failed: %w", err)
	}
	if err := checkSize(format.CompressionZstd, len(out)-base, size); err != nil {
		return dst, err
	}

	return out, nil
}
