package compress

import (
	"fmt"

	"github.com/arloliu/sumpdec/errs"
	"github.com/arloliu/sumpdec/format"
)

// Codec compresses the batch payloads of an annotation stream.
//
// Payloads are msgpack-encoded annotation batches, usually a few KiB of
// highly repetitive data. Both directions append to a caller-owned
// destination so a stream can reuse one scratch buffer for every batch.
// Implementations are stateless and safe for concurrent use.
type Codec interface {
	// Type returns the algorithm identifier recorded in stream headers.
	Type() format.CompressionType

	// AppendCompressed appends the compressed form of src to dst.
	AppendCompressed(dst, src []byte) ([]byte, error)

	// AppendDecompressed appends the payload decoded from src to dst.
	// size is the payload length recorded by the writer; a payload that
	// decodes to another length fails with errs.ErrPayloadSize.
	AppendDecompressed(dst, src []byte, size int) ([]byte, error)
}

// New returns the codec of compressionType.
//
// Returns errs.ErrInvalidCompression for unknown types.
func New(compressionType format.CompressionType) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return noneCodec{}, nil
	case format.CompressionZstd:
		return zstdCodec{}, nil
	case format.CompressionS2:
		return s2Codec{}, nil
	case format.CompressionLZ4:
		return lz4Codec{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidCompression, compressionType)
	}
}

// Stats accumulates payload sizes before and after compression.
type Stats struct {
	Algorithm      format.CompressionType
	Payloads       int
	OriginalSize   int64
	CompressedSize int64
}

// Add records one compressed payload.
func (s *Stats) Add(original, compressed int) {
	s.Payloads++
	s.OriginalSize += int64(original)
	s.CompressedSize += int64(compressed)
}

// Ratio returns compressed size / original size, or 0 when nothing was recorded.
func (s Stats) Ratio() float64 {
	if s.OriginalSize == 0 {
		return 0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

func checkSize(codec format.CompressionType, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s payload is %d bytes, expected %d", errs.ErrPayloadSize, codec, got, want)
	}

	return nil
}

type noneCodec struct{}

func (noneCodec) Type() format.CompressionType { return format.CompressionNone }

func (noneCodec) AppendCompressed(dst, src []byte) ([]byte, error) {
	return append(dst, src...), nil
}

func (noneCodec) AppendDecompressed(dst, src []byte, size int) ([]byte, error) {
	if err := checkSize(format.CompressionNone, len(src), size); err != nil {
		return dst, err
	}

	return append(dst, src...), nil
}
