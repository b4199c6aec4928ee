// Package compress provides the payload codecs of the annotation stream.
//
// Supported algorithms:
//   - None: payloads are stored as is
//   - Zstd: best ratio, the usual choice for archived decode results
//   - S2: fast with a good ratio
//   - LZ4: fastest decompression
//
// Zstd is backed by github.com/klauspost/compress/zstd. Building with the
// gozstd tag (and cgo enabled) switches it to the cgo binding
// github.com/valyala/gozstd; both produce standard zstd frames.
//
// Example:
//
//	codec, err := compress.New(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	scratch, err = codec.AppendCompressed(scratch[:0], batch)
package compress
