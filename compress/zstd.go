package compress

import "github.com/arloliu/sumpdec/format"

// zstdCodec is the Zstandard codec. Its implementation is selected at
// build time, see zstd_pure.go and zstd_cgo.go; both produce standard
// zstd frames, so streams are portable between builds.
type zstdCodec struct{}

func (zstdCodec) Type() format.CompressionType { return format.CompressionZstd }
