// Package endian provides byte order utilities for the fixed-width words of an
// RLE sample stream.
//
// SUMP-compatible capture hardware transmits one word per sample or count,
// where the word width is the number of enabled 8-channel groups (1 to 4
// bytes). The standard library only covers 2, 4 and 8 byte integers, so
// WordEngine extends an EndianEngine with reads and writes of arbitrary widths
// up to 32 bits.
//
// # Basic Usage
//
//	words, _ := endian.NewWordEngine(endian.GetLittleEndianEngine(), 3)
//	buf := words.AppendUint(nil, 0x00ABCDEF)  // []byte{0xEF, 0xCD, 0xAB}
//	v := words.Uint(buf)                      // 0x00ABCDEF
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// WordEngine values are immutable.
package endian

import (
	"encoding/binary"
	"fmt"
)

// MaxWordWidth is the widest supported word in bytes.
const MaxWordWidth = 4

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// WordEngine encodes and decodes unsigned words of a fixed width in bytes.
type WordEngine struct {
	littleEndian bool
	width        int
}

// NewWordEngine creates a word engine for the given byte order and width.
//
// Parameters:
//   - engine: Byte order of each word (the RLE wire format is little-endian)
//   - width: Word width in bytes, 1 to MaxWordWidth
//
// Returns:
//   - WordEngine: The engine
//   - error: If the width is out of range
func NewWordEngine(engine EndianEngine, width int) (WordEngine, error) {
	if width < 1 || width > MaxWordWidth {
		return WordEngine{}, fmt.Errorf("word width %d out of range [1, %d]", width, MaxWordWidth)
	}

	return WordEngine{
		littleEndian: engine == binary.LittleEndian,
		width:        width,
	}, nil
}

// Width returns the word width in bytes.
func (w WordEngine) Width() int {
	return w.width
}

// Bits returns the word width in bits.
func (w WordEngine) Bits() int {
	return w.width * 8
}

// TopBit returns the most significant bit of a word, which lives in the final
// byte of a little-endian word.
func (w WordEngine) TopBit() uint32 {
	return uint32(1) << (w.width*8 - 1)
}

// MaxUint returns the largest value a word can hold.
func (w WordEngine) MaxUint() uint32 {
	if w.width == MaxWordWidth {
		return ^uint32(0)
	}

	return uint32(1)<<(w.width*8) - 1
}

// Uint reads one word from the start of b. b must hold at least Width bytes.
func (w WordEngine) Uint(b []byte) uint32 {
	_ = b[w.width-1] // bounds check hint

	var v uint32
	for i := range w.width {
		shift := i * 8
		if !w.littleEndian {
			shift = (w.width - 1 - i) * 8
		}
		v |= uint32(b[i]) << shift
	}

	return v
}

// PutUint writes v into the first Width bytes of b, dropping bits above the word width.
func (w WordEngine) PutUint(b []byte, v uint32) {
	_ = b[w.width-1] // bounds check hint

	for i := range w.width {
		shift := i * 8
		if !w.littleEndian {
			shift = (w.width - 1 - i) * 8
		}
		b[i] = byte(v >> shift)
	}
}

// AppendUint appends v as one word to b and returns the extended slice.
func (w WordEngine) AppendUint(b []byte, v uint32) []byte {
	var tmp [MaxWordWidth]byte
	w.PutUint(tmp[:w.width], v)

	return append(b, tmp[:w.width]...)
}
