package encoding

import (
	"fmt"

	"github.com/arloliu/sumpdec/capture"
	"github.com/arloliu/sumpdec/endian"
	"github.com/arloliu/sumpdec/errs"
	"github.com/arloliu/sumpdec/internal/pool"
)

// RLEEncoder writes (sample, count) word pairs in the SUMP RLE wire format.
//
// It is the test and simulation direction of the codec: capture hardware
// produces these streams, RLEDecoder consumes them.
type RLEEncoder struct {
	cfg    RLEConfig
	words  endian.WordEngine
	buf    *pool.Buffer
	runs   int
	ticks  int64
	maxRun int64
}

// NewRLEEncoder creates an encoder for the given channel layout.
//
// The encoder takes a buffer from the stream buffer pool; call Finish once the
// encoded bytes have been consumed.
//
// Example:
//
//	enc, err := encoding.NewRLEEncoder(encoding.RLEConfig{EnabledChannels: 0xFF})
//	if err != nil {
//	    return err
//	}
//	defer enc.Finish()
//
//	_ = enc.WriteRun(0x03, 10) // both lines high for 10 ticks
//	stream := enc.Bytes()
func NewRLEEncoder(cfg RLEConfig) (*RLEEncoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	words, err := endian.NewWordEngine(endian.GetLittleEndianEngine(), cfg.Width())
	if err != nil {
		return nil, err
	}

	return &RLEEncoder{
		cfg:    cfg,
		words:  words,
		buf:    pool.Streams.Get(),
		maxRun: int64(words.TopBit()),
	}, nil
}

// Config returns the channel layout of the stream.
func (e *RLEEncoder) Config() RLEConfig {
	return e.cfg
}

// WriteRun appends value repeated for ticks sample ticks.
//
// Runs longer than a count word can hold are split into several pairs with
// the same sample word.
//
// Returns:
//   - errs.ErrInvalidRunLength if ticks is not positive
//   - errs.ErrReservedChannel if the packed value sets the count flag bit
func (e *RLEEncoder) WriteRun(value uint32, ticks int64) error {
	if ticks <= 0 {
		return fmt.Errorf("%w: %d ticks", errs.ErrInvalidRunLength, ticks)
	}

	top := e.words.TopBit()
	packed := e.cfg.Pack(value)
	if packed&top != 0 {
		return fmt.Errorf("%w: value %#08x", errs.ErrReservedChannel, value)
	}

	width := e.words.Width()
	pairs := int((ticks + e.maxRun - 1) / e.maxRun)
	e.buf.Reserve(pairs * 2 * width)

	for remaining := ticks; remaining > 0; {
		n := min(remaining, e.maxRun)
		e.buf.B = e.words.AppendUint(e.buf.B, packed)
		e.buf.B = e.words.AppendUint(e.buf.B, uint32(n-1)|top)
		remaining -= n
		e.runs++
	}
	e.ticks += ticks

	return nil
}

// Encode appends every run of the pattern.
func (e *RLEEncoder) Encode(p Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}

	for v, ticks := range p.Runs() {
		if err := e.WriteRun(v, ticks); err != nil {
			return err
		}
	}

	return nil
}

// EncodeBuffer appends the samples of buf.
//
// Each sample lasts until the timestamp of the next one; the last sample
// lasts until the buffer's absolute length. Neighbouring samples with equal
// values are merged into one run and samples that last zero ticks are
// dropped. The stream always starts at tick 0, so timestamps are rebased to
// the first sample.
func (e *RLEEncoder) EncodeBuffer(buf *capture.Buffer) error {
	n := buf.Len()
	if n == 0 {
		return nil
	}

	value := buf.Value(0)
	start := buf.Timestamp(0)
	for i := 1; i <= n; i++ {
		var next int64
		if i < n {
			next = buf.Timestamp(i)
			if buf.Value(i) == value {
				continue
			}
		} else {
			next = buf.AbsoluteLength()
		}

		if ticks := next - start; ticks > 0 {
			if err := e.WriteRun(value, ticks); err != nil {
				return err
			}
		}

		if i < n {
			value = buf.Value(i)
			start = next
		}
	}

	return nil
}

// Bytes returns the encoded stream.
// The returned slice is valid until the next write, Reset or Finish.
func (e *RLEEncoder) Bytes() []byte {
	return e.buf.B
}

// Len returns the number of (sample, count) pairs written.
func (e *RLEEncoder) Len() int {
	return e.runs
}

// Size returns the size of the encoded stream in bytes.
func (e *RLEEncoder) Size() int {
	return len(e.buf.B)
}

// Ticks returns the total number of sample ticks written.
func (e *RLEEncoder) Ticks() int64 {
	return e.ticks
}

// Reset discards the encoded stream and keeps the buffer for reuse.
func (e *RLEEncoder) Reset() {
	e.buf.B = e.buf.B[:0]
	e.runs = 0
	e.ticks = 0
}

// Finish returns the buffer to the pool. The encoder must not be used afterwards.
func (e *RLEEncoder) Finish() {
	pool.Streams.Put(e.buf)
	e.buf = nil
}
