// Package capture holds the sample buffer shared by the RLE codec and every
// protocol decoder.
//
// A Buffer pairs a sequence of packed channel values with absolute timestamps
// (in sample ticks). Bit n of a value is the level of channel n at that
// timestamp. Buffers are immutable once built and may be read by any number
// of goroutines at once.
package capture

import (
	"fmt"
	"iter"
	"math/bits"
	"slices"
	"sync"

	"github.com/arloliu/sumpdec/errs"
	"github.com/arloliu/sumpdec/internal/hash"
	"github.com/arloliu/sumpdec/internal/options"
)

const (
	// NoTrigger marks a capture without a trigger position.
	NoTrigger int64 = -1

	// AllChannels is the default enabled-channel mask.
	AllChannels uint32 = 0xFFFFFFFF
)

// Sample is one entry of a Buffer.
type Sample struct {
	Value uint32
	Time  int64
}

// Buffer is an immutable view over captured samples.
type Buffer struct {
	values          []uint32
	timestamps      []int64
	triggerPosition int64
	enabledChannels uint32
	rate            int
	absoluteLength  int64

	fingerprintOnce sync.Once
	fingerprint     uint64
}

// New creates a buffer from copies of values and timestamps.
//
// Parameters:
//   - values: Packed channel levels, one per sample
//   - timestamps: Absolute tick of each sample, non-decreasing
//   - opts: Optional trigger, channel mask, rate and length settings
//
// Returns:
//   - *Buffer: The buffer
//   - error: errs.ErrLengthMismatch, errs.ErrTimestampOrder or an option error
func New(values []uint32, timestamps []int64, opts ...Option) (*Buffer, error) {
	return Wrap(slices.Clone(values), slices.Clone(timestamps), opts...)
}

// Wrap creates a buffer that adopts values and timestamps without copying.
// The caller must not modify either slice afterwards.
func Wrap(values []uint32, timestamps []int64, opts ...Option) (*Buffer, error) {
	if len(values) != len(timestamps) {
		return nil, fmt.Errorf("%w: %d values, %d timestamps", errs.ErrLengthMismatch, len(values), len(timestamps))
	}

	for i := 1; i < len(timestamps); i++ {
		if timestamps[i] < timestamps[i-1] {
			return nil, fmt.Errorf("%w: index %d (%d < %d)", errs.ErrTimestampOrder, i, timestamps[i], timestamps[i-1])
		}
	}

	b := &Buffer{
		values:          values,
		timestamps:      timestamps,
		triggerPosition: NoTrigger,
		enabledChannels: AllChannels,
	}

	if err := options.ApplyAndValidate(b, opts...); err != nil {
		return nil, err
	}

	return b, nil
}

// Validate fills defaults that depend on the samples and checks option consistency.
func (b *Buffer) Validate() error {
	if b.enabledChannels == 0 {
		return errs.ErrInvalidChannelMask
	}

	if n := len(b.timestamps); n > 0 {
		b.absoluteLength = max(b.absoluteLength, b.timestamps[n-1]+1)
	}

	return nil
}

// Len returns the number of samples.
func (b *Buffer) Len() int {
	return len(b.values)
}

// Value returns the packed channel levels of sample i.
func (b *Buffer) Value(i int) uint32 {
	return b.values[i]
}

// Timestamp returns the absolute tick of sample i.
func (b *Buffer) Timestamp(i int) int64 {
	return b.timestamps[i]
}

// Level reports whether channel line is high at sample i.
func (b *Buffer) Level(i int, line int) bool {
	return b.values[i]&(1<<uint(line)) != 0
}

// Values returns a copy of the sample values.
func (b *Buffer) Values() []uint32 {
	return slices.Clone(b.values)
}

// Timestamps returns a copy of the sample timestamps.
func (b *Buffer) Timestamps() []int64 {
	return slices.Clone(b.timestamps)
}

// All iterates over the samples in order.
func (b *Buffer) All() iter.Seq2[int, Sample] {
	return func(yield func(int, Sample) bool) {
		for i, v := range b.values {
			if !yield(i, Sample{Value: v, Time: b.timestamps[i]}) {
				return
			}
		}
	}
}

// TriggerPosition returns the trigger tick, or NoTrigger.
func (b *Buffer) TriggerPosition() int64 {
	return b.triggerPosition
}

// HasTrigger reports whether the capture has a trigger position.
func (b *Buffer) HasTrigger() bool {
	return b.triggerPosition != NoTrigger
}

// RelativeTime converts an absolute tick to a tick relative to the trigger.
// Without a trigger, t is returned unchanged.
func (b *Buffer) RelativeTime(t int64) int64 {
	if b.HasTrigger() {
		return t - b.triggerPosition
	}

	return t
}

// EnabledChannels returns the mask of channels that carry captured data.
func (b *Buffer) EnabledChannels() uint32 {
	return b.enabledChannels
}

// ChannelEnabled reports whether channel line is part of the capture.
func (b *Buffer) ChannelEnabled(line int) bool {
	return line >= 0 && line < 32 && b.enabledChannels&(1<<uint(line)) != 0
}

// ChannelCount returns the number of channels spanned by the capture, that is
// the highest enabled channel index plus one.
func (b *Buffer) ChannelCount() int {
	return bits.Len32(b.enabledChannels)
}

// Rate returns the sample rate in Hz, or 0 when unknown.
func (b *Buffer) Rate() int {
	return b.rate
}

// AbsoluteLength returns the number of ticks covered by the capture.
func (b *Buffer) AbsoluteLength() int64 {
	return b.absoluteLength
}

// Fingerprint returns the xxHash64 of the values and timestamps.
// It is computed on first use.
func (b *Buffer) Fingerprint() uint64 {
	b.fingerprintOnce.Do(func() {
		b.fingerprint = hash.Samples(b.values, b.timestamps)
	})

	return b.fingerprint
}

// String returns a short description for logs.
func (b *Buffer) String() string {
	return fmt.Sprintf("capture(samples=%d, channels=%#08x, trigger=%d, rate=%d)",
		len(b.values), b.enabledChannels, b.triggerPosition, b.rate)
}
