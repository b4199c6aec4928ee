package encoding

import (
	"fmt"
	"iter"

	"github.com/arloliu/sumpdec/errs"
)

// PWMPadding is the length in ticks of the low run that precedes a PWM pattern.
const PWMPadding = 3

// Pattern describes a periodic two-level signal: a padding run of the low
// value followed by Pulses runs alternating between the high and low value,
// starting high.
type Pattern struct {
	High      uint32
	Low       uint32
	HighTicks int64
	LowTicks  int64
	Padding   int64
	Pulses    int
}

// NewPWMPattern creates the pulse-width modulated calibration pattern used to
// verify an RLE channel layout.
//
// The pulse width is the largest run a word of widthBits bits can hold with its
// flag bit, (1 << (widthBits-1)) - 1 ticks, split ratio high to low. The high
// value sets every even channel of mask; the low value is the high value
// shifted down by one channel, restricted to mask.
//
// Parameters:
//   - widthBits: Nominal sample width in bits (8, 16, 24 or 32)
//   - ratio: Fraction of the pulse spent high, in (0, 1)
//   - mask: Enabled-channel mask
//   - pulses: Number of runs after the padding
//
// Returns:
//   - Pattern: The pattern
//   - error: errs.ErrInvalidPattern if a parameter is out of range
func NewPWMPattern(widthBits int, ratio float64, mask uint32, pulses int) (Pattern, error) {
	if widthBits < 2 || widthBits > 32 {
		return Pattern{}, fmt.Errorf("%w: width %d bits", errs.ErrInvalidPattern, widthBits)
	}
	if ratio <= 0 || ratio >= 1 {
		return Pattern{}, fmt.Errorf("%w: ratio %v", errs.ErrInvalidPattern, ratio)
	}

	pulseWidth := int64(1)<<(widthBits-1) - 1
	highTicks := int64(ratio * float64(pulseWidth))
	high := uint32(0x55555555) & mask

	p := Pattern{
		High:      high,
		Low:       (high >> 1) & mask,
		HighTicks: highTicks,
		LowTicks:  pulseWidth - highTicks,
		Padding:   PWMPadding,
		Pulses:    pulses,
	}

	return p, p.Validate()
}

// Validate checks that every run of the pattern is at least one tick long.
func (p Pattern) Validate() error {
	if p.HighTicks <= 0 || p.LowTicks <= 0 {
		return fmt.Errorf("%w: high %d / low %d ticks", errs.ErrInvalidPattern, p.HighTicks, p.LowTicks)
	}
	if p.Padding < 0 || p.Pulses < 0 {
		return fmt.Errorf("%w: padding %d, pulses %d", errs.ErrInvalidPattern, p.Padding, p.Pulses)
	}

	return nil
}

// Runs iterates over the (value, ticks) runs of the pattern, padding first.
func (p Pattern) Runs() iter.Seq2[uint32, int64] {
	return func(yield func(uint32, int64) bool) {
		if p.Padding > 0 && !yield(p.Low, p.Padding) {
			return
		}

		for i := range p.Pulses {
			if i%2 == 0 {
				if !yield(p.High, p.HighTicks) {
					return
				}
			} else if !yield(p.Low, p.LowTicks) {
				return
			}
		}
	}
}

// Samples returns the compact sample form of the pattern: one entry per run,
// stamped with the tick the run starts at.
func (p Pattern) Samples() ([]uint32, []int64) {
	n := p.Pulses
	if p.Padding > 0 {
		n++
	}

	values := make([]uint32, 0, n)
	timestamps := make([]int64, 0, n)

	var tick int64
	for v, ticks := range p.Runs() {
		values = append(values, v)
		timestamps = append(timestamps, tick)
		tick += ticks
	}

	return values, timestamps
}

// Ticks returns the total length of the pattern.
func (p Pattern) Ticks() int64 {
	highRuns := int64((p.Pulses + 1) / 2)
	lowRuns := int64(p.Pulses / 2)

	return p.Padding + highRuns*p.HighTicks + lowRuns*p.LowTicks
}
