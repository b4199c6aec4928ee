// Package simulate synthesizes captures for decoder tests and demos.
//
// RunBuilder collects (value, ticks) runs and renders them as a compact
// transition buffer, an expanded per-tick buffer, or an RLE stream. I2CBus
// drives a RunBuilder with bus-level operations, and the script language
// (see ParseScript) describes I2C scenarios as text files.
package simulate

import (
	"fmt"
	"slices"

	"github.com/arloliu/sumpdec/capture"
	"github.com/arloliu/sumpdec/encoding"
	"github.com/arloliu/sumpdec/errs"
)

// Run is a value held for a number of ticks.
type Run struct {
	Value uint32
	Ticks int64
}

// RunBuilder accumulates runs. Appending a value equal to the previous run
// extends that run.
type RunBuilder struct {
	runs  []Run
	ticks int64
}

// NewRunBuilder creates an empty builder.
func NewRunBuilder() *RunBuilder {
	return &RunBuilder{}
}

// Append adds ticks ticks of value.
func (b *RunBuilder) Append(value uint32, ticks int64) error {
	if ticks <= 0 {
		return fmt.Errorf("%w: %d ticks", errs.ErrInvalidRunLength, ticks)
	}

	if n := len(b.runs); n > 0 && b.runs[n-1].Value == value {
		b.runs[n-1].Ticks += ticks
	} else {
		b.runs = append(b.runs, Run{Value: value, Ticks: ticks})
	}
	b.ticks += ticks

	return nil
}

// Runs returns a copy of the runs.
func (b *RunBuilder) Runs() []Run {
	return slices.Clone(b.runs)
}

// Len returns the number of runs.
func (b *RunBuilder) Len() int {
	return len(b.runs)
}

// Ticks returns the total length in ticks.
func (b *RunBuilder) Ticks() int64 {
	return b.ticks
}

// Last returns the value of the final run.
func (b *RunBuilder) Last() (uint32, bool) {
	if len(b.runs) == 0 {
		return 0, false
	}

	return b.runs[len(b.runs)-1].Value, true
}

// Compact builds a buffer with one sample per run at the run's first tick,
// followed by a terminal sample that repeats the last value at the final
// tick. The terminal sample lets a decoder look at the start of the last run
// while scanning up to the second-to-last sample.
func (b *RunBuilder) Compact(opts ...capture.Option) (*capture.Buffer, error) {
	n := len(b.runs)
	if n == 0 {
		return capture.Wrap(nil, nil, opts...)
	}

	values := make([]uint32, 0, n+1)
	timestamps := make([]int64, 0, n+1)

	var tick int64
	for _, r := range b.runs {
		values = append(values, r.Value)
		timestamps = append(timestamps, tick)
		tick += r.Ticks
	}
	values = append(values, b.runs[n-1].Value)
	timestamps = append(timestamps, tick-1)

	return capture.Wrap(values, timestamps, b.options(opts)...)
}

// Expanded builds a buffer with one sample per tick.
func (b *RunBuilder) Expanded(opts ...capture.Option) (*capture.Buffer, error) {
	values := make([]uint32, 0, b.ticks)
	timestamps := make([]int64, 0, b.ticks)

	var tick int64
	for _, r := range b.runs {
		for range r.Ticks {
			values = append(values, r.Value)
			timestamps = append(timestamps, tick)
			tick++
		}
	}

	return capture.Wrap(values, timestamps, b.options(opts)...)
}

// Encode writes every run to enc.
func (b *RunBuilder) Encode(enc *encoding.RLEEncoder) error {
	for _, r := range b.runs {
		if err := enc.WriteRun(r.Value, r.Ticks); err != nil {
			return err
		}
	}

	return nil
}

func (b *RunBuilder) options(opts []capture.Option) []capture.Option {
	all := make([]capture.Option, 0, len(opts)+1)
	all = append(all, capture.WithAbsoluteLength(b.ticks))

	return append(all, opts...)
}
