package simulate

import (
	"fmt"

	"github.com/arloliu/sumpdec/capture"
	"github.com/arloliu/sumpdec/errs"
)

// glitchBit is the data bit whose SCL-high phase Glitch disturbs.
const glitchBit = 3

// MinHalfPeriod is the shortest supported half clock period in ticks. A
// glitch needs two ticks of SCL high.
const MinHalfPeriod = 2

// I2CBus synthesizes an I2C waveform on two lines.
//
// Every operation holds each line level for one half clock period. Data
// changes only while SCL is low, so the decoder sees SDA move under a high
// SCL only for START, STOP and injected glitches.
//
// Operations never fail individually. The first error is kept and returned
// by Err, Compact and Expanded.
type I2CBus struct {
	sdaMask uint32
	sclMask uint32
	half    int64
	runs    *RunBuilder

	sda, scl bool
	glitch   bool
	err      error
}

// NewI2CBus creates a bus with SDA and SCL on the given channels. The bus
// starts idle with zero ticks recorded.
func NewI2CBus(sda, scl int, halfPeriod int64) (*I2CBus, error) {
	for _, line := range []int{sda, scl} {
		if line < 0 || line > 31 {
			return nil, fmt.Errorf("%w: %d", errs.ErrInvalidLine, line)
		}
	}
	if sda == scl {
		return nil, fmt.Errorf("%w: SDA and SCL both on channel %d", errs.ErrOverlappingLines, sda)
	}
	if halfPeriod < MinHalfPeriod {
		return nil, fmt.Errorf("half clock period %d below %d ticks", halfPeriod, MinHalfPeriod)
	}

	return &I2CBus{
		sdaMask: 1 << sda,
		sclMask: 1 << scl,
		half:    halfPeriod,
		runs:    NewRunBuilder(),
		sda:     true,
		scl:     true,
	}, nil
}

// Mask returns the channel mask of both lines.
func (b *I2CBus) Mask() uint32 {
	return b.sdaMask | b.sclMask
}

// Runs returns the underlying run builder.
func (b *I2CBus) Runs() *RunBuilder {
	return b.runs
}

// Err returns the first error met by an operation.
func (b *I2CBus) Err() error {
	return b.err
}

// Idle holds both lines high for ticks ticks.
func (b *I2CBus) Idle(ticks int64) {
	b.hold(true, true, ticks)
}

// Start issues a start condition. On a busy bus it issues a repeated start.
func (b *I2CBus) Start() {
	if !b.sda || !b.scl {
		b.RepeatedStart()
		return
	}
	b.hold(false, true, b.half)
}

// RepeatedStart releases SDA with SCL low, raises SCL and then pulls SDA low.
func (b *I2CBus) RepeatedStart() {
	b.hold(true, false, b.half)
	b.hold(true, true, b.half)
	b.hold(false, true, b.half)
}

// Stop pulls SDA low with SCL low, raises SCL and then releases SDA. The bus
// is idle afterwards.
func (b *I2CBus) Stop() {
	b.hold(false, false, b.half)
	b.hold(false, true, b.half)
	b.hold(true, true, b.half)
}

// SendByte clocks out v MSB first followed by the acknowledge bit. ack
// pulls SDA low on the ninth clock; otherwise SDA stays high (NACK).
func (b *I2CBus) SendByte(v byte, ack bool) {
	for bit := 7; bit >= 0; bit-- {
		level := v&(1<<bit) != 0
		b.hold(level, false, b.half)

		if b.glitch && bit == glitchBit {
			first := b.half / 2
			b.hold(level, true, first)
			b.hold(!level, true, b.half-first)
			b.glitch = false

			continue
		}
		b.hold(level, true, b.half)
	}

	b.hold(!ack, false, b.half)
	b.hold(!ack, true, b.half)
}

// Glitch makes SDA flip once during the SCL-high phase of bit 3 of the next
// byte. The flip is held until SCL falls, so the byte still reads correctly
// and the decoder reports exactly one bus error.
func (b *I2CBus) Glitch() {
	b.glitch = true
}

// Compact builds a transition buffer; see RunBuilder.Compact. The enabled
// channels default to the two bus lines.
func (b *I2CBus) Compact(opts ...capture.Option) (*capture.Buffer, error) {
	if b.err != nil {
		return nil, b.err
	}

	return b.runs.Compact(b.options(opts)...)
}

// Expanded builds a per-tick buffer; see RunBuilder.Expanded.
func (b *I2CBus) Expanded(opts ...capture.Option) (*capture.Buffer, error) {
	if b.err != nil {
		return nil, b.err
	}

	return b.runs.Expanded(b.options(opts)...)
}

func (b *I2CBus) options(opts []capture.Option) []capture.Option {
	all := make([]capture.Option, 0, len(opts)+1)
	all = append(all, capture.WithEnabledChannels(b.Mask()))

	return append(all, opts...)
}

func (b *I2CBus) hold(sda, scl bool, ticks int64) {
	if b.err != nil {
		return
	}

	var v uint32
	if sda {
		v |= b.sdaMask
	}
	if scl {
		v |= b.sclMask
	}
	if err := b.runs.Append(v, ticks); err != nil {
		b.err = err
		return
	}
	b.sda = sda
	b.scl = scl
}
