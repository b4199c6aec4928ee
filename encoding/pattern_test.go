package encoding

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sumpdec/errs"
)

func TestNewPWMPattern(t *testing.T) {
	p, err := NewPWMPattern(8, 0.74, 0x000000FF, 4)
	require.NoError(t, err)
	require.Equal(t, uint32(0x55), p.High)
	require.Equal(t, uint32(0x2A), p.Low)
	require.Equal(t, int64(93), p.HighTicks)
	require.Equal(t, int64(34), p.LowTicks)
	require.Equal(t, int64(PWMPadding), p.Padding)

	p, err = NewPWMPattern(16, 0.74, 0xFF00FF00, 2)
	require.NoError(t, err)
	require.Equal(t, uint32(0x55005500), p.High)
	require.Equal(t, uint32(0x2A002A00), p.Low)
	require.Equal(t, int64(32767), p.HighTicks+p.LowTicks)
}

func TestNewPWMPattern_Invalid(t *testing.T) {
	_, err := NewPWMPattern(1, 0.5, 0xFF, 1)
	require.ErrorIs(t, err, errs.ErrInvalidPattern)

	_, err = NewPWMPattern(33, 0.5, 0xFF, 1)
	require.ErrorIs(t, err, errs.ErrInvalidPattern)

	_, err = NewPWMPattern(8, 0, 0xFF, 1)
	require.ErrorIs(t, err, errs.ErrInvalidPattern)

	_, err = NewPWMPattern(8, 1, 0xFF, 1)
	require.ErrorIs(t, err, errs.ErrInvalidPattern)

	// a 2-bit pulse is a single tick, too short to split
	_, err = NewPWMPattern(2, 0.5, 0xFF, 1)
	require.ErrorIs(t, err, errs.ErrInvalidPattern)

	_, err = NewPWMPattern(8, 0.5, 0xFF, -1)
	require.ErrorIs(t, err, errs.ErrInvalidPattern)
}

func TestPattern_Samples(t *testing.T) {
	p := Pattern{High: 1, Low: 0, HighTicks: 5, LowTicks: 2, Padding: 3, Pulses: 3}

	values, timestamps := p.Samples()
	require.Equal(t, []uint32{0, 1, 0, 1}, values)
	require.Equal(t, []int64{0, 3, 8, 10}, timestamps)
	require.Equal(t, int64(15), p.Ticks())

	p.Padding = 0
	values, timestamps = p.Samples()
	require.Equal(t, []uint32{1, 0, 1}, values)
	require.Equal(t, []int64{0, 5, 7}, timestamps)
	require.Equal(t, int64(12), p.Ticks())
}

func TestPattern_RunsStopsEarly(t *testing.T) {
	p := Pattern{High: 1, Low: 0, HighTicks: 1, LowTicks: 1, Padding: 1, Pulses: 100}

	n := 0
	for range p.Runs() {
		n++
		if n == 3 {
			break
		}
	}
	require.Equal(t, 3, n)
}
