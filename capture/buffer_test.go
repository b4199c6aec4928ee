package capture

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sumpdec/errs"
)

func TestNew(t *testing.T) {
	values := []uint32{0x3, 0x1, 0x0}
	timestamps := []int64{0, 5, 9}

	buf, err := New(values, timestamps)
	require.NoError(t, err)
	require.Equal(t, 3, buf.Len())
	require.Equal(t, uint32(0x1), buf.Value(1))
	require.Equal(t, int64(9), buf.Timestamp(2))
	require.Equal(t, NoTrigger, buf.TriggerPosition())
	require.False(t, buf.HasTrigger())
	require.Equal(t, AllChannels, buf.EnabledChannels())
	require.Equal(t, 32, buf.ChannelCount())
	require.Equal(t, int64(10), buf.AbsoluteLength())

	// New copies its inputs
	values[0] = 0xFF
	require.Equal(t, uint32(0x3), buf.Value(0))
}

func TestNew_Errors(t *testing.T) {
	t.Run("length mismatch", func(t *testing.T) {
		_, err := New([]uint32{1, 2}, []int64{0})
		require.ErrorIs(t, err, errs.ErrLengthMismatch)
	})

	t.Run("decreasing timestamps", func(t *testing.T) {
		_, err := New([]uint32{1, 2, 3}, []int64{0, 4, 3})
		require.ErrorIs(t, err, errs.ErrTimestampOrder)
	})

	t.Run("zero channel mask", func(t *testing.T) {
		_, err := New([]uint32{1}, []int64{0}, WithEnabledChannels(0))
		require.ErrorIs(t, err, errs.ErrInvalidChannelMask)
	})

	t.Run("negative rate", func(t *testing.T) {
		_, err := New([]uint32{1}, []int64{0}, WithRate(-1))
		require.Error(t, err)
	})

	t.Run("invalid trigger", func(t *testing.T) {
		_, err := New([]uint32{1}, []int64{0}, WithTrigger(-5))
		require.Error(t, err)
	})
}

func TestNew_EqualTimestampsAllowed(t *testing.T) {
	buf, err := New([]uint32{1, 2}, []int64{3, 3})
	require.NoError(t, err)
	require.Equal(t, 2, buf.Len())
}

func TestWrap_AdoptsSlices(t *testing.T) {
	values := []uint32{0x1, 0x2}
	buf, err := Wrap(values, []int64{0, 1})
	require.NoError(t, err)

	values[1] = 0x7
	require.Equal(t, uint32(0x7), buf.Value(1))
}

func TestBuffer_Options(t *testing.T) {
	buf, err := New(
		[]uint32{0x1, 0x2, 0x3},
		[]int64{0, 10, 20},
		WithTrigger(10),
		WithEnabledChannels(0x00FF),
		WithRate(1_000_000),
		WithAbsoluteLength(100),
	)
	require.NoError(t, err)
	require.True(t, buf.HasTrigger())
	require.Equal(t, int64(10), buf.TriggerPosition())
	require.Equal(t, uint32(0xFF), buf.EnabledChannels())
	require.Equal(t, 8, buf.ChannelCount())
	require.Equal(t, 1_000_000, buf.Rate())
	require.Equal(t, int64(100), buf.AbsoluteLength())

	require.True(t, buf.ChannelEnabled(7))
	require.False(t, buf.ChannelEnabled(8))
	require.False(t, buf.ChannelEnabled(-1))
	require.False(t, buf.ChannelEnabled(32))
}

func TestBuffer_AbsoluteLengthCoversSamples(t *testing.T) {
	buf, err := New([]uint32{0, 1}, []int64{0, 50}, WithAbsoluteLength(10))
	require.NoError(t, err)
	require.Equal(t, int64(51), buf.AbsoluteLength())
}

func TestBuffer_RelativeTime(t *testing.T) {
	buf, err := New([]uint32{0}, []int64{0})
	require.NoError(t, err)
	require.Equal(t, int64(42), buf.RelativeTime(42))

	buf, err = New([]uint32{0}, []int64{0}, WithTrigger(40))
	require.NoError(t, err)
	require.Equal(t, int64(2), buf.RelativeTime(42))
	require.Equal(t, int64(-40), buf.RelativeTime(0))
}

func TestBuffer_Level(t *testing.T) {
	buf, err := New([]uint32{0b10, 0b01}, []int64{0, 1})
	require.NoError(t, err)

	require.False(t, buf.Level(0, 0))
	require.True(t, buf.Level(0, 1))
	require.True(t, buf.Level(1, 0))
	require.False(t, buf.Level(1, 1))
}

func TestBuffer_All(t *testing.T) {
	buf, err := New([]uint32{7, 8, 9}, []int64{1, 2, 3})
	require.NoError(t, err)

	var got []Sample
	for i, s := range buf.All() {
		require.Equal(t, buf.Value(i), s.Value)
		got = append(got, s)
	}
	require.Equal(t, []Sample{{7, 1}, {8, 2}, {9, 3}}, got)

	count := 0
	for range buf.All() {
		count++
		break
	}
	require.Equal(t, 1, count)
}

func TestBuffer_CopiesAreIndependent(t *testing.T) {
	buf, err := New([]uint32{1, 2}, []int64{0, 1})
	require.NoError(t, err)

	values := buf.Values()
	values[0] = 99
	timestamps := buf.Timestamps()
	timestamps[0] = 99

	require.Equal(t, uint32(1), buf.Value(0))
	require.Equal(t, int64(0), buf.Timestamp(0))
}

func TestBuffer_Fingerprint(t *testing.T) {
	a, err := New([]uint32{1, 2, 3}, []int64{0, 1, 2})
	require.NoError(t, err)
	b, err := New([]uint32{1, 2, 3}, []int64{0, 1, 2}, WithTrigger(1))
	require.NoError(t, err)
	c, err := New([]uint32{1, 2, 4}, []int64{0, 1, 2})
	require.NoError(t, err)

	require.Equal(t, a.Fingerprint(), b.Fingerprint())
	require.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	var wg sync.WaitGroup
	results := make([]uint64, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Fingerprint()
		}(i)
	}
	wg.Wait()
	for _, fp := range results {
		require.Equal(t, c.Fingerprint(), fp)
	}
}

func TestBuffer_Empty(t *testing.T) {
	buf, err := New(nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, buf.Len())
	require.Equal(t, int64(0), buf.AbsoluteLength())
	require.Contains(t, buf.String(), "samples=0")
}
