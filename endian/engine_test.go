package endian

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWordEngine(t *testing.T) {
	for width := 1; width <= MaxWordWidth; width++ {
		w, err := NewWordEngine(GetLittleEndianEngine(), width)
		require.NoError(t, err)
		require.Equal(t, width, w.Width())
		require.Equal(t, width*8, w.Bits())
	}

	_, err := NewWordEngine(GetLittleEndianEngine(), 0)
	require.Error(t, err)

	_, err = NewWordEngine(GetLittleEndianEngine(), 5)
	require.Error(t, err)
}

func TestWordEngine_TopBitAndMax(t *testing.T) {
	tests := []struct {
		width  int
		topBit uint32
		max    uint32
	}{
		{1, 0x80, 0xFF},
		{2, 0x8000, 0xFFFF},
		{3, 0x800000, 0xFFFFFF},
		{4, 0x80000000, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		w, err := NewWordEngine(GetLittleEndianEngine(), tt.width)
		require.NoError(t, err)
		require.Equal(t, tt.topBit, w.TopBit())
		require.Equal(t, tt.max, w.MaxUint())
	}
}

func TestWordEngine_LittleEndianLayout(t *testing.T) {
	w, err := NewWordEngine(GetLittleEndianEngine(), 3)
	require.NoError(t, err)

	buf := w.AppendUint(nil, 0x00ABCDEF)
	require.Equal(t, []byte{0xEF, 0xCD, 0xAB}, buf)
	require.Equal(t, uint32(0x00ABCDEF), w.Uint(buf))

	// bits above the word width are dropped
	buf = w.AppendUint(nil, 0xFF123456)
	require.Equal(t, []byte{0x56, 0x34, 0x12}, buf)
}

func TestWordEngine_BigEndianLayout(t *testing.T) {
	w, err := NewWordEngine(GetBigEndianEngine(), 2)
	require.NoError(t, err)

	buf := make([]byte, 2)
	w.PutUint(buf, 0xBEEF)
	require.Equal(t, []byte{0xBE, 0xEF}, buf)
	require.Equal(t, uint32(0xBEEF), w.Uint(buf))
}

func TestWordEngine_RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x7F, 0x80, 0xFF, 0x1234, 0x7FFFFF, 0xFFFFFFFF}

	for width := 1; width <= MaxWordWidth; width++ {
		w, err := NewWordEngine(GetLittleEndianEngine(), width)
		require.NoError(t, err)

		var buf []byte
		for _, v := range values {
			buf = w.AppendUint(buf, v)
		}
		require.Len(t, buf, len(values)*width)

		for i, v := range values {
			got := w.Uint(buf[i*width:])
			require.Equal(t, v&w.MaxUint(), got, "width=%d value=%#x", width, v)
		}
	}
}
