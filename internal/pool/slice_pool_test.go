package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlicePool_Get(t *testing.T) {
	p := NewSlicePool[uint16]()

	t.Run("returns empty slice with requested capacity", func(t *testing.T) {
		slice, cleanup := p.Get(100)
		defer cleanup()

		require.Empty(t, slice)
		require.GreaterOrEqual(t, cap(slice), 100)
	})

	t.Run("returned slice is empty after reuse", func(t *testing.T) {
		slice, cleanup := p.Get(8)
		slice = append(slice, 1, 2, 3)
		require.Len(t, slice, 3)
		cleanup()

		again, cleanup2 := p.Get(8)
		defer cleanup2()
		require.Empty(t, again)
	})

	t.Run("grows when capacity insufficient", func(t *testing.T) {
		_, cleanup := p.Get(4)
		cleanup()

		slice, cleanup2 := p.Get(4096)
		defer cleanup2()
		require.GreaterOrEqual(t, cap(slice), 4096)
	})
}

func TestTypedSlicePools(t *testing.T) {
	values, cleanupValues := GetUint32Slice(16)
	defer cleanupValues()
	require.Empty(t, values)
	require.GreaterOrEqual(t, cap(values), 16)

	counts, cleanupCounts := GetInt64Slice(32)
	defer cleanupCounts()
	require.Empty(t, counts)
	require.GreaterOrEqual(t, cap(counts), 32)
}
