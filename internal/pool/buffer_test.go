package pool

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer_Reserve(t *testing.T) {
	b := &Buffer{B: []byte("abc")}
	b.Reserve(100)
	require.GreaterOrEqual(t, cap(b.B)-len(b.B), 100)
	require.Equal(t, []byte("abc"), b.B)

	before := cap(b.B)
	b.Reserve(10)
	require.Equal(t, before, cap(b.B), "enough room already")
}

func TestBuffer_WriteTo(t *testing.T) {
	b := &Buffer{B: []byte{0x01, 0x02, 0x83}}

	var out bytes.Buffer
	n, err := b.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.Equal(t, []byte{0x01, 0x02, 0x83}, out.Bytes())
}

func TestBufferPool(t *testing.T) {
	p := NewBufferPool(16, 64)

	b := p.Get()
	require.NotNil(t, b)
	require.Equal(t, 16, cap(b.B))
	b.B = append(b.B, "abc"...)
	p.Put(b)

	reused := p.Get()
	require.Empty(t, reused.B, "pooled buffers come back empty")

	p.Put(&Buffer{B: make([]byte, 0, 128)}) // over the limit, dropped
	p.Put(nil)
}

func TestDefaultPools(t *testing.T) {
	for _, p := range []*BufferPool{Streams, Frames} {
		b := p.Get()
		require.NotNil(t, b)
		require.Empty(t, b.B)
		p.Put(b)
	}
}

func TestBufferPool_Concurrent(t *testing.T) {
	p := NewBufferPool(32, 1024)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for range 100 {
				b := p.Get()
				b.B = append(b.B, byte(id))
				if len(b.B) != 1 {
					t.Errorf("buffer not emptied: %d bytes", len(b.B))
				}
				p.Put(b)
			}
		}(i)
	}
	wg.Wait()
}
