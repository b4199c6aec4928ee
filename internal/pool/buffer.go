package pool

import (
	"io"
	"slices"
	"sync"
)

// Buffer is a reusable byte slice. Callers append to B directly.
type Buffer struct {
	B []byte
}

// Reserve makes room for n more bytes without changing the contents.
func (b *Buffer) Reserve(n int) {
	b.B = slices.Grow(b.B, n)
}

// WriteTo writes the contents of the buffer to w in a single Write call.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.B)
	return int64(n), err
}

// BufferPool recycles Buffers of one use. Buffers that grew past the
// pool's limit are released to the garbage collector instead.
type BufferPool struct {
	pool  sync.Pool
	limit int
}

// NewBufferPool creates a pool of buffers starting at size bytes and
// retained up to limit bytes of capacity. A zero limit retains everything.
func NewBufferPool(size, limit int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() any { return &Buffer{B: make([]byte, 0, size)} },
		},
		limit: limit,
	}
}

// Get returns an empty buffer.
func (p *BufferPool) Get() *Buffer {
	b, _ := p.pool.Get().(*Buffer)
	return b
}

// Put empties b and returns it to the pool. Nil buffers are ignored.
func (p *BufferPool) Put(b *Buffer) {
	if b == nil || (p.limit > 0 && cap(b.B) > p.limit) {
		return
	}
	b.B = b.B[:0]
	p.pool.Put(b)
}

// Streams holds RLE encoder output, 16KiB up to 4MiB.
var Streams = NewBufferPool(16<<10, 4<<20)

// Frames holds length-prefixed annotation frames, 4KiB up to 256KiB.
var Frames = NewBufferPool(4<<10, 256<<10)
