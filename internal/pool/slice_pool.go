package pool

import "sync"

// SlicePool reuses the backing arrays of typed scratch slices.
type SlicePool[T any] struct {
	pool sync.Pool
}

// NewSlicePool creates an empty pool for slices of T.
func NewSlicePool[T any]() *SlicePool[T] {
	return &SlicePool[T]{
		pool: sync.Pool{
			New: func() any { return &[]T{} },
		},
	}
}

// Get retrieves a slice of length zero and capacity of at least size.
//
// The caller must call the returned cleanup function once it no longer uses
// the slice (or anything appended to it).
//
// Example:
//
//	counts, cleanup := runCountPool.Get(1024)
//	defer cleanup()
//	counts = append(counts, 42)
func (p *SlicePool[T]) Get(size int) ([]T, func()) {
	ptr, _ := p.pool.Get().(*[]T)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]T, 0, size)
	}

	return slice, func() {
		*ptr = slice[:0]
		p.pool.Put(ptr)
	}
}

var (
	uint32SlicePool = NewSlicePool[uint32]()
	int64SlicePool  = NewSlicePool[int64]()
)

// GetUint32Slice retrieves an empty uint32 slice with capacity for size elements.
func GetUint32Slice(size int) ([]uint32, func()) {
	return uint32SlicePool.Get(size)
}

// GetInt64Slice retrieves an empty int64 slice with capacity for size elements.
func GetInt64Slice(size int) ([]int64, func()) {
	return int64SlicePool.Get(size)
}
