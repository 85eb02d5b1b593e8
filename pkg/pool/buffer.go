// Package pool recycles the scratch buffers frames are encoded into.
package pool

import (
	"bytes"
	"sync"
)

// BufferPool hands out reset byte buffers. Buffers that grew past twice the
// configured size, typically after encoding one large batch, are dropped
// instead of being kept alive by the pool.
type BufferPool struct {
	size int       // Initial capacity of each buffer.
	pool sync.Pool // Thread-safe pool of *bytes.Buffer.
}

// NewBufferPool creates a pool of buffers with the given initial capacity.
func NewBufferPool(size int) *BufferPool {
	bp := &BufferPool{size: size}
	bp.pool.New = func() any {
		return bytes.NewBuffer(make([]byte, 0, bp.size))
	}
	return bp
}

// Get retrieves an empty buffer from the pool.
func (bp *BufferPool) Get() *bytes.Buffer {
	buf := bp.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns a buffer to the pool. The caller must not use it afterwards.
func (bp *BufferPool) Put(buf *bytes.Buffer) {
	if buf.Cap() > bp.size*2 {
		return
	}

	buf.Reset()
	bp.pool.Put(buf)
}
