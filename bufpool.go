package suit

import "sync"

// Local scratch buffer pool for the streaming read loops (image digesting,
// content checks, cross-component copies). One buffer is held for the
// duration of a loop and returned when it finishes, so steady-state
// validation does not allocate per chunk.

type readBuf struct {
	b []byte
}

var readBufPool = sync.Pool{New: func() any { return &readBuf{b: make([]byte, 0, 64)} }}

// getReadBuf obtains a pooled buffer with length exactly n.
func getReadBuf(n int) *readBuf {
	rb := readBufPool.Get().(*readBuf)
	rb.ensure(n)
	return rb
}

// putReadBuf returns the buffer to the pool. The content is left intact;
// callers must not retain the slice afterwards.
func putReadBuf(rb *readBuf) { readBufPool.Put(rb) }

// ensure sets the buffer length to n, growing the backing array if needed.
func (rb *readBuf) ensure(n int) {
	if cap(rb.b) >= n {
		rb.b = rb.b[:n]
		return
	}
	c := cap(rb.b)
	if c == 0 {
		c = 64
	}
	for c < n {
		c <<= 1
	}
	rb.b = make([]byte, n, c)
}
