// Package stream provides the bounded export queue and the consumer-facing
// device: snapshots produced by the pipeline are buffered in a FIFO and
// read out through reference-counted sessions with blocking or
// non-blocking semantics.
package stream

import (
	"fmt"
	"sync"
)

// FIFO is a bounded byte queue. Pushes are all-or-dropped: a payload that
// does not fit in the remaining capacity is discarded whole, so a consumer
// never observes a partial snapshot. Producers are expected to serialize
// among themselves; the internal mutex makes any single push or pop atomic
// with respect to the other side.
type FIFO struct {
	mu      sync.Mutex
	buf     []byte
	head    int // read position
	n       int // bytes buffered
	dropped uint64
	wake    chan struct{}
}

// NewFIFO allocates a queue of the given capacity in bytes.
func NewFIFO(capacity int) (*FIFO, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: invalid capacity %d", ErrResourceExhausted, capacity)
	}
	return &FIFO{
		buf:  make([]byte, capacity),
		wake: make(chan struct{}, 1),
	}, nil
}

// Push appends p in full, or drops it in full and returns ErrOverflow.
// A successful push signals the wake channel.
func (f *FIFO) Push(p []byte) error {
	if len(p) == 0 {
		return nil
	}

	f.mu.Lock()
	if len(p) > len(f.buf)-f.n {
		f.dropped += uint64(len(p))
		f.mu.Unlock()
		return fmt.Errorf("%w: %d bytes dropped", ErrOverflow, len(p))
	}

	tail := (f.head + f.n) % len(f.buf)
	copied := copy(f.buf[tail:], p)
	copy(f.buf, p[copied:])
	f.n += len(p)
	f.mu.Unlock()

	select {
	case f.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pop copies up to len(p) buffered bytes into p and returns the count.
func (f *FIFO) Pop(p []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	want := len(p)
	if want > f.n {
		want = f.n
	}
	copied := copy(p[:want], f.buf[f.head:])
	copy(p[copied:want], f.buf)

	f.head = (f.head + want) % len(f.buf)
	f.n -= want
	return want
}

// Cap reports the queue capacity in bytes.
func (f *FIFO) Cap() int {
	return len(f.buf)
}

// Len reports the number of buffered bytes.
func (f *FIFO) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

// Dropped reports the total bytes discarded by overflowing pushes.
func (f *FIFO) Dropped() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

// Wake exposes the data-arrival signal. The channel holds at most one
// pending signal; waiters must re-check Len after waking.
func (f *FIFO) Wake() <-chan struct{} {
	return f.wake
}
