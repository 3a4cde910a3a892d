package stream

import "errors"

var (
	// ErrWouldBlock is returned by a non-blocking read when no data is
	// buffered.
	ErrWouldBlock = errors.New("stream: no data available")

	// ErrInterrupted is returned when a blocking wait, or acquisition of
	// the consumer lock, is aborted by context cancellation.
	ErrInterrupted = errors.New("stream: interrupted")

	// ErrOverflow reports that a push did not fit in the FIFO. The payload
	// is dropped whole; it is never surfaced to consumers.
	ErrOverflow = errors.New("stream: fifo full")

	// ErrResourceExhausted reports an invalid buffer allocation at
	// construction time.
	ErrResourceExhausted = errors.New("stream: cannot allocate buffer")

	// ErrClosed is returned when operating on a closed session.
	ErrClosed = errors.New("stream: session closed")
)
