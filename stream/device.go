package stream

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Controller is the pipeline lifecycle hook driven by the device's open
// reference count: Start on the 0->1 transition, Stop on the last close.
// Stop is synchronous; when it returns, no task may touch the FIFO.
type Controller interface {
	Start()
	Stop()
}

// Device is the consumer endpoint of the export queue. Opens are
// reference-counted rather than multiplexed: every session reads the same
// stream, and the pipeline runs while at least one session is open.
type Device struct {
	fifo    *FIFO
	ctrl    Controller
	readers *semaphore.Weighted

	// lifecycle serializes the refcount transition with the controller
	// hook it triggers. Without it a last close racing a first open could
	// run Stop after the new session's Start, leaving a live session with
	// a quiesced pipeline.
	lifecycle sync.Mutex
	opens     atomic.Int32
}

func NewDevice(fifo *FIFO, ctrl Controller) *Device {
	if fifo == nil || ctrl == nil {
		panic("stream: nil fifo or controller")
	}
	return &Device{
		fifo:    fifo,
		ctrl:    ctrl,
		readers: semaphore.NewWeighted(1),
	}
}

// Open registers a consumer session, starting the pipeline on the first
// open.
func (d *Device) Open() *Session {
	d.lifecycle.Lock()
	n := d.opens.Add(1)
	if n == 1 {
		d.ctrl.Start()
	}
	d.lifecycle.Unlock()

	if n == 1 {
		log.Debug().Int32("open_count", n).Msg("device opened, pipeline started")
	} else {
		log.Debug().Int32("open_count", n).Msg("device opened")
	}
	return &Session{dev: d}
}

// OpenCount reports the number of live sessions.
func (d *Device) OpenCount() int32 {
	return d.opens.Load()
}

// Session is one consumer's handle on the device.
type Session struct {
	dev    *Device
	closed atomic.Bool
}

// Read copies buffered bytes into buf. If the queue is empty it fails with
// ErrWouldBlock when nonblock is set, otherwise it waits for data or for
// ctx to be cancelled. At most one reader runs at a time; acquisition of
// the reader slot is itself interruptible via ctx.
func (s *Session) Read(ctx context.Context, buf []byte, nonblock bool) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	if len(buf) == 0 {
		return 0, nil
	}

	if err := s.dev.readers.Acquire(ctx, 1); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInterrupted, err)
	}
	defer s.dev.readers.Release(1)

	for {
		if n := s.dev.fifo.Pop(buf); n > 0 {
			return n, nil
		}
		if nonblock {
			return 0, ErrWouldBlock
		}
		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("%w: %v", ErrInterrupted, ctx.Err())
		case <-s.dev.fifo.Wake():
		}
	}
}

// Close releases the session. The last close stops the pipeline
// synchronously: any in-flight tick is allowed to finish, the deferred
// task pool drains, and nothing new starts afterwards.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	s.dev.lifecycle.Lock()
	n := s.dev.opens.Add(-1)
	if n == 0 {
		s.dev.ctrl.Stop()
	}
	s.dev.lifecycle.Unlock()

	if n == 0 {
		log.Debug().Int32("open_count", n).Msg("device closed, pipeline stopped")
	} else {
		log.Debug().Int32("open_count", n).Msg("device closed")
	}
	return nil
}
