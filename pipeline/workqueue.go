package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Work is a declared deferred task. Each kind is queued at most once at a
// time: the pending bit dedupes enqueues, and is cleared just before the
// body runs, so a task may be re-queued while its previous run is still
// executing.
type Work struct {
	name    string
	fn      func()
	pending atomic.Bool
}

// NewWork declares a work item.
func NewWork(name string, fn func()) *Work {
	if fn == nil {
		panic("pipeline: nil work function")
	}
	return &Work{name: name, fn: fn}
}

// WorkQueue executes declared work items on a pool of blocking-capable
// workers. Queue never blocks: the intake channel is sized to the number
// of distinct work kinds, and the per-item dedup guarantees a free slot.
type WorkQueue struct {
	ch    chan *Work
	group errgroup.Group

	mu       sync.Mutex
	cond     *sync.Cond
	inflight int // queued + running
	closed   bool
}

// NewWorkQueue starts workers goroutines draining up to capacity distinct
// work kinds.
func NewWorkQueue(workers, capacity int) *WorkQueue {
	if workers <= 0 || capacity <= 0 {
		panic("pipeline: workers and capacity must be positive")
	}
	q := &WorkQueue{ch: make(chan *Work, capacity)}
	q.cond = sync.NewCond(&q.mu)
	for i := 0; i < workers; i++ {
		q.group.Go(q.run)
	}
	return q
}

func (q *WorkQueue) run() error {
	for w := range q.ch {
		w.pending.Store(false) // cleared before running: re-queue while running is allowed
		w.fn()

		q.mu.Lock()
		q.inflight--
		if q.inflight == 0 {
			q.cond.Broadcast()
		}
		q.mu.Unlock()
	}
	return nil
}

// Queue enqueues w unless an instance of it is already queued. It never
// blocks and reports whether the item was accepted.
func (q *WorkQueue) Queue(w *Work) bool {
	if !w.pending.CompareAndSwap(false, true) {
		return false
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		w.pending.Store(false)
		log.Warn().Str("work", w.name).Msg("work queued after shutdown, dropped")
		return false
	}

	select {
	case q.ch <- w:
		q.inflight++
		q.mu.Unlock()
		return true
	default:
		// Unreachable when capacity covers the declared work kinds; kept
		// so a sizing mistake degrades to a dropped enqueue, not a stall.
		q.mu.Unlock()
		w.pending.Store(false)
		log.Warn().Str("work", w.name).Msg("work queue full, dropped")
		return false
	}
}

// Active reports the number of queued plus running items. The load-average
// task samples it as the pipeline's load metric.
func (q *WorkQueue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inflight
}

// Flush blocks until every queued and running item has completed.
func (q *WorkQueue) Flush() {
	q.mu.Lock()
	for q.inflight > 0 {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

// Shutdown drains the queue and joins the workers. The queue accepts no
// work afterwards.
func (q *WorkQueue) Shutdown() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	_ = q.group.Wait()
}
