// Package pipeline implements the interrupt-simulation core: a periodic
// tick standing in for a hardware interrupt, a non-blocking dispatcher
// standing in for its bottom half, and a pool of deferred tasks that
// advance a shared tic-tac-toe game and export board snapshots.
package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	catrate "github.com/joeycumines/go-catrate"
	"github.com/rs/zerolog/log"

	"tictacd/attr"
	"tictacd/engine"
	"tictacd/game"
	"tictacd/stream"
)

// overflowWarnRates bounds how often dropped snapshots are reported.
var overflowWarnRates = map[time.Duration]int{
	5 * time.Second: 5,
	time.Minute:     20,
}

// Option configures optional pipeline behavior.
type Option func(*Pipeline)

// WithLoadSampler adds an extra contribution (for example an engine's live
// search-tree size) to the load sample taken each tick.
func WithLoadSampler(sample func() int64) Option {
	return func(p *Pipeline) {
		if sample != nil {
			p.sampler = sample
		}
	}
}

// Pipeline owns every shared component: the game state, its two engines,
// the tick generator, the deferred work queue, and the export path into
// the FIFO. All cross-component mutable state lives here; nothing is
// package-global.
type Pipeline struct {
	state   *State
	sideA   engine.Engine
	sideB   engine.Engine
	attrs   *attr.Attributes
	fifo    *stream.FIFO
	wq      *WorkQueue
	ticker  *Ticker
	load    loadAvg
	sampler func() int64
	warn    *catrate.Limiter

	// Producer side of the export queue: the staging buffer the render
	// task draws into, serialized by its own lock so concurrent renders
	// can never interleave snapshot bytes.
	drawMu sync.Mutex
	draw   [game.SnapshotSize]byte

	// The terminal position, captured by the tick before any restart can
	// wipe it. The finish task exports this copy, never the live board.
	final atomic.Pointer[game.Board]

	moveA      *Work
	moveB      *Work
	loadWork   *Work
	renderWork *Work
	finishWork *Work
}

// New builds a pipeline ticking every delay, with workers deferred-task
// goroutines. sideA plays 'O' and moves first; sideB plays 'X'.
func New(delay time.Duration, workers int, sideA, sideB engine.Engine, attrs *attr.Attributes, fifo *stream.FIFO, options ...Option) *Pipeline {
	if sideA == nil || sideB == nil {
		panic("pipeline: nil engine")
	}
	if attrs == nil || fifo == nil {
		panic("pipeline: nil attributes or fifo")
	}
	if fifo.Cap() < game.SnapshotSize {
		panic("pipeline: fifo cannot hold a snapshot")
	}

	p := &Pipeline{
		state:   NewState(),
		sideA:   sideA,
		sideB:   sideB,
		attrs:   attrs,
		fifo:    fifo,
		sampler: func() int64 { return 0 },
		warn:    catrate.NewLimiter(overflowWarnRates),
	}

	p.moveA = NewWork("move-a", func() { p.state.Advance(p.sideA, game.MarkA) })
	p.moveB = NewWork("move-b", func() { p.state.Advance(p.sideB, game.MarkB) })
	p.loadWork = NewWork("loadavg", p.loadTask)
	p.renderWork = NewWork("render", p.renderTask)
	p.finishWork = NewWork("game-over", p.finishTask)

	// Five declared work kinds; the queue never has to hold more.
	p.wq = NewWorkQueue(workers, 5)
	p.ticker = NewTicker(delay, p.tick)

	for _, option := range options {
		option(p)
	}
	return p
}

// Start arms the tick generator, clearing the load averages first. Unless
// the resume control is set, it also starts a fresh game. Called by the
// device on the first open.
func (p *Pipeline) Start() {
	p.load.reset()
	if !p.attrs.Resume() {
		p.state.Reset()
	}
	if p.ticker.Arm() {
		log.Info().Msg("pipeline started")
	}
}

// Stop disarms the tick generator, waiting for any in-flight tick, drains
// the deferred task pool to completion, and clears the producer staging
// buffer. Called by the device on the last close; when it returns no task
// will touch the FIFO.
func (p *Pipeline) Stop() {
	p.ticker.Disarm()
	p.wq.Flush()

	p.drawMu.Lock()
	p.draw = [game.SnapshotSize]byte{}
	p.drawMu.Unlock()

	log.Info().Msg("pipeline stopped")
}

// Shutdown permanently releases the worker pool. The pipeline must not be
// started again afterwards.
func (p *Pipeline) Shutdown() {
	p.Stop()
	p.wq.Shutdown()
}

// Armed reports whether the tick generator is running.
func (p *Pipeline) Armed() bool {
	return p.ticker.Armed()
}

// tick is the hard-interrupt body. It must not block unboundedly: it reads
// the atomically published board and hands all real work to the dispatcher
// or directly to the work queue. The terminal path additionally resets the
// game state, where the lock is only ever held for copy-scale sections
// (no engine runs once the published board is terminal). The return value
// re-arms the timer.
func (p *Pipeline) tick() bool {
	board := p.state.Published()
	winner := board.Winner()
	if winner == game.NoWinner {
		p.dispatch()
		return true
	}

	// Terminal: capture the final position for export before the restart
	// below can wipe it. The finish task renders the captured copy
	// (display permitting, checked at export time).
	p.final.Store(&board)
	p.wq.Queue(p.finishWork)

	if winner == game.Draw {
		log.Info().Msg("game drawn")
	} else {
		log.Info().Str("winner", string(winner)).Msg("game over")
	}

	if p.attrs.End() {
		return false
	}
	p.state.Reset()
	return true
}

// dispatch is the bottom half: invoked once per tick, in the tick context,
// under the same non-blocking constraint. It claims the pending move (if
// any) for deferred execution and always schedules the bookkeeping tasks.
// It executes no game logic itself.
func (p *Pipeline) dispatch() {
	if mark, ok := p.state.TakePending(); ok {
		if mark == game.MarkA {
			p.wq.Queue(p.moveA)
		} else {
			p.wq.Queue(p.moveB)
		}
	}
	p.wq.Queue(p.loadWork)
	p.wq.Queue(p.renderWork)
}

// loadTask samples the number of active deferred tasks plus any configured
// extra contribution, and folds it into the moving averages.
func (p *Pipeline) loadTask() {
	sample := uint64(p.wq.Active())
	if extra := p.sampler(); extra > 0 {
		sample += uint64(extra)
	}
	p.load.update(sample)
	log.Debug().Str("loadavg", p.load.String()).Msg("load average")
}

// renderTask draws the current board and pushes the snapshot into the
// export queue. The display check happens at export time, not in the
// dispatcher, so the dispatcher stays branch-minimal. The board is copied
// under the game-state lock (never half-applied).
func (p *Pipeline) renderTask() {
	p.export(p.state.Board())
}

// finishTask exports the terminal position captured by the tick, so a
// restart racing the export can never swap the final snapshot for a fresh
// board.
func (p *Pipeline) finishTask() {
	if b := p.final.Load(); b != nil {
		p.export(*b)
	}
}

// export pushes one snapshot of board into the FIFO. Drawing and push are
// serialized by the producer lock, and overflow drops the snapshot whole
// with a rate-limited warning.
func (p *Pipeline) export(board game.Board) {
	if !p.attrs.Display() {
		return
	}

	p.drawMu.Lock()
	game.RenderInto(board, &p.draw)
	err := p.fifo.Push(p.draw[:])
	p.drawMu.Unlock()

	if err != nil {
		if _, allowed := p.warn.Allow("overflow"); allowed {
			log.Warn().Err(err).Msg("snapshot dropped")
		}
	}
}
