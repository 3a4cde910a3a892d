package pipeline

import (
	"sync"
	"sync/atomic"

	"tictacd/engine"
	"tictacd/game"
)

// The turn indicator and move-pending flag are packed into one atomic word
// so neither can ever be observed torn against the other. The move-task
// writer publishes its board mutation first and only then stores the
// packed word, both while holding the state lock; the dispatcher consumes
// the packed word before trusting any board read.
const (
	phasePending = uint32(1 << 0)
	phaseTurnB   = uint32(1 << 1) // clear = side A to move
)

func packPhase(turn byte, pending bool) uint32 {
	var v uint32
	if turn == game.MarkB {
		v |= phaseTurnB
	}
	if pending {
		v |= phasePending
	}
	return v
}

// State is the shared game state mutated by competing move tasks. The
// board is guarded by an exclusive lock; a read-only copy is republished
// through an atomic pointer after every mutation so the tick context can
// evaluate terminal state without blocking, at most one move stale.
type State struct {
	mu       sync.Mutex
	board    game.Board
	phase    atomic.Uint32
	snapshot atomic.Pointer[game.Board]
}

func NewState() *State {
	s := &State{}
	s.reset()
	return s
}

func (s *State) reset() {
	s.mu.Lock()
	s.board = game.NewBoard()
	s.publish()
	s.phase.Store(packPhase(game.MarkA, true))
	s.mu.Unlock()
}

// Reset empties the board and hands the first move back to side A.
func (s *State) Reset() {
	s.reset()
}

// publish republishes the read-only board copy. Callers hold s.mu.
func (s *State) publish() {
	b := s.board
	s.snapshot.Store(&b)
}

// Published returns the last atomically published board. It never blocks
// and is safe from the tick context.
func (s *State) Published() game.Board {
	return *s.snapshot.Load()
}

// Board returns the live board under the state lock.
func (s *State) Board() game.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

// TakePending claims the pending move, if any, returning the side it
// belongs to. The claim is a CAS that clears only the pending bit, so two
// dispatch contexts can never schedule the same ply twice. Non-blocking.
func (s *State) TakePending() (byte, bool) {
	for {
		v := s.phase.Load()
		if v&phasePending == 0 {
			return 0, false
		}
		if s.phase.CompareAndSwap(v, v&^phasePending) {
			if v&phaseTurnB != 0 {
				return game.MarkB, true
			}
			return game.MarkA, true
		}
	}
}

// Advance runs one ply for mark: the engine chooses under the state lock,
// a returned cell is applied, and the turn flips to the other side with
// the pending flag set. The turn flips even when the engine reports no
// legal move, so a stalled side can never wedge the cadence; the terminal
// check picks the draw up on the next tick. Both the board publish and the
// phase store happen under the lock, so a concurrent reset can never land
// between them and have its phase word overwritten by a straggler.
func (s *State) Advance(e engine.Engine, mark byte) {
	s.mu.Lock()
	cell, ok := e.ChooseMove(s.board, mark)
	if ok {
		s.board[cell] = mark
		s.publish()
	}
	s.phase.Store(packPhase(game.Opponent(mark), true))
	s.mu.Unlock()
}
