// Package negamax implements a deterministic alpha-beta searcher. It is
// the second of the two competing engines: where the Monte-Carlo searcher
// samples, this one exhausts the game tree and prefers faster wins.
package negamax

import (
	"tictacd/game"
)

// Score bounds. Wins are scored winScore minus the ply at which they
// occur, so a line that wins sooner outranks one that wins later.
const (
	infinity = 1 << 10
	winScore = 100
)

type ttEntry struct {
	score int
	move  int
}

// Engine caches fully-searched positions in a transposition table. The
// table is keyed by position and side to move, so hits are always exact.
// An Engine is not safe for concurrent use; the pipeline runs at most one
// move task per side at a time, which is the only access path.
type Engine struct {
	tt map[uint32]ttEntry
}

func New() *Engine {
	return &Engine{tt: make(map[uint32]ttEntry)}
}

// ChooseMove searches the full game tree from b for mark.
func (e *Engine) ChooseMove(b game.Board, mark byte) (int, bool) {
	if b.Winner() != game.NoWinner {
		return -1, false
	}
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return -1, false
	}

	_, move := e.search(b, mark, 0, -infinity, infinity)
	return move, true
}

// search returns the best achievable score from mark's perspective and the
// move realizing it (-1 at terminal positions).
func (e *Engine) search(b game.Board, mark byte, depth, alpha, beta int) (int, int) {
	switch winner := b.Winner(); winner {
	case game.NoWinner:
	case game.Draw:
		return 0, -1
	case mark:
		return winScore - depth, -1
	default:
		return -(winScore - depth), -1
	}

	key := positionKey(b, mark)
	if entry, ok := e.tt[key]; ok && depth == 0 {
		// Root hits reuse the stored move; deeper hits are score-only
		// because the stored score already accounts for remaining depth.
		return entry.score, entry.move
	}

	bestScore := -infinity
	bestMove := -1
	for _, move := range b.LegalMoves() {
		score, _ := e.search(b.With(move, mark), game.Opponent(mark), depth+1, -beta, -alpha)
		score = -score
		if score > bestScore {
			bestScore = score
			bestMove = move
		}
		if bestScore > alpha {
			alpha = bestScore
		}
		if alpha >= beta {
			break
		}
	}

	if depth == 0 {
		e.tt[key] = ttEntry{score: bestScore, move: bestMove}
	}
	return bestScore, bestMove
}

// positionKey packs the board and side to move into a base-3 integer plus
// a turn bit. 3^9 positions fit comfortably in 16 bits of headroom.
func positionKey(b game.Board, mark byte) uint32 {
	var key uint32
	for _, c := range b {
		key *= 3
		switch c {
		case game.MarkA:
			key++
		case game.MarkB:
			key += 2
		}
	}
	key <<= 1
	if mark == game.MarkB {
		key |= 1
	}
	return key
}
