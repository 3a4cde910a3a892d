// Package engine defines the move-selection contract shared by the two
// competing searchers, plus a timing wrapper for instrumenting them.
package engine

import (
	"tictacd/game"
)

// Engine selects a move for the given side. Implementations must be pure
// with respect to shared state: they receive a board copy and return a cell
// index, or ok=false when the side has no legal move. Engines are expected
// to return quickly relative to the pipeline's tick interval.
type Engine interface {
	ChooseMove(b game.Board, mark byte) (cell int, ok bool)
}

// Func adapts a plain function to the Engine interface.
type Func func(b game.Board, mark byte) (int, bool)

func (f Func) ChooseMove(b game.Board, mark byte) (int, bool) {
	return f(b, mark)
}
