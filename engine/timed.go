package engine

import (
	"time"

	catrate "github.com/joeycumines/go-catrate"
	"github.com/rs/zerolog/log"

	"tictacd/game"
)

// slowWarnRates bounds how often a slow engine is reported, so a
// consistently slow searcher cannot flood the log from the worker pool.
var slowWarnRates = map[time.Duration]int{
	5 * time.Second: 5,
	time.Minute:     20,
}

// Timed wraps an Engine with per-move timing. Every move is logged at debug
// level; moves exceeding budget produce a rate-limited warning.
type Timed struct {
	inner   Engine
	name    string
	budget  time.Duration
	limiter *catrate.Limiter
}

// NewTimed wraps inner. budget is the duration beyond which a move is
// considered slow; zero disables the slow warning.
func NewTimed(inner Engine, name string, budget time.Duration) *Timed {
	if inner == nil {
		panic("engine: nil inner engine")
	}
	return &Timed{
		inner:   inner,
		name:    name,
		budget:  budget,
		limiter: catrate.NewLimiter(slowWarnRates),
	}
}

func (t *Timed) ChooseMove(b game.Board, mark byte) (int, bool) {
	start := time.Now()
	cell, ok := t.inner.ChooseMove(b, mark)
	elapsed := time.Since(start)

	log.Debug().
		Str("engine", t.name).
		Dur("elapsed", elapsed).
		Int("cell", cell).
		Bool("moved", ok).
		Msg("move computed")

	if t.budget > 0 && elapsed > t.budget {
		if _, allowed := t.limiter.Allow(t.name); allowed {
			log.Warn().
				Str("engine", t.name).
				Dur("elapsed", elapsed).
				Dur("budget", t.budget).
				Msg("engine exceeded its move budget")
		}
	}
	return cell, ok
}
