// Package searcher implements a Monte-Carlo tree searcher with UCB1
// selection and random rollouts. It is one of the two competing engines
// driven by the pipeline's deferred move tasks.
package searcher

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/rand"

	"tictacd/game"
)

const defaultEpisodes = 2000

type Option func(*MCTS)

// WithGoroutines sets the number of goroutines sharing the search tree.
func WithGoroutines(goroutines int) Option {
	return func(m *MCTS) {
		if goroutines > 0 {
			m.goroutines = goroutines
		}
	}
}

// WithEpisodes bounds the search by episode count.
func WithEpisodes(episodes int) Option {
	return func(m *MCTS) {
		if episodes > 0 {
			m.episodes = episodes
			m.duration = 0
		}
	}
}

// WithDuration bounds the search by wall-clock time instead of episodes.
func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration > 0 {
			m.duration = duration
			m.episodes = 0
		}
	}
}

// MCTS searches by repeated simulation: descend the tree by UCB1, expand
// one node, roll out randomly to a terminal position, then back the result
// up the path. The move with the most visits at the root wins.
type MCTS struct {
	goroutines int
	episodes   int
	duration   time.Duration
	nodes      atomic.Int64
}

func NewMCTS(options ...Option) *MCTS {
	m := &MCTS{ // Default values
		goroutines: 1,
		episodes:   defaultEpisodes,
	}
	for _, option := range options {
		option(m)
	}
	if m.episodes <= 0 && m.duration <= 0 {
		panic("must specify search episodes or duration")
	}
	return m
}

// ActiveNodes reports the size of the most recently built search tree. The
// pipeline's load-average task samples it as a proxy load metric.
func (m *MCTS) ActiveNodes() int64 {
	return m.nodes.Load()
}

// ChooseMove runs a fresh search from b for mark.
func (m *MCTS) ChooseMove(b game.Board, mark byte) (int, bool) {
	if b.Winner() != game.NoWinner || len(b.LegalMoves()) == 0 {
		return -1, false
	}

	m.nodes.Store(0)
	root := m.newDecision(nil, game.Opponent(mark), b)

	if m.episodes > 0 {
		m.iterate(root, b)
	} else {
		m.countdown(root, b)
	}

	return root.bestMove(), true
}

func (m *MCTS) iterate(root *decision, b game.Board) {
	task := make(chan struct{}, m.episodes)
	for i := 0; i < m.episodes; i++ {
		task <- struct{}{}
	}
	close(task)

	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for range task {
				m.simulate(root, b)
			}
		}()
	}

	wg.Wait()
}

func (m *MCTS) countdown(root *decision, b game.Board) {
	// One guaranteed episode: a budget shorter than a scheduler quantum
	// must still leave the root with a visited child to pick from.
	m.simulate(root, b)

	done := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for {
				select {
				case <-done:
					return
				default:
					m.simulate(root, b)
				}
			}
		}()
	}

	<-time.After(m.duration)
	close(done)
	wg.Wait()
}

func (m *MCTS) simulate(root *decision, b game.Board) {
	node, state := selectThenExpand(m, root, b)
	winner := rollout(state, game.Opponent(node.mover))
	for n := node; n != nil; {
		n = n.backup(winner)
	}
}

func selectThenExpand(m *MCTS, root *decision, b game.Board) (*decision, game.Board) {
	parent := root
	child, state, selected := parent.selectOrExpand(m, b)
	for selected && child != parent {
		parent = child
		child, state, selected = parent.selectOrExpand(m, state)
	}
	return child, state
}

// rollout plays uniformly random moves until the game ends and returns the
// terminal result.
func rollout(b game.Board, turn byte) byte {
	winner := b.Winner()
	for winner == game.NoWinner {
		moves := b.LegalMoves()
		b = b.With(moves[rand.Intn(len(moves))], turn)
		turn = game.Opponent(turn)
		winner = b.Winner()
	}
	return winner
}
