package searcher

import (
	"math"
	"sync"

	"tictacd/game"
)

// Exploration constant for UCB1 (c squared).
const cSquared = 2.0

// Rewards from the perspective of the mark that made the incoming move.
const (
	win  = 1.0
	draw = 0.5
	loss = 0.0
)

// decision is a search-tree node. mover is the mark that made the move
// leading to this position; rewards accumulate from mover's perspective.
// Nodes are shared between search goroutines: a temporary loss is applied
// on the way down and reversed during backup, so concurrent episodes
// spread across the tree instead of piling onto one line.
type decision struct {
	mu       sync.RWMutex
	parent   *decision
	mover    byte
	moves    []int // unexplored tail starts at len(children)
	children []*decision
	rewards  float64
	visits   int
}

func (m *MCTS) newDecision(parent *decision, mover byte, b game.Board) *decision {
	var moves []int
	if b.Winner() == game.NoWinner {
		moves = b.LegalMoves()
	}
	m.nodes.Add(1)
	return &decision{
		parent:   parent,
		mover:    mover,
		moves:    moves,
		children: make([]*decision, 0, len(moves)),
	}
}

// selectOrExpand advances one level: it expands an unexplored move if any
// remain, otherwise selects the max-UCB1 child. The third result is false
// when the node is terminal or a new child was just added, ending descent.
func (d *decision) selectOrExpand(m *MCTS, b game.Board) (*decision, game.Board, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.moves) == 0 { // Terminal node
		return d, b, false
	}

	turn := game.Opponent(d.mover)
	if len(d.moves) > len(d.children) { // Expandable node
		move := d.moves[len(d.children)]
		childBoard := b.With(move, turn)
		child := m.newDecision(d, turn, childBoard)
		d.children = append(d.children, child)
		child.applyLoss()
		return child, childBoard, false
	}

	// Fully expanded node
	ith := d.pickChild()
	child := d.children[ith]
	child.applyLoss()
	return child, b.With(d.moves[ith], turn), true
}

func (d *decision) pickChild() int {
	if d.visits == 0 {
		panic("node has children but no visits")
	}

	normalizer := cSquared * math.Log(float64(d.visits))

	maxIndex := -1
	maxScore := math.Inf(-1)
	for i, child := range d.children {
		score := child.score(normalizer)
		if score == math.Inf(1) {
			return i
		}
		if score > maxScore {
			maxScore = score
			maxIndex = i
		}
	}
	return maxIndex
}

func (d *decision) applyLoss() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rewards += loss
	d.visits++
}

func (d *decision) reverseLoss() {
	d.rewards -= loss
	d.visits--
}

func (d *decision) score(normalizer float64) float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return ucb1(d.rewards, d.visits, normalizer)
}

// backup records the episode outcome and returns the parent, so callers
// can walk the path back to the root.
func (d *decision) backup(winner byte) *decision {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.parent != nil { // Non-root node
		d.reverseLoss()
	}

	d.rewards += reward(winner, d.mover)
	d.visits++

	return d.parent
}

func (d *decision) value() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.visits
}

// bestMove picks the most-visited child's move.
func (d *decision) bestMove() int {
	if len(d.children) == 0 {
		panic("node has no children")
	}

	bestIndex := 0
	maxValue := d.children[0].value()
	for i, child := range d.children[1:] {
		if v := child.value(); v > maxValue {
			maxValue = v
			bestIndex = i + 1
		}
	}
	return d.moves[bestIndex]
}

func ucb1(rewards float64, visits int, c2LnN float64) float64 {
	// Prioritize unexplored nodes
	if visits == 0 {
		return math.Inf(1)
	}

	return rewards/float64(visits) + math.Sqrt(c2LnN/float64(visits))
}

func reward(winner byte, mover byte) float64 {
	switch winner {
	case mover:
		return win
	case game.Draw:
		return draw
	default:
		return loss
	}
}
