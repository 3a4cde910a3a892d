package searcher

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"tictacd/game"
)

func TestSelectOrExpand(t *testing.T) {
	t.Run("terminal node returns itself", func(t *testing.T) {
		b := game.NewBoard()
		b[0], b[1], b[2] = game.MarkA, game.MarkA, game.MarkA

		m := NewMCTS(WithEpisodes(1))
		node := m.newDecision(nil, game.MarkA, b)

		child, state, selected := node.selectOrExpand(m, b)
		require.Same(t, node, child, "terminal node should not descend")
		require.Equal(t, b, state)
		require.False(t, selected)
	})

	t.Run("expandable node adds a child with a loss applied", func(t *testing.T) {
		b := game.NewBoard()
		m := NewMCTS(WithEpisodes(1))
		node := m.newDecision(nil, game.MarkB, b) // MarkA to move

		child, state, selected := node.selectOrExpand(m, b)
		require.False(t, selected, "expansion ends the descent")
		require.Len(t, node.children, 1)
		require.Same(t, node.children[0], child)
		require.Equal(t, game.MarkA, child.mover)
		require.Equal(t, 1, child.visits, "new child should carry a temporary loss visit")
		require.Equal(t, game.MarkA, state[0], "child state should contain the expanded move")
	})

	t.Run("fully expanded node selects max UCB1 child", func(t *testing.T) {
		b := game.NewBoard()
		b[0], b[1] = game.MarkA, game.MarkA
		b[3], b[4] = game.MarkB, game.MarkB
		b[5], b[6], b[7], b[8] = game.MarkA, game.MarkB, game.MarkA, game.MarkB
		// Cell 2 is the only move left.

		m := NewMCTS(WithEpisodes(1))
		node := m.newDecision(nil, game.MarkB, b)

		_, _, _ = node.selectOrExpand(m, b) // expand the single move
		node.visits = 2                     // pretend the node was visited
		child, state, selected := node.selectOrExpand(m, b)

		require.True(t, selected, "second descent should select, not expand")
		require.Same(t, node.children[0], child)
		require.Equal(t, game.MarkA, state[2])
	})
}

func TestBackupReversesVirtualLoss(t *testing.T) {
	b := game.NewBoard()
	m := NewMCTS(WithEpisodes(1))
	root := m.newDecision(nil, game.MarkB, b)

	child, _, _ := root.selectOrExpand(m, b)
	require.Equal(t, 1, child.visits)

	parent := child.backup(game.MarkA)
	require.Same(t, root, parent)
	require.Equal(t, 1, child.visits, "loss visit should be reversed, then the real visit recorded")
	require.Equal(t, win, child.rewards, "child mover won the episode")

	require.Nil(t, root.backup(game.MarkA), "root backup should end the walk")
	require.Equal(t, 1, root.visits)
}

func TestRewards(t *testing.T) {
	require.Equal(t, win, reward(game.MarkA, game.MarkA))
	require.Equal(t, loss, reward(game.MarkB, game.MarkA))
	require.Equal(t, draw, reward(game.Draw, game.MarkA))
}

func TestUCB1(t *testing.T) {
	require.True(t, math.IsInf(ucb1(0, 0, 1), 1), "unexplored nodes should rank first")
	require.InDelta(t, 1.5, ucb1(1, 1, 0.25), 1e-9)
}

func TestRolloutReachesTerminalState(t *testing.T) {
	for i := 0; i < 50; i++ {
		winner := rollout(game.NewBoard(), game.MarkA)
		require.Contains(t, []byte{game.MarkA, game.MarkB, game.Draw}, winner)
	}
}

func TestConcurrentSimulationsSharedTree(t *testing.T) {
	b := game.NewBoard()
	m := NewMCTS(WithEpisodes(1))
	root := m.newDecision(nil, game.MarkB, b)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				m.simulate(root, b)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 16*200, root.visits, "every episode should reach the root exactly once")
	require.Len(t, root.children, game.Grids)
}
