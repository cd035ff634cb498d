package searcher

import (
	"math"

	"azul/game"
)

// node is one tree position. Children are expanded lazily in move-generation
// order; rewards is an N-way running sum indexed by player, so selection at a
// node maximizes the reward of the player who moves there.
type node struct {
	parent   *node
	move     game.Move // move that led here from parent
	player   int       // player to move at this node
	terminal bool
	moves    []game.Move
	children []*node
	rewards  []float64
	visits   int
}

func newNode(parent *node, move game.Move, gs *game.GameState) *node {
	n := &node{
		parent:  parent,
		move:    move,
		player:  gs.Current,
		rewards: make([]float64, len(gs.Players)),
	}
	if gs.IsGameOver() {
		n.terminal = true
		return n
	}
	n.moves = gs.GenerateMoves()
	n.children = make([]*node, 0, len(n.moves))
	return n
}

// selectOrExpand descends one step: expand the next untried move if any,
// otherwise follow the UCB1-best child under exploration weight c2 = c^2.
// The returned state is the child's state and added reports whether the
// child is freshly expanded.
//
// The tree is open-loop with respect to round-end refills: a descent past a
// refill re-derives the state against this simulation's random deal, so a
// stored edge move can be illegal in the current sample. Such divergence
// ends the descent here and the node is evaluated as a leaf.
func (n *node) selectOrExpand(gs *game.GameState, c2 float64) (*node, *game.GameState, bool) {
	if n.terminal || len(n.moves) == 0 {
		return n, gs, false
	}
	if len(n.children) < len(n.moves) {
		move := n.moves[len(n.children)]
		childState, err := tryAdvance(gs, move)
		if err != nil {
			return n, gs, false
		}
		child := newNode(n, move, childState)
		n.children = append(n.children, child)
		return child, childState, true
	}
	child := n.children[n.pickChild(c2)]
	childState, err := tryAdvance(gs, child.move)
	if err != nil {
		return n, gs, false
	}
	return child, childState, false
}

// tryAdvance plays move and, when that drains the round, settles scoring and
// the next refill.
func tryAdvance(gs *game.GameState, move game.Move) (*game.GameState, error) {
	next, err := gs.Apply(move)
	if err != nil {
		return nil, err
	}
	if next.IsRoundOver() {
		next, err = next.ApplyEndOfRound()
		if err != nil {
			return nil, err
		}
	}
	return next, nil
}

// advance is tryAdvance for callers that only ever play freshly generated
// legal moves.
func advance(gs *game.GameState, move game.Move) *game.GameState {
	next, err := tryAdvance(gs, move)
	if err != nil {
		panic(err)
	}
	return next
}

func (n *node) pickChild(c2 float64) int {
	normalizer := c2 * math.Log(float64(n.visits))
	best, bestScore := 0, math.Inf(-1)
	for i, child := range n.children {
		score := child.ucb1(n.player, normalizer)
		if score == math.Inf(1) {
			return i
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// ucb1 scores this child from the selecting parent's perspective.
func (n *node) ucb1(forPlayer int, normalizer float64) float64 {
	if n.visits == 0 {
		return math.Inf(1)
	}
	v := float64(n.visits)
	return n.rewards[forPlayer]/v + math.Sqrt(normalizer/v)
}

// backup adds a per-player reward vector along the path to the root.
func (n *node) backup(rewards []float64) {
	for cur := n; cur != nil; cur = cur.parent {
		for p, r := range rewards {
			cur.rewards[p] += r
		}
		cur.visits++
	}
}

// bestMove is the most-visited root child, the standard robust-child rule.
func (n *node) bestMove() (game.Move, bool) {
	if len(n.children) == 0 {
		return game.Move{}, false
	}
	best := 0
	for i, child := range n.children[1:] {
		if child.visits > n.children[best].visits {
			best = i + 1
		}
	}
	return n.children[best].move, true
}
