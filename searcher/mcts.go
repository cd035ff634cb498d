package searcher

import (
	"time"

	"github.com/rs/zerolog/log"

	"azul/game"
)

const (
	// defaultExploration is the UCB1 constant c = sqrt(2).
	defaultExploration = 1.41421356
	// defaultCutoff bounds rollout length before the evaluator takes over.
	defaultCutoff = 60
)

// MCTSOption configures an MCTS searcher.
type MCTSOption func(m *MCTS)

// MCTS is a single-threaded UCT searcher. Round-end refills draw random
// tiles, so repeated visits to one node sample different continuations; the
// tree statistics average over that chance rather than branching on it.
type MCTS struct {
	iterations  int
	duration    time.Duration
	exploration float64
	cutoff      int
	evaluate    game.Evaluate
	policy      game.RolloutPolicy
}

func WithIterations(iterations int) MCTSOption {
	return func(m *MCTS) {
		if iterations > 0 {
			m.iterations = iterations
		}
	}
}

func WithDuration(duration time.Duration) MCTSOption {
	return func(m *MCTS) {
		if duration > 0 {
			m.duration = duration
		}
	}
}

func WithExploration(c float64) MCTSOption {
	return func(m *MCTS) {
		if c > 0 {
			m.exploration = c
		}
	}
}

func WithCutoff(depth int) MCTSOption {
	return func(m *MCTS) {
		if depth > 0 {
			m.cutoff = depth
		}
	}
}

func WithEvaluationFn(evaluate game.Evaluate) MCTSOption {
	return func(m *MCTS) {
		if evaluate != nil {
			m.evaluate = evaluate
		}
	}
}

func WithRolloutPolicy(policy game.RolloutPolicy) MCTSOption {
	return func(m *MCTS) {
		if policy != nil {
			m.policy = policy
		}
	}
}

func NewMCTS(options ...MCTSOption) *MCTS {
	m := &MCTS{
		exploration: defaultExploration,
		cutoff:      defaultCutoff,
		evaluate:    game.EvaluateRelative,
		policy:      NewRandomPolicy(uint64(time.Now().UnixNano())),
	}
	for _, option := range options {
		option(m)
	}
	if m.iterations <= 0 && m.duration <= 0 {
		panic("must specify search iterations or duration")
	}
	return m
}

// MCTSResult reports the search outcome. BestMove is the most-visited root
// child; Expected is its mean reward for the root player in [-1, 1].
type MCTSResult struct {
	BestMove   game.Move
	Expected   float64
	Visits     map[game.Move]int
	Iterations int
	Elapsed    time.Duration
}

// Search runs simulations from gs until the iteration or time budget runs
// out, whichever was configured (iterations win when both are set). The
// budget is checked between simulations, so the last simulation always
// completes. Returns false when gs is already over.
func (m *MCTS) Search(gs *game.GameState) (MCTSResult, bool) {
	if gs.IsGameOver() {
		return MCTSResult{}, false
	}
	start := time.Now()
	root := newNode(nil, game.Move{}, gs)
	if len(root.moves) == 0 {
		// Drained round awaiting settlement: nothing to search.
		return MCTSResult{}, false
	}
	deadline := time.Time{}
	if m.iterations <= 0 {
		deadline = start.Add(m.duration)
	}

	done := 0
	for {
		if m.iterations > 0 {
			if done >= m.iterations {
				break
			}
		} else if !time.Now().Before(deadline) {
			break
		}
		m.simulate(root, gs)
		done++
	}

	best, ok := root.bestMove()
	if !ok {
		// Budget too small to expand anything: fall back to the first legal move.
		best = root.moves[0]
	}
	result := MCTSResult{
		BestMove:   best,
		Visits:     make(map[game.Move]int, len(root.children)),
		Iterations: done,
		Elapsed:    time.Since(start),
	}
	for _, child := range root.children {
		result.Visits[child.move] = child.visits
		if child.move == best && child.visits > 0 {
			result.Expected = child.rewards[gs.Current] / float64(child.visits)
		}
	}
	log.Debug().
		Int("iterations", done).
		Dur("elapsed", result.Elapsed).
		Str("best", game.EncodeMove(best)).
		Float64("expected", result.Expected).
		Msg("mcts search complete")
	return result, true
}

func (m *MCTS) simulate(root *node, gs *game.GameState) {
	leaf, leafState := m.descend(root, gs)
	rewards := m.rollout(leafState)
	leaf.backup(rewards)
}

func (m *MCTS) descend(root *node, gs *game.GameState) (*node, *game.GameState) {
	c2 := m.exploration * m.exploration
	parent, state := root, gs
	for {
		child, childState, added := parent.selectOrExpand(state, c2)
		if child == parent || added {
			return child, childState
		}
		parent, state = child, childState
	}
}

// rollout plays the policy to the end of the game or to the cutoff and
// returns the per-player reward vector.
func (m *MCTS) rollout(gs *game.GameState) []float64 {
	depth := 0
	for !gs.IsGameOver() && depth < m.cutoff {
		legal := gs.GenerateMoves()
		if len(legal) == 0 {
			break
		}
		gs = advance(gs, m.policy.SelectMove(gs, legal))
		depth++
	}

	rewards := make([]float64, len(gs.Players))
	if gs.IsGameOver() {
		winner := gs.Winner()
		for p := range rewards {
			if p == winner {
				rewards[p] = 1
			} else {
				rewards[p] = -1
			}
		}
		return rewards
	}
	for p := range rewards {
		rewards[p] = m.evaluate(gs, p)
	}
	return rewards
}
