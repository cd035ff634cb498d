package searcher

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"azul/game"
)

const defaultMaxDepth = 6

// ABOption configures an AlphaBeta searcher.
type ABOption func(ab *AlphaBeta)

// AlphaBeta runs iterative-deepening fail-soft minimax with optional
// transposition-table support. Scores are always from the root player's
// perspective: the root player maximizes and every opponent minimizes, which
// stays sound when turn order is irregular across round boundaries.
type AlphaBeta struct {
	evaluate game.Evaluate
	table    *Table
	maxDepth int
	timeout  time.Duration
}

func WithEvaluator(evaluate game.Evaluate) ABOption {
	return func(ab *AlphaBeta) {
		if evaluate != nil {
			ab.evaluate = evaluate
		}
	}
}

func WithTable(table *Table) ABOption {
	return func(ab *AlphaBeta) {
		ab.table = table
	}
}

func WithMaxDepth(depth int) ABOption {
	return func(ab *AlphaBeta) {
		if depth > 0 {
			ab.maxDepth = depth
		}
	}
}

func WithTimeout(timeout time.Duration) ABOption {
	return func(ab *AlphaBeta) {
		if timeout > 0 {
			ab.timeout = timeout
		}
	}
}

func NewAlphaBeta(options ...ABOption) *AlphaBeta {
	ab := &AlphaBeta{
		evaluate: game.EvaluateHeuristic,
		maxDepth: defaultMaxDepth,
	}
	for _, option := range options {
		option(ab)
	}
	return ab
}

// Result reports a completed search. Score and PV come from the deepest
// fully completed iteration; an interrupted iteration is discarded whole.
type Result struct {
	BestMove     game.Move
	Score        float64
	PV           []game.Move
	Nodes        int64
	DepthReached int
	Elapsed      time.Duration
}

// Search analyzes gs for the player to move. Returns false when the game is
// already over. Running out of time is normal termination: the result
// reflects the last iteration that finished, and when not even depth 1
// finished, DepthReached is 0 and BestMove is the first legal move.
func (ab *AlphaBeta) Search(gs *game.GameState) (Result, bool) {
	if gs.IsGameOver() {
		return Result{}, false
	}
	moves := gs.GenerateMoves()
	if len(moves) == 0 {
		return Result{}, false
	}

	start := time.Now()
	s := &abSearch{
		root:     gs.Current,
		evaluate: ab.evaluate,
		table:    ab.table,
	}
	if ab.timeout > 0 {
		s.deadline = start.Add(ab.timeout)
	}

	result := Result{BestMove: moves[0]}
	for depth := 1; depth <= ab.maxDepth; depth++ {
		if s.table != nil {
			s.table.NextGeneration()
		}
		best, score, ok := s.searchRoot(gs, moves, depth)
		if !ok {
			break
		}
		result.BestMove = best
		result.Score = score
		result.DepthReached = depth
		result.PV = s.extractPV(gs, best, depth)
	}
	result.Nodes = s.nodes
	result.Elapsed = time.Since(start)
	log.Debug().
		Int("depth", result.DepthReached).
		Int64("nodes", result.Nodes).
		Dur("elapsed", result.Elapsed).
		Str("best", game.EncodeMove(result.BestMove)).
		Float64("score", result.Score).
		Msg("alpha-beta search complete")
	return result, true
}

type abSearch struct {
	root     int
	evaluate game.Evaluate
	table    *Table
	deadline time.Time
	nodes    int64
	stopped  bool
}

// Table scores are relative to the search root, so entries written by
// searches rooted at different players must never share a key.
var rootSalt = [game.MaxPlayers]uint64{
	0x9e3779b97f4a7c15,
	0xbf58476d1ce4e5b9,
	0x94d049bb133111eb,
	0xda942042e4dd58b5,
}

func (s *abSearch) key(gs *game.GameState) game.StateHash {
	return gs.Hash() ^ game.StateHash(rootSalt[s.root])
}

func (s *abSearch) searchRoot(gs *game.GameState, moves []game.Move, depth int) (game.Move, float64, bool) {
	moves = s.ordered(s.key(gs), moves)
	alpha, beta := math.Inf(-1), math.Inf(1)
	best, bestScore := moves[0], math.Inf(-1)
	for _, m := range moves {
		score := s.search(childState(gs, m), depth-1, alpha, beta)
		if s.stopped {
			return game.Move{}, 0, false
		}
		if score > bestScore {
			best, bestScore = m, score
		}
		if bestScore > alpha {
			alpha = bestScore
		}
	}
	if s.table != nil {
		s.table.Store(s.key(gs), depth, bestScore, FlagExact, best)
	}
	return best, bestScore, true
}

// search returns the root-perspective value of gs searched to depth plies.
func (s *abSearch) search(gs *game.GameState, depth int, alpha, beta float64) float64 {
	s.nodes++
	if s.nodes&1023 == 0 && !s.deadline.IsZero() && !time.Now().Before(s.deadline) {
		s.stopped = true
		return 0
	}

	if gs.IsGameOver() {
		return s.terminal(gs)
	}
	if depth <= 0 {
		return s.evaluate(gs, s.root)
	}

	key := s.key(gs)
	if s.table != nil {
		if e, ok := s.table.Probe(key, depth); ok {
			switch e.Flag {
			case FlagExact:
				return e.Score
			case FlagLower:
				if e.Score > alpha {
					alpha = e.Score
				}
			case FlagUpper:
				if e.Score < beta {
					beta = e.Score
				}
			}
			if alpha >= beta {
				return e.Score
			}
		}
	}

	moves := s.ordered(key, gs.GenerateMoves())
	maximizing := gs.Current == s.root

	origAlpha, origBeta := alpha, beta
	var best game.Move
	bestScore := math.Inf(-1)
	if !maximizing {
		bestScore = math.Inf(1)
	}
	for _, m := range moves {
		score := s.search(childState(gs, m), depth-1, alpha, beta)
		if s.stopped {
			return 0
		}
		if maximizing {
			if score > bestScore {
				best, bestScore = m, score
			}
			if bestScore > alpha {
				alpha = bestScore
			}
		} else {
			if score < bestScore {
				best, bestScore = m, score
			}
			if bestScore < beta {
				beta = bestScore
			}
		}
		if alpha >= beta {
			break
		}
	}

	if s.table != nil {
		flag := FlagExact
		if bestScore <= origAlpha {
			flag = FlagUpper
		} else if bestScore >= origBeta {
			flag = FlagLower
		}
		s.table.Store(key, depth, bestScore, flag, best)
	}
	return bestScore
}

// childState plays m and settles the round when it drained the last tiles.
// Searching past a refill values the position against one sampled deal; the
// alternative of stopping at the boundary loses the whole scoring phase.
func childState(gs *game.GameState, m game.Move) *game.GameState {
	return advance(gs, m)
}

// terminal is the exact final margin over the strongest opponent.
func (s *abSearch) terminal(gs *game.GameState) float64 {
	own := gs.Players[s.root].Score
	best := math.Inf(-1)
	for p := range gs.Players {
		if p == s.root {
			continue
		}
		if v := float64(gs.Players[p].Score); v > best {
			best = v
		}
	}
	return float64(own) - best
}

// ordered hoists the transposition-table move to the front. Everything else
// keeps generation order, which the table keys depend on staying stable.
func (s *abSearch) ordered(key game.StateHash, moves []game.Move) []game.Move {
	if s.table == nil {
		return moves
	}
	hint, ok := s.table.ProbeMove(key)
	if !ok {
		return moves
	}
	for i, m := range moves {
		if m == hint {
			if i > 0 {
				copy(moves[1:i+1], moves[:i])
				moves[0] = hint
			}
			break
		}
	}
	return moves
}

// extractPV walks stored best moves from the root, bounded by the search
// depth so a cycle of stale entries cannot loop.
func (s *abSearch) extractPV(gs *game.GameState, first game.Move, depth int) []game.Move {
	pv := []game.Move{first}
	if s.table == nil {
		return pv
	}
	cur := childState(gs, first)
	for len(pv) < depth && !cur.IsGameOver() {
		m, ok := s.table.ProbeMove(s.key(cur))
		if !ok {
			break
		}
		if v := game.Validate(cur, m, cur.Current); !v.IsLegal() {
			break
		}
		pv = append(pv, m)
		cur = childState(cur, m)
	}
	return pv
}
