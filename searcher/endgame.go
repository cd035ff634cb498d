package searcher

import (
	"hash/fnv"
	"math"
	"sort"

	"azul/game"
)

// DefaultEndgameTiles caps the exhaustive solver at positions small enough
// to enumerate in well under a second.
const DefaultEndgameTiles = 12

// ExactResult is a solved final-round outcome: the optimal move, the exact
// final margin over the strongest opponent, and the winner under optimal
// play from every seat.
type ExactResult struct {
	BestMove game.Move
	Margin   float64
	Winner   int
}

// EndgameSolver exhaustively solves positions whose remaining drafts are few
// enough, with no evaluation function anywhere: every line is played to the
// final wall-tiling and scored exactly.
type EndgameSolver struct {
	maxTiles int
	memo     map[uint64]float64
}

func NewEndgameSolver(maxTiles int) *EndgameSolver {
	if maxTiles <= 0 {
		maxTiles = DefaultEndgameTiles
	}
	return &EndgameSolver{maxTiles: maxTiles}
}

// Solve returns the exact result for gs, or false when the position is out
// of scope: too many tiles left to draft, the game already over, or the
// round settling without ending the game (the next refill is random, so no
// exact value exists).
func (e *EndgameSolver) Solve(gs *game.GameState) (ExactResult, bool) {
	if gs.IsGameOver() || e.remainingTiles(gs) > e.maxTiles {
		return ExactResult{}, false
	}
	e.memo = make(map[uint64]float64)
	root := gs.Current

	moves := gs.GenerateMoves()
	if len(moves) == 0 {
		return ExactResult{}, false
	}

	best := moves[0]
	bestScore := math.Inf(-1)
	for _, m := range moves {
		score, ok := e.value(e.settle(gs, m), root)
		if !ok {
			return ExactResult{}, false
		}
		if score > bestScore {
			best, bestScore = m, score
		}
	}

	final := e.replay(gs, best, root)
	return ExactResult{BestMove: best, Margin: bestScore, Winner: final}, true
}

// value is exhaustive minimax from the root player's perspective, memoized
// on a factory-order-independent key.
func (e *EndgameSolver) value(gs *game.GameState, root int) (float64, bool) {
	if gs == nil {
		return 0, false
	}
	if gs.IsGameOver() {
		return exactMargin(gs, root), true
	}
	key := canonicalKey(gs)
	if v, ok := e.memo[key]; ok {
		return v, true
	}

	maximizing := gs.Current == root
	best := math.Inf(-1)
	if !maximizing {
		best = math.Inf(1)
	}
	for _, m := range gs.GenerateMoves() {
		v, ok := e.value(e.settle(gs, m), root)
		if !ok {
			return 0, false
		}
		if maximizing && v > best || !maximizing && v < best {
			best = v
		}
	}
	e.memo[key] = best
	return best, true
}

// settle plays m and resolves the round when it drained the last tiles.
// Returns nil when the round settles into a refill instead of game end.
func (e *EndgameSolver) settle(gs *game.GameState, m game.Move) *game.GameState {
	next, err := gs.Apply(m)
	if err != nil {
		panic(err)
	}
	if !next.IsRoundOver() {
		return next
	}
	next, err = next.ApplyEndOfRound()
	if err != nil {
		panic(err)
	}
	if !next.IsGameOver() {
		return nil
	}
	return next
}

// replay follows the solved line from best to the end and reports the winner.
func (e *EndgameSolver) replay(gs *game.GameState, best game.Move, root int) int {
	cur := e.settle(gs, best)
	for cur != nil && !cur.IsGameOver() {
		moves := cur.GenerateMoves()
		maximizing := cur.Current == root
		pick, pickScore := moves[0], math.Inf(-1)
		if !maximizing {
			pickScore = math.Inf(1)
		}
		for _, m := range moves {
			v, ok := e.value(e.settle(cur, m), root)
			if !ok {
				return -1
			}
			if maximizing && v > pickScore || !maximizing && v < pickScore {
				pick, pickScore = m, v
			}
		}
		cur = e.settle(cur, pick)
	}
	if cur == nil {
		return -1
	}
	return cur.Winner()
}

func (e *EndgameSolver) remainingTiles(gs *game.GameState) int {
	n := gs.Center.Total()
	for _, f := range gs.Factories {
		n += f.Total()
	}
	return n
}

func exactMargin(gs *game.GameState, root int) float64 {
	own := gs.Players[root].Score
	best := math.MinInt32
	for p := range gs.Players {
		if p == root {
			continue
		}
		if gs.Players[p].Score > best {
			best = gs.Players[p].Score
		}
	}
	return float64(own - best)
}

// canonicalKey hashes the position with factories sorted, so states that
// differ only by which factory holds which pile share a memo entry.
func canonicalKey(gs *game.GameState) uint64 {
	h := fnv.New64a()
	buf := make([]byte, 0, 64)

	factories := make([]game.TileCounts, len(gs.Factories))
	copy(factories, gs.Factories)
	sort.Slice(factories, func(i, j int) bool {
		for c := 0; c < game.NumColors; c++ {
			if factories[i][c] != factories[j][c] {
				return factories[i][c] < factories[j][c]
			}
		}
		return false
	})
	for _, f := range factories {
		buf = append(buf, f[:]...)
	}
	buf = append(buf, gs.Center[:]...)
	buf = append(buf, boolByte(gs.CenterMarker), byte(gs.Current), byte(gs.NextStarter+1))
	for p := range gs.Players {
		b := &gs.Players[p]
		buf = append(buf, b.PatternCount[:]...)
		for _, c := range b.PatternColor {
			buf = append(buf, byte(c+1))
		}
		for r := 0; r < game.WallSize; r++ {
			var rowBits byte
			for c := 0; c < game.WallSize; c++ {
				if b.Wall[r][c] {
					rowBits |= 1 << c
				}
			}
			buf = append(buf, rowBits)
		}
		buf = append(buf, b.FloorLen, boolByte(b.HasMarker))
		buf = append(buf, byte(b.Score), byte(b.Score>>8))
	}
	h.Write(buf)
	return h.Sum64()
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
