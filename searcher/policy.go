package searcher

import (
	"azul/game"

	"golang.org/x/exp/rand"
)

// RandomPolicy picks rollout moves uniformly. The zero value is not usable;
// construct with NewRandomPolicy.
type RandomPolicy struct {
	rng *rand.Rand
}

func NewRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{rng: rand.New(rand.NewSource(seed))}
}

func (p *RandomPolicy) SelectMove(_ *game.GameState, legal []game.Move) game.Move {
	return legal[p.rng.Intn(len(legal))]
}

// HeuristicPolicy is a light rollout bias: it prefers moves that fill pattern
// lines without flooring tiles, falling back to a uniform pick among the
// least-bad moves. Much weaker than search but far stronger than uniform
// random, which sharpens rollout signal without slowing simulations much.
type HeuristicPolicy struct {
	rng *rand.Rand
}

func NewHeuristicPolicy(seed uint64) *HeuristicPolicy {
	return &HeuristicPolicy{rng: rand.New(rand.NewSource(seed))}
}

func (p *HeuristicPolicy) SelectMove(gs *game.GameState, legal []game.Move) game.Move {
	bestRank := -1 << 30
	count := 0
	var pick game.Move
	b := &gs.Players[gs.Current]
	for _, m := range legal {
		rank := rankMove(b, m)
		if rank > bestRank {
			bestRank = rank
			count = 0
		}
		if rank == bestRank {
			count++
			// Reservoir sample over the top-ranked moves.
			if p.rng.Intn(count) == 0 {
				pick = m
			}
		}
	}
	return pick
}

func rankMove(b *game.Board, m game.Move) int {
	if m.Row == game.FloorRow {
		return -10 * int(m.Overflow)
	}
	rank := int(m.Placed)*2 - int(m.Overflow)*3
	if b.PatternCount[m.Row]+m.Placed == uint8(m.Row)+1 {
		// Completing a line banks a wall tile this round.
		rank += 4
	}
	return rank
}
