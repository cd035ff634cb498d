package game

import "math"

// EvaluateHeuristic scores a position from player's perspective in
// score-point units: banked score difference against the strongest opponent,
// plus pattern-line completion potential, minus floor penalties already
// incurred, plus wall completion potential. Deterministic, allocation-free,
// cheap enough for every alpha-beta leaf.
func EvaluateHeuristic(gs *GameState, player int) float64 {
	own := boardValue(&gs.Players[player])
	best := math.Inf(-1)
	for p := range gs.Players {
		if p == player {
			continue
		}
		if v := boardValue(&gs.Players[p]); v > best {
			best = v
		}
	}
	return own - best
}

// EvaluateRelative maps EvaluateHeuristic into [-1, 1], the reward scale MCTS
// rollout cutoffs use.
func EvaluateRelative(gs *GameState, player int) float64 {
	diff := EvaluateHeuristic(gs, player)
	// 20 points of advantage saturate the signal.
	if diff > 20 {
		return 1
	}
	if diff < -20 {
		return -1
	}
	return diff / 20
}

func boardValue(b *Board) float64 {
	v := float64(b.Score)
	v += patternPotential(b)
	v += wallPotential(b)
	v += floorLiability(b)
	return v
}

// patternPotential rewards progress toward completing pattern lines, weighted
// by the adjacency score the finished line would bank.
func patternPotential(b *Board) float64 {
	v := 0.0
	for r := 0; r < WallSize; r++ {
		if b.PatternColor[r] < 0 {
			continue
		}
		capacity := float64(r + 1)
		progress := float64(b.PatternCount[r]) / capacity
		col := WallColumn(r, TileColor(b.PatternColor[r]))
		projected := float64(placementScore(b, r, col))
		if b.PatternCount[r] == uint8(r)+1 {
			// Completed line: the wall placement is guaranteed at round end.
			v += projected
		} else {
			v += progress * progress * projected
		}
	}
	return v
}

// wallPotential rewards near-complete rows, columns and color sets in
// proportion to their end-of-game bonuses.
func wallPotential(b *Board) float64 {
	var rows, cols [WallSize]int
	var sets [NumColors]int
	for r := 0; r < WallSize; r++ {
		for c := 0; c < WallSize; c++ {
			if b.Wall[r][c] {
				rows[r]++
				cols[c]++
				sets[WallColorAt(r, c)]++
			}
		}
	}
	v := 0.0
	for _, n := range rows {
		v += completion(n) * rowBonus
	}
	for _, n := range cols {
		v += completion(n) * colBonus
	}
	for _, n := range sets {
		v += completion(n) * setBonus
	}
	return v
}

// completion maps a 0..5 fill count to a convex share of the full bonus, so
// the last tiles of a row count far more than the first.
func completion(filled int) float64 {
	f := float64(filled) / WallSize
	return f * f * f
}

// floorLiability is the penalty the floor line will charge at round end.
func floorLiability(b *Board) float64 {
	pen := 0
	for i := 0; i < int(b.FloorLen) && i < FloorSlots; i++ {
		pen += floorPenalties[i]
	}
	return float64(pen)
}
