package game

import "sync"

// Zobrist keys for every hashable state feature. Counts are part of the
// feature (a factory holding two blues hashes differently from one holding
// three), so every mutation XORs out the old (color, count) key and XORs in
// the new one.
type zobristKeys struct {
	factory      [MaxFactories][NumColors][FactoryCapacity + 1]uint64
	center       [NumColors][TilesPerColor + 1]uint64
	centerMarker uint64
	wall         [MaxPlayers][WallSize][WallSize]uint64
	pattern      [MaxPlayers][WallSize][NumColors][WallSize + 1]uint64
	floorLen     [MaxPlayers][FloorSlots + 1]uint64
	current      [MaxPlayers]uint64
	holder       [MaxPlayers]uint64
}

var (
	zobristOnce sync.Once
	zobrist     *zobristKeys
)

// getZobrist builds the key tables once per process from a fixed seed, so
// hashes are stable across runs and processes.
func getZobrist() *zobristKeys {
	zobristOnce.Do(func() {
		rng := splitmix64{state: 0x9e3779b97f4a7c15}
		z := &zobristKeys{}
		for f := 0; f < MaxFactories; f++ {
			for c := 0; c < NumColors; c++ {
				for n := 1; n <= FactoryCapacity; n++ {
					z.factory[f][c][n] = rng.next()
				}
			}
		}
		for c := 0; c < NumColors; c++ {
			for n := 1; n <= TilesPerColor; n++ {
				z.center[c][n] = rng.next()
			}
		}
		z.centerMarker = rng.next()
		for p := 0; p < MaxPlayers; p++ {
			for r := 0; r < WallSize; r++ {
				for col := 0; col < WallSize; col++ {
					z.wall[p][r][col] = rng.next()
				}
				for c := 0; c < NumColors; c++ {
					for n := 1; n <= WallSize; n++ {
						z.pattern[p][r][c][n] = rng.next()
					}
				}
			}
			for n := 1; n <= FloorSlots; n++ {
				z.floorLen[p][n] = rng.next()
			}
			z.current[p] = rng.next()
			z.holder[p] = rng.next()
		}
		zobrist = z
	})
	return zobrist
}

// RecomputeHash rebuilds the structural hash from scratch. Construction and
// debug cross-checks only; all state transitions maintain the hash
// incrementally.
func (gs *GameState) RecomputeHash() StateHash {
	z := getZobrist()
	var h uint64
	for i, f := range gs.Factories {
		for c, n := range f {
			if n > 0 {
				h ^= z.factory[i][c][n]
			}
		}
	}
	for c, n := range gs.Center {
		if n > 0 {
			h ^= z.center[c][n]
		}
	}
	if gs.CenterMarker {
		h ^= z.centerMarker
	}
	for p := range gs.Players {
		b := &gs.Players[p]
		for r := 0; r < WallSize; r++ {
			for col := 0; col < WallSize; col++ {
				if b.Wall[r][col] {
					h ^= z.wall[p][r][col]
				}
			}
			if b.PatternColor[r] >= 0 && b.PatternCount[r] > 0 {
				h ^= z.pattern[p][r][b.PatternColor[r]][b.PatternCount[r]]
			}
		}
		if b.FloorLen > 0 {
			h ^= z.floorLen[p][b.FloorLen]
		}
	}
	h ^= z.current[gs.Current]
	if gs.NextStarter >= 0 {
		h ^= z.holder[gs.NextStarter]
	}
	return StateHash(h)
}

// Incremental feature setters. Every mutation of a hashed field goes through
// one of these so the running hash never drifts from the content.

func (gs *GameState) setFactoryCount(i int, c TileColor, n uint8) {
	z := getZobrist()
	if old := gs.Factories[i][c]; old > 0 {
		gs.hash ^= z.factory[i][c][old]
	}
	if n > 0 {
		gs.hash ^= z.factory[i][c][n]
	}
	gs.Factories[i][c] = n
}

func (gs *GameState) setCenterCount(c TileColor, n uint8) {
	z := getZobrist()
	if old := gs.Center[c]; old > 0 {
		gs.hash ^= z.center[c][old]
	}
	if n > 0 {
		gs.hash ^= z.center[c][n]
	}
	gs.Center[c] = n
}

func (gs *GameState) setCenterMarker(present bool) {
	if gs.CenterMarker == present {
		return
	}
	gs.hash ^= getZobrist().centerMarker
	gs.CenterMarker = present
}

func (gs *GameState) setPatternLine(p, row int, color int8, count uint8) {
	z := getZobrist()
	b := &gs.Players[p]
	if b.PatternColor[row] >= 0 && b.PatternCount[row] > 0 {
		gs.hash ^= z.pattern[p][row][b.PatternColor[row]][b.PatternCount[row]]
	}
	if color >= 0 && count > 0 {
		gs.hash ^= z.pattern[p][row][color][count]
	}
	b.PatternColor[row] = color
	b.PatternCount[row] = count
}

func (gs *GameState) setWallCell(p, row, col int) {
	b := &gs.Players[p]
	if b.Wall[row][col] {
		return
	}
	gs.hash ^= getZobrist().wall[p][row][col]
	b.Wall[row][col] = true
}

func (gs *GameState) setFloorLen(p int, n uint8) {
	z := getZobrist()
	b := &gs.Players[p]
	if b.FloorLen > 0 {
		gs.hash ^= z.floorLen[p][b.FloorLen]
	}
	if n > 0 {
		gs.hash ^= z.floorLen[p][n]
	}
	b.FloorLen = n
}

func (gs *GameState) setCurrent(p int) {
	z := getZobrist()
	gs.hash ^= z.current[gs.Current]
	gs.hash ^= z.current[p]
	gs.Current = p
}

func (gs *GameState) setNextStarter(p int) {
	z := getZobrist()
	if gs.NextStarter >= 0 {
		gs.hash ^= z.holder[gs.NextStarter]
	}
	if p >= 0 {
		gs.hash ^= z.holder[p]
	}
	gs.NextStarter = p
}

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
