package game

// StateHash is the 64-bit Zobrist structural hash of a position.
type StateHash uint64

// Move source and destination sentinels.
const (
	CenterSource = -1 // take from the center pool instead of a factory
	FloorRow     = -1 // place nothing on a pattern line, everything floors
)

// Move describes one draft: take every tile of Color from Source and place
// Placed of them on pattern line Row, overflowing Overflow tiles to the floor
// line. Moves are small value types usable as map keys.
type Move struct {
	Source   int8 // factory index, or CenterSource
	Color    TileColor
	Row      int8 // pattern line row, or FloorRow
	Placed   uint8
	Overflow uint8
}

// Taken is the total number of tiles the move removes from its source.
func (m Move) Taken() int {
	return int(m.Placed) + int(m.Overflow)
}

// Evaluate scores a position from player's perspective. Implementations must
// be deterministic and side-effect free; they are called at every leaf of an
// alpha-beta search.
type Evaluate func(gs *GameState, player int) float64

// RolloutPolicy chooses rollout moves for MCTS. legal is never empty and the
// returned move must be one of its elements. Implementations must not retain
// or mutate the state.
type RolloutPolicy interface {
	SelectMove(gs *GameState, legal []Move) Move
}
