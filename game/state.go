package game

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// StrictInvariants enables conservation and hash cross-checks after every
// state transition. A failed check panics: it means the engine itself is
// corrupt, never that the caller supplied bad input. Tests turn this on.
var StrictInvariants = false

var floorPenalties = [FloorSlots]int{-1, -1, -2, -2, -2, -3, -3}

// End-of-game bonuses.
const (
	rowBonus = 2
	colBonus = 7
	setBonus = 10
)

// Board is one player's tableau: five pattern lines, the 5x5 wall, the floor
// line, and the banked score.
type Board struct {
	PatternCount [WallSize]uint8
	PatternColor [WallSize]int8 // -1 when the line is empty
	Wall         [WallSize][WallSize]bool
	Floor        TileCounts // tiles sitting on the floor line
	FloorLen     uint8      // occupied floor slots, including the marker
	HasMarker    bool
	Score        int
}

// GameState is one complete Azul position. It is immutable to external
// holders: Apply, ApplyEndOfRound and Clone return derived copies, so search
// backtracks by discarding a derived state and reusing the parent.
type GameState struct {
	Factories    []TileCounts
	Center       TileCounts
	CenterMarker bool
	Bag          TileCounts
	Discard      TileCounts
	Players      []Board
	Current      int
	NextStarter  int // player who took the marker this round, -1 if untaken
	Round        int
	Over         bool

	hash uint64
	rng  *rand.Rand
}

// NewGameState deals the initial position for 2-4 players. The seed drives
// the bag draws, making whole games reproducible.
func NewGameState(players int, seed uint64) (*GameState, error) {
	if players < 2 || players > MaxPlayers {
		return nil, fmt.Errorf("unsupported player count %d", players)
	}
	gs := &GameState{
		Factories:   make([]TileCounts, FactoryCount(players)),
		Players:     make([]Board, players),
		NextStarter: -1,
		Round:       1,
		rng:         rand.New(rand.NewSource(seed)),
	}
	for c := range gs.Bag {
		gs.Bag[c] = TilesPerColor
	}
	for p := range gs.Players {
		for r := range gs.Players[p].PatternColor {
			gs.Players[p].PatternColor[r] = -1
		}
	}
	gs.CenterMarker = true
	gs.hash = uint64(gs.RecomputeHash())
	if err := gs.refill(); err != nil {
		return nil, err
	}
	return gs, nil
}

// Hash returns the incrementally maintained Zobrist hash.
func (gs *GameState) Hash() StateHash {
	return StateHash(gs.hash)
}

// Clone returns a copy whose mutation never affects the original. Cost is
// O(board size); the bag RNG is shared, which is fine because draws only
// happen inside ApplyEndOfRound on the derived state.
func (gs *GameState) Clone() *GameState {
	next := *gs
	next.Factories = make([]TileCounts, len(gs.Factories))
	copy(next.Factories, gs.Factories)
	next.Players = make([]Board, len(gs.Players))
	copy(next.Players, gs.Players)
	return &next
}

// Apply plays m for the current player and returns the resulting state. It
// fails with IllegalMoveError when the move violates the drafting rules; the
// receiver is never mutated.
func (gs *GameState) Apply(m Move) (*GameState, error) {
	if gs == nil {
		panic("apply on nil state")
	}
	if gs.Over {
		return nil, &IllegalMoveError{Move: m, Reason: "game is over"}
	}
	if reason := gs.moveViolation(m, gs.Current); reason != "" {
		return nil, &IllegalMoveError{Move: m, Reason: reason}
	}

	next := gs.Clone()
	p := next.Current

	if m.Source == CenterSource {
		next.setCenterCount(m.Color, 0)
		if next.CenterMarker {
			// First center take of the round: the taker holds the marker and
			// starts the next round. It occupies a floor slot only when one
			// is free; a full floor line costs no extra penalty.
			next.setCenterMarker(false)
			next.setNextStarter(p)
			b := &next.Players[p]
			b.HasMarker = true
			if b.FloorLen < FloorSlots {
				next.setFloorLen(p, b.FloorLen+1)
			}
		}
	} else {
		next.setFactoryCount(int(m.Source), m.Color, 0)
		for c := TileColor(0); c < NumColors; c++ {
			if n := next.Factories[m.Source][c]; n > 0 {
				next.setCenterCount(c, next.Center[c]+n)
				next.setFactoryCount(int(m.Source), c, 0)
			}
		}
	}

	if m.Row != FloorRow {
		b := &next.Players[p]
		next.setPatternLine(p, int(m.Row), int8(m.Color), b.PatternCount[m.Row]+m.Placed)
	}
	if m.Overflow > 0 {
		b := &next.Players[p]
		space := uint8(FloorSlots) - b.FloorLen
		onFloor := m.Overflow
		if onFloor > space {
			onFloor = space
		}
		if onFloor > 0 {
			b.Floor[m.Color] += onFloor
			next.setFloorLen(p, b.FloorLen+onFloor)
		}
		// Floor overflow skips the floor line entirely and goes to the discard.
		next.Discard[m.Color] += m.Overflow - onFloor
	}

	next.setCurrent((p + 1) % len(next.Players))

	if StrictInvariants {
		next.assertConsistent()
	}
	return next, nil
}

// moveViolation returns a non-empty reason when m is not playable by player.
// Shared by Apply and Validate so generator, validator and executor can never
// disagree.
func (gs *GameState) moveViolation(m Move, player int) string {
	var avail uint8
	switch {
	case m.Source == CenterSource:
		avail = gs.Center[m.Color]
	case int(m.Source) >= 0 && int(m.Source) < len(gs.Factories):
		avail = gs.Factories[m.Source][m.Color]
	default:
		return fmt.Sprintf("no such factory %d", m.Source)
	}
	if avail == 0 {
		return "source holds no tiles of that color"
	}
	if m.Taken() != int(avail) {
		return fmt.Sprintf("move takes %d tiles but source holds %d", m.Taken(), avail)
	}
	if m.Row == FloorRow {
		if m.Placed != 0 {
			return "floor move must not place pattern-line tiles"
		}
		return ""
	}
	if m.Row < 0 || int(m.Row) >= WallSize {
		return fmt.Sprintf("no such pattern line %d", m.Row)
	}
	b := &gs.Players[player]
	row := int(m.Row)
	if b.PatternColor[row] >= 0 && TileColor(b.PatternColor[row]) != m.Color {
		return "pattern line holds a different color"
	}
	if b.PatternCount[row] >= uint8(row)+1 {
		return "pattern line is full"
	}
	if b.Wall[row][WallColumn(row, m.Color)] {
		return "wall already holds that color in this row"
	}
	space := uint8(row) + 1 - b.PatternCount[row]
	want := avail
	if want > space {
		want = space
	}
	if m.Placed != want {
		return fmt.Sprintf("move places %d tiles but the line accepts %d", m.Placed, want)
	}
	return ""
}

// IsRoundOver reports whether every factory and the center pool are drained.
func (gs *GameState) IsRoundOver() bool {
	if !gs.Center.IsEmpty() {
		return false
	}
	for _, f := range gs.Factories {
		if !f.IsEmpty() {
			return false
		}
	}
	return true
}

func (gs *GameState) IsGameOver() bool {
	return gs.Over
}

// ApplyEndOfRound performs wall-tiling, floor penalties, and either final
// bonus scoring (when a wall row completed) or the next round's factory
// refill. The receiver is never mutated.
func (gs *GameState) ApplyEndOfRound() (*GameState, error) {
	if gs.Over {
		return nil, fmt.Errorf("game is already over")
	}
	if !gs.IsRoundOver() {
		return nil, fmt.Errorf("round is not over: tiles remain to draft")
	}

	next := gs.Clone()
	for p := range next.Players {
		next.scoreBoard(p)
	}

	ended := false
	for p := range next.Players {
		if completedRows(&next.Players[p]) > 0 {
			ended = true
			break
		}
	}
	if ended {
		for p := range next.Players {
			b := &next.Players[p]
			b.Score += completedRows(b)*rowBonus + completedCols(b)*colBonus + completedSets(b)*setBonus
		}
		next.Over = true
		if StrictInvariants {
			next.assertConsistent()
		}
		return next, nil
	}

	starter := next.NextStarter
	if starter < 0 {
		starter = next.Current
	}
	next.setCurrent(starter)
	next.setNextStarter(-1)
	next.setCenterMarker(true)
	next.Round++
	if err := next.refill(); err != nil {
		return nil, err
	}
	if StrictInvariants {
		next.assertConsistent()
	}
	return next, nil
}

// scoreBoard moves completed pattern lines onto the wall, scores adjacency,
// applies floor penalties, and clears the floor line.
func (gs *GameState) scoreBoard(p int) {
	b := &gs.Players[p]
	gain := 0
	for r := 0; r < WallSize; r++ {
		if b.PatternCount[r] != uint8(r)+1 {
			continue
		}
		c := TileColor(b.PatternColor[r])
		col := WallColumn(r, c)
		gs.setWallCell(p, r, col)
		gain += placementScore(b, r, col)
		// One tile tiles the wall, the rest of the line goes to the discard.
		gs.Discard[c] += uint8(r)
		gs.setPatternLine(p, r, -1, 0)
	}

	penalty := 0
	for i := 0; i < int(b.FloorLen) && i < FloorSlots; i++ {
		penalty += floorPenalties[i]
	}
	for c := range b.Floor {
		gs.Discard[c] += b.Floor[c]
		b.Floor[c] = 0
	}
	b.HasMarker = false
	gs.setFloorLen(p, 0)

	b.Score += gain + penalty
	if b.Score < 0 {
		// Scores never rest below zero.
		b.Score = 0
	}
}

// placementScore is the adjacency score of the tile just placed at (row, col):
// the lengths of the contiguous horizontal and vertical runs through it, or 1
// when isolated.
func placementScore(b *Board, row, col int) int {
	horiz := 1
	for c := col - 1; c >= 0 && b.Wall[row][c]; c-- {
		horiz++
	}
	for c := col + 1; c < WallSize && b.Wall[row][c]; c++ {
		horiz++
	}
	vert := 1
	for r := row - 1; r >= 0 && b.Wall[r][col]; r-- {
		vert++
	}
	for r := row + 1; r < WallSize && b.Wall[r][col]; r++ {
		vert++
	}
	score := 0
	if horiz > 1 {
		score += horiz
	}
	if vert > 1 {
		score += vert
	}
	if score == 0 {
		score = 1
	}
	return score
}

func completedRows(b *Board) int {
	n := 0
	for r := 0; r < WallSize; r++ {
		full := true
		for c := 0; c < WallSize; c++ {
			if !b.Wall[r][c] {
				full = false
				break
			}
		}
		if full {
			n++
		}
	}
	return n
}

func completedCols(b *Board) int {
	n := 0
	for c := 0; c < WallSize; c++ {
		full := true
		for r := 0; r < WallSize; r++ {
			if !b.Wall[r][c] {
				full = false
				break
			}
		}
		if full {
			n++
		}
	}
	return n
}

func completedSets(b *Board) int {
	var byColor [NumColors]int
	for r := 0; r < WallSize; r++ {
		for c := 0; c < WallSize; c++ {
			if b.Wall[r][c] {
				byColor[WallColorAt(r, c)]++
			}
		}
	}
	n := 0
	for _, placed := range byColor {
		if placed == WallSize {
			n++
		}
	}
	return n
}

// refill deals up to four tiles onto every factory, reshuffling the discard
// into the bag when the bag runs dry. A factory is left partial only when the
// whole supply is exhausted, matching the reference ruleset.
func (gs *GameState) refill() error {
	if gs.Bag.IsEmpty() && gs.Discard.IsEmpty() {
		return &TileSupplyExhaustedError{}
	}
	rng := gs.ensureRNG()
	for i := range gs.Factories {
		for n := 0; n < FactoryCapacity; n++ {
			if gs.Bag.IsEmpty() {
				if gs.Discard.IsEmpty() {
					return nil
				}
				gs.Bag, gs.Discard = gs.Discard, TileCounts{}
			}
			c := drawTile(&gs.Bag, rng)
			gs.setFactoryCount(i, c, gs.Factories[i][c]+1)
		}
	}
	return nil
}

// drawTile removes one uniformly random tile from the multiset.
func drawTile(bag *TileCounts, rng *rand.Rand) TileColor {
	k := rng.Intn(bag.Total())
	for c := range bag {
		k -= int(bag[c])
		if k < 0 {
			bag[c]--
			return TileColor(c)
		}
	}
	panic("draw from empty bag")
}

func (gs *GameState) ensureRNG() *rand.Rand {
	if gs.rng == nil {
		gs.rng = rand.New(rand.NewSource(uint64(gs.hash)))
	}
	return gs.rng
}

// Seed replaces the bag RNG, for reproducible refills on decoded states.
func (gs *GameState) Seed(seed uint64) {
	gs.rng = rand.New(rand.NewSource(seed))
}

// Winner returns the index of the winning player, breaking score ties by
// completed wall rows, then by lower seat. Returns -1 while the game is live.
func (gs *GameState) Winner() int {
	if !gs.Over {
		return -1
	}
	best := 0
	for p := 1; p < len(gs.Players); p++ {
		a, b := &gs.Players[p], &gs.Players[best]
		if a.Score > b.Score || (a.Score == b.Score && completedRows(a) > completedRows(b)) {
			best = p
		}
	}
	return best
}

// VerifyConservation checks that every color sums to its fixed supply across
// bag, discard, factories, center, pattern lines, floor lines and walls.
func (gs *GameState) VerifyConservation() error {
	for c := TileColor(0); c < NumColors; c++ {
		total := int(gs.Bag[c]) + int(gs.Discard[c]) + int(gs.Center[c])
		for _, f := range gs.Factories {
			total += int(f[c])
		}
		for p := range gs.Players {
			b := &gs.Players[p]
			total += int(b.Floor[c])
			for r := 0; r < WallSize; r++ {
				if b.PatternColor[r] == int8(c) {
					total += int(b.PatternCount[r])
				}
				if b.Wall[r][WallColumn(r, c)] {
					total++
				}
			}
		}
		if total != TilesPerColor {
			return fmt.Errorf("conservation violated: color %c sums to %d, want %d",
				c.Letter(), total, TilesPerColor)
		}
	}
	return nil
}

func (gs *GameState) assertConsistent() {
	if err := gs.VerifyConservation(); err != nil {
		panic(err)
	}
	if got := gs.RecomputeHash(); got != StateHash(gs.hash) {
		panic(fmt.Sprintf("hash drift: incremental %x, recomputed %x", gs.hash, got))
	}
}
