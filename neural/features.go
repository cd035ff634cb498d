package neural

import "azul/game"

// Feature layout, fixed across player counts: seats are rotated so the
// perspective player occupies slot 0 and missing seats stay zero.
const (
	boardFeatures = game.WallSize*game.WallSize + // wall cells
		game.WallSize*(1+game.NumColors) + // pattern rows: fill + color one-hot
		3 // floor fill, score, marker
	playerFeatures = boardFeatures * game.MaxPlayers
	poolFeatures   = game.MaxFactories*game.NumColors + // factory counts
		game.NumColors + 1 + // center counts + marker
		2*game.NumColors // bag and discard counts

	// InputSize is the flat feature vector length the model consumes.
	InputSize = playerFeatures + poolFeatures + 1 // + round

	// PolicySize covers every (source, color, destination) triple: nine
	// factories plus the center, five colors, five rows plus the floor.
	PolicySize = (game.MaxFactories + 1) * game.NumColors * (game.WallSize + 1)
)

// featurize flattens gs into the model input from player's perspective.
func featurize(gs *game.GameState, player int) []float32 {
	x := make([]float32, InputSize)
	players := len(gs.Players)

	offset := 0
	for seat := 0; seat < players; seat++ {
		b := &gs.Players[(player+seat)%players]
		at := offset + seat*boardFeatures
		for r := 0; r < game.WallSize; r++ {
			for c := 0; c < game.WallSize; c++ {
				if b.Wall[r][c] {
					x[at] = 1
				}
				at++
			}
		}
		for r := 0; r < game.WallSize; r++ {
			x[at] = float32(b.PatternCount[r]) / float32(r+1)
			at++
			if b.PatternColor[r] >= 0 {
				x[at+int(b.PatternColor[r])] = 1
			}
			at += game.NumColors
		}
		x[at] = float32(b.FloorLen) / game.FloorSlots
		x[at+1] = float32(b.Score) / 100
		if b.HasMarker {
			x[at+2] = 1
		}
	}

	at := playerFeatures
	for i, f := range gs.Factories {
		for c := 0; c < game.NumColors; c++ {
			x[at+i*game.NumColors+c] = float32(f[c]) / game.FactoryCapacity
		}
	}
	at += game.MaxFactories * game.NumColors
	for c := 0; c < game.NumColors; c++ {
		x[at+c] = float32(gs.Center[c]) / game.TilesPerColor
	}
	at += game.NumColors
	if gs.CenterMarker {
		x[at] = 1
	}
	at++
	for c := 0; c < game.NumColors; c++ {
		x[at+c] = float32(gs.Bag[c]) / game.TilesPerColor
		x[at+game.NumColors+c] = float32(gs.Discard[c]) / game.TilesPerColor
	}
	at += 2 * game.NumColors
	x[at] = float32(gs.Round) / 10
	return x
}

// MoveIndex maps a move onto the policy head. The mapping is total over the
// move space, including triples that are illegal in any given position.
func MoveIndex(m game.Move) int {
	src := game.MaxFactories // center slot
	if m.Source != game.CenterSource {
		src = int(m.Source)
	}
	dst := game.WallSize // floor slot
	if m.Row != game.FloorRow {
		dst = int(m.Row)
	}
	return (src*game.NumColors+int(m.Color))*(game.WallSize+1) + dst
}
