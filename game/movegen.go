package game

// GenerateMoves enumerates every legal draft for the current player in a
// deterministic order: factories by ascending index then the center pool,
// colors ascending, pattern-line rows ascending, with the floor-dump variant
// last per (source, color). Search and transposition results depend on this
// order being stable.
func (gs *GameState) GenerateMoves() []Move {
	if gs.Over {
		return nil
	}
	moves := make([]Move, 0, 32)
	for i := range gs.Factories {
		moves = gs.appendSourceMoves(moves, int8(i), &gs.Factories[i])
	}
	moves = gs.appendSourceMoves(moves, CenterSource, &gs.Center)
	return moves
}

func (gs *GameState) appendSourceMoves(moves []Move, source int8, pool *TileCounts) []Move {
	b := &gs.Players[gs.Current]
	for c := TileColor(0); c < NumColors; c++ {
		avail := pool[c]
		if avail == 0 {
			continue
		}
		for row := 0; row < WallSize; row++ {
			if !rowAccepts(b, row, c) {
				continue
			}
			space := uint8(row) + 1 - b.PatternCount[row]
			placed := avail
			if placed > space {
				placed = space
			}
			moves = append(moves, Move{
				Source:   source,
				Color:    c,
				Row:      int8(row),
				Placed:   placed,
				Overflow: avail - placed,
			})
		}
		// Dumping the whole take on the floor line is always an option.
		moves = append(moves, Move{
			Source:   source,
			Color:    c,
			Row:      FloorRow,
			Overflow: avail,
		})
	}
	return moves
}

// rowAccepts reports whether pattern line row can take tiles of color c: the
// line is empty or monochrome in c, not full, and the matching wall cell is
// still open.
func rowAccepts(b *Board, row int, c TileColor) bool {
	if b.PatternColor[row] >= 0 && TileColor(b.PatternColor[row]) != c {
		return false
	}
	if b.PatternCount[row] >= uint8(row)+1 {
		return false
	}
	return !b.Wall[row][WallColumn(row, c)]
}
