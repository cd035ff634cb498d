package game

// TileColor identifies one of the five Azul tile colors.
type TileColor uint8

const (
	Blue TileColor = iota
	Yellow
	Red
	Black
	White
)

const (
	NumColors       = 5
	TilesPerColor   = 20
	TotalTiles      = NumColors * TilesPerColor
	WallSize        = 5
	FloorSlots      = 7
	FactoryCapacity = 4
	MaxPlayers      = 4
	MaxFactories    = 2*MaxPlayers + 1
)

var colorLetters = [NumColors]byte{'B', 'Y', 'R', 'K', 'W'}

func (c TileColor) Letter() byte {
	return colorLetters[c]
}

func colorFromLetter(b byte) (TileColor, bool) {
	for c, l := range colorLetters {
		if l == b {
			return TileColor(c), true
		}
	}
	return 0, false
}

// WallColumn returns the column that color c occupies in wall row r under the
// fixed Azul wall pattern.
func WallColumn(row int, c TileColor) int {
	return (row + int(c)) % WallSize
}

// WallColorAt inverts WallColumn: the color belonging to a wall cell.
func WallColorAt(row, col int) TileColor {
	return TileColor((col - row + WallSize) % WallSize)
}

// TileCounts is a multiset of tiles keyed by color.
type TileCounts [NumColors]uint8

func (t TileCounts) Total() int {
	sum := 0
	for _, n := range t {
		sum += int(n)
	}
	return sum
}

func (t TileCounts) IsEmpty() bool {
	return t == TileCounts{}
}

// FactoryCount returns the number of factory displays used for the given
// player count: 2N+1.
func FactoryCount(players int) int {
	return 2*players + 1
}
