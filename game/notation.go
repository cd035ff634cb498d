package game

import (
	"fmt"
	"strconv"
	"strings"
)

// State notation is a FEN-like line of seven space-separated fields:
//
//	factories center players current round bag discard
//
//	factories  comma-joined displays, each "-" or tile letters (BYRKW)
//	center     "-" or tile letters, with "*" appended while the
//	           first-player marker is still in the pool
//	players    semicolon-joined boards, each pattern/wall/floor/score:
//	             pattern  dot-joined rows, "-" or a repeated letter ("RR")
//	             wall     dot-joined rows of five cells, letter or "-"
//	             floor    "-" or tile letters, "*" when the marker sits there
//	             score    decimal integer
//	current    index of the player to move
//	round      1-based round number
//	bag        comma-joined per-color counts
//	discard    comma-joined per-color counts
//
// Example (fresh 2-player deal, factories abbreviated):
//
//	BBYW,KRRW,BKWY,YYRK,BRWW -* -.-.-.-.-/...../-/0;... 0 1 3,2,1,4,0 0,0,0,0,0
//
// This is the only state representation that crosses the CLI/API boundary.

// EncodeState renders gs in the notation above.
func EncodeState(gs *GameState) string {
	var sb strings.Builder

	parts := make([]string, len(gs.Factories))
	for i, f := range gs.Factories {
		parts[i] = encodeCounts(f, false)
	}
	sb.WriteString(strings.Join(parts, ","))
	sb.WriteByte(' ')
	sb.WriteString(encodeCounts(gs.Center, gs.CenterMarker))
	sb.WriteByte(' ')

	boards := make([]string, len(gs.Players))
	for p := range gs.Players {
		boards[p] = encodeBoard(&gs.Players[p])
	}
	sb.WriteString(strings.Join(boards, ";"))

	fmt.Fprintf(&sb, " %d %d %s %s",
		gs.Current, gs.Round, encodePlainCounts(gs.Bag), encodePlainCounts(gs.Discard))
	return sb.String()
}

// DecodeState parses the notation and rebuilds a fully consistent state,
// failing with InvalidNotationError on malformed or tile-conserving-violating
// input.
func DecodeState(s string) (*GameState, error) {
	fields := strings.Fields(s)
	if len(fields) != 7 {
		return nil, &InvalidNotationError{Input: s, Reason: fmt.Sprintf("want 7 fields, got %d", len(fields))}
	}

	factoryParts := strings.Split(fields[0], ",")
	boardParts := strings.Split(fields[2], ";")
	players := len(boardParts)
	if players < 2 || players > MaxPlayers {
		return nil, &InvalidNotationError{Input: s, Reason: fmt.Sprintf("unsupported player count %d", players)}
	}
	if len(factoryParts) != FactoryCount(players) {
		return nil, &InvalidNotationError{Input: s,
			Reason: fmt.Sprintf("want %d factories for %d players, got %d", FactoryCount(players), players, len(factoryParts))}
	}

	gs := &GameState{
		Factories:   make([]TileCounts, len(factoryParts)),
		Players:     make([]Board, players),
		NextStarter: -1,
	}
	for i, part := range factoryParts {
		counts, marker, err := decodeCounts(part)
		if err != nil {
			return nil, &InvalidNotationError{Input: s, Reason: fmt.Sprintf("factory %d: %v", i, err)}
		}
		if marker {
			return nil, &InvalidNotationError{Input: s, Reason: fmt.Sprintf("factory %d: marker not allowed", i)}
		}
		if counts.Total() > FactoryCapacity {
			return nil, &InvalidNotationError{Input: s, Reason: fmt.Sprintf("factory %d overfull", i)}
		}
		gs.Factories[i] = counts
	}

	center, marker, err := decodeCounts(fields[1])
	if err != nil {
		return nil, &InvalidNotationError{Input: s, Reason: fmt.Sprintf("center: %v", err)}
	}
	gs.Center = center
	gs.CenterMarker = marker

	for p, part := range boardParts {
		board, hasMarker, err := decodeBoard(part)
		if err != nil {
			return nil, &InvalidNotationError{Input: s, Reason: fmt.Sprintf("player %d: %v", p, err)}
		}
		gs.Players[p] = board
		if hasMarker {
			if gs.NextStarter >= 0 {
				return nil, &InvalidNotationError{Input: s, Reason: "two players hold the marker"}
			}
			if gs.CenterMarker {
				return nil, &InvalidNotationError{Input: s, Reason: "marker both in center and on a floor line"}
			}
			gs.NextStarter = p
		}
	}

	gs.Current, err = strconv.Atoi(fields[3])
	if err != nil || gs.Current < 0 || gs.Current >= players {
		return nil, &InvalidNotationError{Input: s, Reason: "bad current-player index"}
	}
	gs.Round, err = strconv.Atoi(fields[4])
	if err != nil || gs.Round < 1 {
		return nil, &InvalidNotationError{Input: s, Reason: "bad round number"}
	}
	gs.Bag, err = decodePlainCounts(fields[5])
	if err != nil {
		return nil, &InvalidNotationError{Input: s, Reason: fmt.Sprintf("bag: %v", err)}
	}
	gs.Discard, err = decodePlainCounts(fields[6])
	if err != nil {
		return nil, &InvalidNotationError{Input: s, Reason: fmt.Sprintf("discard: %v", err)}
	}

	// Wall rows only complete during end-of-round tiling, so a completed row
	// in notation means a finished game.
	for p := range gs.Players {
		if completedRows(&gs.Players[p]) > 0 {
			gs.Over = true
			break
		}
	}

	if err := gs.VerifyConservation(); err != nil {
		return nil, &InvalidNotationError{Input: s, Reason: err.Error()}
	}
	gs.hash = uint64(gs.RecomputeHash())
	return gs, nil
}

func encodeCounts(t TileCounts, marker bool) string {
	var sb strings.Builder
	for c := TileColor(0); c < NumColors; c++ {
		for n := uint8(0); n < t[c]; n++ {
			sb.WriteByte(c.Letter())
		}
	}
	if marker {
		sb.WriteByte('*')
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

func decodeCounts(s string) (TileCounts, bool, error) {
	var t TileCounts
	if s == "-" {
		return t, false, nil
	}
	marker := false
	for i := 0; i < len(s); i++ {
		if s[i] == '*' {
			if marker {
				return t, false, fmt.Errorf("duplicate marker")
			}
			marker = true
			continue
		}
		c, ok := colorFromLetter(s[i])
		if !ok {
			return t, false, fmt.Errorf("bad tile letter %q", s[i])
		}
		t[c]++
	}
	return t, marker, nil
}

func encodePlainCounts(t TileCounts) string {
	parts := make([]string, NumColors)
	for c, n := range t {
		parts[c] = strconv.Itoa(int(n))
	}
	return strings.Join(parts, ",")
}

func decodePlainCounts(s string) (TileCounts, error) {
	var t TileCounts
	parts := strings.Split(s, ",")
	if len(parts) != NumColors {
		return t, fmt.Errorf("want %d counts, got %d", NumColors, len(parts))
	}
	for c, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > TilesPerColor {
			return t, fmt.Errorf("bad count %q", part)
		}
		t[c] = uint8(n)
	}
	return t, nil
}

func encodeBoard(b *Board) string {
	var sb strings.Builder
	for r := 0; r < WallSize; r++ {
		if r > 0 {
			sb.WriteByte('.')
		}
		if b.PatternCount[r] == 0 {
			sb.WriteByte('-')
			continue
		}
		letter := TileColor(b.PatternColor[r]).Letter()
		for n := uint8(0); n < b.PatternCount[r]; n++ {
			sb.WriteByte(letter)
		}
	}
	sb.WriteByte('/')
	for r := 0; r < WallSize; r++ {
		if r > 0 {
			sb.WriteByte('.')
		}
		for c := 0; c < WallSize; c++ {
			if b.Wall[r][c] {
				sb.WriteByte(WallColorAt(r, c).Letter())
			} else {
				sb.WriteByte('-')
			}
		}
	}
	sb.WriteByte('/')
	sb.WriteString(encodeCounts(b.Floor, b.HasMarker))
	fmt.Fprintf(&sb, "/%d", b.Score)
	return sb.String()
}

func decodeBoard(s string) (Board, bool, error) {
	var b Board
	parts := strings.Split(s, "/")
	if len(parts) != 4 {
		return b, false, fmt.Errorf("want pattern/wall/floor/score, got %d parts", len(parts))
	}

	rows := strings.Split(parts[0], ".")
	if len(rows) != WallSize {
		return b, false, fmt.Errorf("want %d pattern rows, got %d", WallSize, len(rows))
	}
	for r, row := range rows {
		b.PatternColor[r] = -1
		if row == "-" {
			continue
		}
		c, ok := colorFromLetter(row[0])
		if !ok {
			return b, false, fmt.Errorf("pattern row %d: bad letter %q", r, row[0])
		}
		for i := 1; i < len(row); i++ {
			if row[i] != row[0] {
				return b, false, fmt.Errorf("pattern row %d is not monochrome", r)
			}
		}
		if len(row) > r+1 {
			return b, false, fmt.Errorf("pattern row %d overfull", r)
		}
		b.PatternColor[r] = int8(c)
		b.PatternCount[r] = uint8(len(row))
	}

	rows = strings.Split(parts[1], ".")
	if len(rows) != WallSize {
		return b, false, fmt.Errorf("want %d wall rows, got %d", WallSize, len(rows))
	}
	for r, row := range rows {
		if len(row) != WallSize {
			return b, false, fmt.Errorf("wall row %d: want %d cells, got %d", r, WallSize, len(row))
		}
		for col := 0; col < WallSize; col++ {
			if row[col] == '-' {
				continue
			}
			c, ok := colorFromLetter(row[col])
			if !ok {
				return b, false, fmt.Errorf("wall row %d: bad letter %q", r, row[col])
			}
			if c != WallColorAt(r, col) {
				return b, false, fmt.Errorf("wall row %d col %d: color %c violates the wall pattern", r, col, row[col])
			}
			b.Wall[r][col] = true
		}
	}

	floor, marker, err := decodeCounts(parts[2])
	if err != nil {
		return b, false, fmt.Errorf("floor: %v", err)
	}
	b.Floor = floor
	b.HasMarker = marker
	b.FloorLen = uint8(floor.Total())
	// The marker occupies a slot only when the tiles left one free; a holder
	// whose floor was already full still appears with "*" so the next-round
	// starter survives the round trip.
	if marker && b.FloorLen < FloorSlots {
		b.FloorLen++
	}
	if b.FloorLen > FloorSlots {
		return b, false, fmt.Errorf("floor line overfull")
	}

	score, err := strconv.Atoi(parts[3])
	if err != nil || score < 0 {
		return b, false, fmt.Errorf("bad score %q", parts[3])
	}
	b.Score = score

	// Pattern lines must not stage a color whose wall cell is already tiled.
	for r := 0; r < WallSize; r++ {
		if b.PatternColor[r] >= 0 && b.Wall[r][WallColumn(r, TileColor(b.PatternColor[r]))] {
			return b, false, fmt.Errorf("pattern row %d stages a color already on the wall", r)
		}
	}
	return b, marker, nil
}

// Move notation is three characters: source ('0'-'8' for a factory, 'c' for
// the center), a tile letter, and the destination ('0'-'4' for a pattern
// line, 'f' for the floor). Example: "0B2" drafts blue from factory 0 into
// row 2; "cYf" dumps the center's yellows on the floor.

// EncodeMove renders m in move notation.
func EncodeMove(m Move) string {
	src := byte('c')
	if m.Source != CenterSource {
		src = byte('0' + m.Source)
	}
	dst := byte('f')
	if m.Row != FloorRow {
		dst = byte('0' + m.Row)
	}
	return string([]byte{src, m.Color.Letter(), dst})
}

// DecodeMove parses move notation against gs, computing the pattern-line and
// floor splits from the source's current contents.
func DecodeMove(gs *GameState, s string) (Move, error) {
	if len(s) != 3 {
		return Move{}, &InvalidNotationError{Input: s, Reason: "want exactly 3 characters"}
	}
	m := Move{Source: CenterSource, Row: FloorRow}
	switch {
	case s[0] == 'c':
	case s[0] >= '0' && s[0] <= '8':
		m.Source = int8(s[0] - '0')
	default:
		return Move{}, &InvalidNotationError{Input: s, Reason: "bad source"}
	}
	c, ok := colorFromLetter(s[1])
	if !ok {
		return Move{}, &InvalidNotationError{Input: s, Reason: "bad tile letter"}
	}
	m.Color = c
	switch {
	case s[2] == 'f':
	case s[2] >= '0' && s[2] < '0'+WallSize:
		m.Row = int8(s[2] - '0')
	default:
		return Move{}, &InvalidNotationError{Input: s, Reason: "bad destination"}
	}

	var avail uint8
	if m.Source == CenterSource {
		avail = gs.Center[m.Color]
	} else if int(m.Source) < len(gs.Factories) {
		avail = gs.Factories[m.Source][m.Color]
	}
	if m.Row == FloorRow {
		m.Overflow = avail
		return m, nil
	}
	b := &gs.Players[gs.Current]
	space := uint8(m.Row) + 1 - b.PatternCount[m.Row]
	m.Placed = avail
	if m.Placed > space {
		m.Placed = space
	}
	m.Overflow = avail - m.Placed
	return m, nil
}
