package searcher

import "azul/game"

// Flag classifies a stored score relative to the alpha-beta window that
// produced it.
type Flag uint8

const (
	FlagExact Flag = iota
	FlagLower
	FlagUpper
)

// Entries unused for this many generations may be overwritten regardless of
// depth.
const veryOldGenerations = 8

// Entry is one transposition-table slot.
type Entry struct {
	Key   game.StateHash
	Depth int
	Score float64
	Flag  Flag
	Best  game.Move
	Gen   uint32
	Valid bool
}

// Table is a fixed-capacity transposition table with two-way buckets and
// depth-preferred, generation-aged replacement. It is not safe for concurrent
// use; each search invocation owns its table (or guards a shared one).
type Table struct {
	mask    uint64
	buckets int
	entries []Entry
	gen     uint32
}

// NewTable allocates a table with at least size slots, rounded up to a power
// of two.
func NewTable(size uint64) *Table {
	if size < 1 {
		size = 1
	}
	if size&(size-1) != 0 {
		size = nextPowerOfTwo(size)
	}
	const buckets = 2
	return &Table{
		mask:    size - 1,
		buckets: buckets,
		entries: make([]Entry, int(size)*buckets),
		gen:     1,
	}
}

// NextGeneration ages every stored entry by one search iteration.
func (t *Table) NextGeneration() {
	t.gen++
	if t.gen == 0 {
		t.gen = 1
	}
}

func (t *Table) Clear() {
	for i := range t.entries {
		t.entries[i] = Entry{}
	}
	t.gen = 1
}

func (t *Table) bucketIndex(key game.StateHash) int {
	return int(uint64(key)&t.mask) * t.buckets
}

// Probe returns a stored entry for key, but only when it was searched at
// least as deep as depth: reusing shallower entries would make deeper
// searches unsound.
func (t *Table) Probe(key game.StateHash, depth int) (Entry, bool) {
	start := t.bucketIndex(key)
	for i := 0; i < t.buckets; i++ {
		e := t.entries[start+i]
		if e.Valid && e.Key == key && e.Depth >= depth {
			t.entries[start+i].Gen = t.gen
			return e, true
		}
	}
	return Entry{}, false
}

// ProbeMove returns the stored best move for key at any depth. Shallow moves
// are unsound as scores but still excellent move-ordering hints.
func (t *Table) ProbeMove(key game.StateHash) (game.Move, bool) {
	start := t.bucketIndex(key)
	for i := 0; i < t.buckets; i++ {
		e := t.entries[start+i]
		if e.Valid && e.Key == key {
			return e.Best, true
		}
	}
	return game.Move{}, false
}

// Store writes an entry under the depth-preferred policy: a key hit is
// replaced only by an equal-or-deeper search (or when the entry has aged
// out); otherwise the shallowest-then-oldest victim in the bucket loses its
// slot. The table never grows.
func (t *Table) Store(key game.StateHash, depth int, score float64, flag Flag, best game.Move) {
	start := t.bucketIndex(key)

	for i := 0; i < t.buckets; i++ {
		idx := start + i
		e := t.entries[idx]
		if !e.Valid || e.Key != key {
			continue
		}
		if depth < e.Depth && t.gen-e.Gen < veryOldGenerations {
			return
		}
		t.entries[idx] = Entry{Key: key, Depth: depth, Score: score, Flag: flag, Best: best, Gen: t.gen, Valid: true}
		return
	}

	for i := 0; i < t.buckets; i++ {
		idx := start + i
		if !t.entries[idx].Valid {
			t.entries[idx] = Entry{Key: key, Depth: depth, Score: score, Flag: flag, Best: best, Gen: t.gen, Valid: true}
			return
		}
	}

	victim := start
	for i := 1; i < t.buckets; i++ {
		idx := start + i
		e, v := t.entries[idx], t.entries[victim]
		if e.Depth < v.Depth || (e.Depth == v.Depth && e.Gen < v.Gen) {
			victim = idx
		}
	}
	e := t.entries[victim]
	if depth >= e.Depth || t.gen-e.Gen >= veryOldGenerations {
		t.entries[victim] = Entry{Key: key, Depth: depth, Score: score, Flag: flag, Best: best, Gen: t.gen, Valid: true}
	}
}

// Count returns the number of live entries.
func (t *Table) Count() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].Valid {
			n++
		}
	}
	return n
}

func (t *Table) Capacity() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func nextPowerOfTwo(v uint64) uint64 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	v++
	return v
}
