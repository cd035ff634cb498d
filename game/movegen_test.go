package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"golang.org/x/exp/rand"
)

func TestGenerateMoves(t *testing.T) {
	t.Run("deterministic and ordered", func(t *testing.T) {
		gs, err := NewGameState(2, 21)
		require.NoError(t, err)

		first := gs.GenerateMoves()
		second := gs.GenerateMoves()
		require.Equal(t, first, second, "generation must be deterministic")

		// Factories come before the center, and within a source the floor
		// dump follows the pattern-line placements of its color.
		seenCenter := false
		for _, m := range first {
			if m.Source == CenterSource {
				seenCenter = true
			} else {
				require.False(t, seenCenter, "factory moves precede center moves")
			}
		}
	})

	t.Run("floor dump exists for every available color", func(t *testing.T) {
		gs, err := NewGameState(2, 21)
		require.NoError(t, err)

		moves := gs.GenerateMoves()
		for i, f := range gs.Factories {
			for c := TileColor(0); c < NumColors; c++ {
				if f[c] == 0 {
					continue
				}
				found := false
				for _, m := range moves {
					if m.Source == int8(i) && m.Color == c && m.Row == FloorRow {
						found = true
						break
					}
				}
				require.True(t, found, "factory %d color %c should offer a floor dump", i, c.Letter())
			}
		}
	})

	t.Run("finished games generate nothing", func(t *testing.T) {
		gs := mustState(t, "-,-,-,-,- - -.-.-.-.-/BYRKW.-----.-----.-----.-----/-/30;"+
			"-.-.-.-.-/-----.-----.-----.-----.-----/-/10 0 6 19,19,19,19,19 0,0,0,0,0")
		require.True(t, gs.IsGameOver(), "completed wall row means game over")
		require.Nil(t, gs.GenerateMoves(), "no drafting after the game ends")
	})
}

// The generator and the validator must agree exactly: a candidate move is
// legal if and only if the generator emits it. Candidates are enumerated
// through move notation, which derives the placed/overflow split the same
// way the generator does.
func TestGeneratorValidatorAgreement(t *testing.T) {
	gs, err := NewGameState(2, 33)
	require.NoError(t, err)

	// Walk a few plies so pattern lines carry constraints too.
	rng := rand.New(rand.NewSource(33))
	for ply := 0; ply < 6; ply++ {
		moves := gs.GenerateMoves()
		gs, err = gs.Apply(moves[rng.Intn(len(moves))])
		require.NoError(t, err)
	}

	generated := make(map[Move]bool)
	for _, m := range gs.GenerateMoves() {
		generated[m] = true
	}

	sources := []byte{'0', '1', '2', '3', '4', 'c'}
	dests := []byte{'0', '1', '2', '3', '4', 'f'}
	for _, src := range sources {
		for _, letter := range []byte{'B', 'Y', 'R', 'K', 'W'} {
			for _, dst := range dests {
				notation := string([]byte{src, letter, dst})
				m, err := DecodeMove(gs, notation)
				require.NoError(t, err, "well-formed notation always parses")

				verdict := Validate(gs, m, gs.Current)
				require.Equal(t, generated[m], verdict.IsLegal(),
					"generator and validator disagree on %s: %s", notation, verdict.Reason)
			}
		}
	}
}

// Every legal line conserves tiles and keeps the incremental hash in sync;
// StrictInvariants makes any drift panic inside Apply itself.
func TestRandomPlayoutInvariants(t *testing.T) {
	StrictInvariants = true
	defer func() { StrictInvariants = false }()

	for _, seed := range []uint64{1, 2, 3} {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			gs, err := NewGameState(2, seed)
			require.NoError(t, err)
			rng := rand.New(rand.NewSource(seed))

			for !gs.IsGameOver() {
				moves := gs.GenerateMoves()
				require.NotEmpty(t, moves, "a live round always offers moves")
				gs, err = gs.Apply(moves[rng.Intn(len(moves))])
				require.NoError(t, err)

				if gs.IsRoundOver() {
					gs, err = gs.ApplyEndOfRound()
					require.NoError(t, err)
				}
				require.Equal(t, gs.RecomputeHash(), gs.Hash(), "incremental hash must track every mutation")
			}
			require.NoError(t, gs.VerifyConservation(), "a finished game still holds 100 tiles")
			require.GreaterOrEqual(t, gs.Winner(), 0, "a finished game has a winner")
		})
	}
}
