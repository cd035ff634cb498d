package neural

import (
	"testing"

	"github.com/stretchr/testify/require"

	"azul/game"
)

func TestFeaturize(t *testing.T) {
	t.Run("fills the declared input size", func(t *testing.T) {
		gs, err := game.NewGameState(2, 3)
		require.NoError(t, err)
		x := featurize(gs, 0)
		require.Len(t, x, InputSize, "the model input shape is fixed")
	})

	t.Run("values stay normalized", func(t *testing.T) {
		gs, err := game.NewGameState(4, 3)
		require.NoError(t, err)
		for _, v := range featurize(gs, 2) {
			require.GreaterOrEqual(t, v, float32(0), "features are non-negative")
			require.LessOrEqual(t, v, float32(1), "features stay within [0, 1]")
		}
	})

	t.Run("perspective rotation moves the seat", func(t *testing.T) {
		gs, err := game.NewGameState(2, 3)
		require.NoError(t, err)
		next, err := gs.Apply(gs.GenerateMoves()[0])
		require.NoError(t, err)

		// Player 0 just placed tiles; from their own perspective the first
		// board slot differs from player 1's perspective of slot 0.
		require.NotEqual(t, featurize(next, 0)[:boardFeatures], featurize(next, 1)[:boardFeatures],
			"slot 0 always holds the perspective player's board")
	})
}

func TestMoveIndex(t *testing.T) {
	t.Run("legal moves map to distinct indices in range", func(t *testing.T) {
		gs, err := game.NewGameState(2, 3)
		require.NoError(t, err)

		seen := make(map[int]game.Move)
		for _, m := range gs.GenerateMoves() {
			idx := MoveIndex(m)
			require.GreaterOrEqual(t, idx, 0, "indices are non-negative")
			require.Less(t, idx, PolicySize, "indices fit the policy head")
			if prev, dup := seen[idx]; dup {
				require.Equal(t, prev.Source, m.Source, "collisions may only differ in tile split")
				require.Equal(t, prev.Color, m.Color, "collisions may only differ in tile split")
				require.Equal(t, prev.Row, m.Row, "collisions may only differ in tile split")
			}
			seen[idx] = m
		}
	})

	t.Run("center and floor use the sentinel slots", func(t *testing.T) {
		center := game.Move{Source: game.CenterSource, Color: game.White, Row: game.FloorRow}
		require.Equal(t, PolicySize-1, MoveIndex(center),
			"the center floor dump of the last color is the final index")
	})
}
