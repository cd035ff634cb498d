package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateHeuristic(t *testing.T) {
	t.Run("symmetric positions evaluate to zero", func(t *testing.T) {
		gs, err := NewGameState(2, 7)
		require.NoError(t, err)
		require.Equal(t, 0.0, EvaluateHeuristic(gs, 0), "identical boards cancel out")
		require.Equal(t, 0.0, EvaluateHeuristic(gs, 1), "from either seat")
	})

	t.Run("banked points dominate", func(t *testing.T) {
		gs := mustState(t, "-,-,-,-,- B* -.-.-.-.-/-----.-----.-----.-----.-----/-/15;"+
			"-.-.-.-.-/-----.-----.-----.-----.-----/-/5 0 3 19,20,20,20,20 0,0,0,0,0")
		require.Greater(t, EvaluateHeuristic(gs, 0), 0.0, "the leader evaluates positive")
		require.Less(t, EvaluateHeuristic(gs, 1), 0.0, "the trailer evaluates negative")
		require.Equal(t, EvaluateHeuristic(gs, 0), -EvaluateHeuristic(gs, 1),
			"two-player evaluation is antisymmetric")
	})

	t.Run("completed pattern lines beat empty ones", func(t *testing.T) {
		ahead := mustState(t, "-,-,-,-,- B* -.RR.-.-.-/-----.-----.-----.-----.-----/-/0;"+
			"-.-.-.-.-/-----.-----.-----.-----.-----/-/0 0 3 19,20,18,20,20 0,0,0,0,0")
		behind := mustState(t, "-,-,-,-,- B* -.-.-.-.-/-----.-----.-----.-----.-----/-/0;"+
			"-.-.-.-.-/-----.-----.-----.-----.-----/-/0 0 3 19,20,20,20,20 0,0,0,0,0")
		require.Greater(t, EvaluateHeuristic(ahead, 0), EvaluateHeuristic(behind, 0),
			"staged wall progress is worth something")
	})

	t.Run("floor tiles are a liability", func(t *testing.T) {
		dirty := mustState(t, "-,-,-,-,- B* -.-.-.-.-/-----.-----.-----.-----.-----/RRR/0;"+
			"-.-.-.-.-/-----.-----.-----.-----.-----/-/0 0 3 19,20,17,20,20 0,0,0,0,0")
		require.Less(t, EvaluateHeuristic(dirty, 0), 0.0, "pending penalties count against the board")
	})
}

func TestEvaluateRelative(t *testing.T) {
	t.Run("stays within the reward scale", func(t *testing.T) {
		gs := mustState(t, "-,-,-,-,- B* -.-.-.-.-/-----.-----.-----.-----.-----/-/80;"+
			"-.-.-.-.-/-----.-----.-----.-----.-----/-/0 0 3 19,20,20,20,20 0,0,0,0,0")
		require.Equal(t, 1.0, EvaluateRelative(gs, 0), "a huge lead saturates at +1")
		require.Equal(t, -1.0, EvaluateRelative(gs, 1), "a huge deficit saturates at -1")
	})

	t.Run("scales small leads linearly", func(t *testing.T) {
		gs := mustState(t, "-,-,-,-,- B* -.-.-.-.-/-----.-----.-----.-----.-----/-/10;"+
			"-.-.-.-.-/-----.-----.-----.-----.-----/-/0 0 3 19,20,20,20,20 0,0,0,0,0")
		require.InDelta(t, 0.5, EvaluateRelative(gs, 0), 1e-9, "ten points is half the saturation lead")
	})
}
