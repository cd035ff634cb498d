package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustState(t *testing.T, s string) *GameState {
	t.Helper()
	gs, err := DecodeState(s)
	require.NoError(t, err, "fixture should decode")
	return gs
}

func TestNewGameState(t *testing.T) {
	t.Run("two player deal", func(t *testing.T) {
		gs, err := NewGameState(2, 1)
		require.NoError(t, err, "two players is a supported count")

		require.Len(t, gs.Factories, 5, "two players play with five factories")
		for i, f := range gs.Factories {
			require.Equal(t, FactoryCapacity, f.Total(), "factory %d should hold four tiles", i)
		}
		require.True(t, gs.Center.IsEmpty(), "center starts without tiles")
		require.True(t, gs.CenterMarker, "the first-player marker starts in the center pool")
		require.Equal(t, 80, gs.Bag.Total(), "bag should hold the hundred tiles minus the twenty dealt")
		require.Equal(t, 0, gs.Current, "player 0 opens the game")
		require.Equal(t, 1, gs.Round, "rounds are one-based")
		require.NoError(t, gs.VerifyConservation(), "a fresh deal conserves every color")
	})

	t.Run("player counts outside 2-4 are rejected", func(t *testing.T) {
		_, err := NewGameState(1, 1)
		require.Error(t, err, "solo play is not supported")
		_, err = NewGameState(5, 1)
		require.Error(t, err, "five players is not supported")
	})

	t.Run("same seed deals the same position", func(t *testing.T) {
		a, err := NewGameState(3, 42)
		require.NoError(t, err)
		b, err := NewGameState(3, 42)
		require.NoError(t, err)
		require.Equal(t, EncodeState(a), EncodeState(b), "deals must be reproducible by seed")
		require.Len(t, a.Factories, 7, "three players play with seven factories")
	})
}

func TestApplyFactoryTake(t *testing.T) {
	gs, err := NewGameState(2, 9)
	require.NoError(t, err)

	// Pick the generated move that drafts from factory 0 into row 0.
	var m Move
	found := false
	for _, cand := range gs.GenerateMoves() {
		if cand.Source == 0 && cand.Row == 0 {
			m, found = cand, true
			break
		}
	}
	require.True(t, found, "a fresh factory always offers a row-0 draft")

	taken := gs.Factories[0][m.Color]
	rest := gs.Factories[0].Total() - int(taken)

	next, err := gs.Apply(m)
	require.NoError(t, err, "generated moves always apply")

	require.True(t, next.Factories[0].IsEmpty(), "the drafted factory empties completely")
	require.Equal(t, rest, next.Center.Total(), "undrafted tiles move to the center")
	require.Equal(t, uint8(0), next.Center[m.Color], "no tile of the taken color reaches the center")
	require.Equal(t, uint8(1), next.Players[0].PatternCount[0], "row 0 holds exactly one tile")
	require.Equal(t, int(taken)-1, int(next.Players[0].Floor.Total()), "overflow lands on the floor line")
	require.Equal(t, 1, next.Current, "the turn passes on")
	require.NoError(t, next.VerifyConservation(), "drafting never creates or destroys tiles")

	require.Equal(t, uint8(taken), gs.Factories[0][m.Color], "the parent state is never mutated")
}

func TestApplyCenterTake(t *testing.T) {
	gs := mustState(t, "-,-,-,-,- BB* -.-.-.-.-/-----.-----.-----.-----.-----/-/0;"+
		"-.-.-.-.-/-----.-----.-----.-----.-----/-/0 0 2 18,20,20,20,20 0,0,0,0,0")

	m, err := DecodeMove(gs, "cB1")
	require.NoError(t, err)
	next, err := gs.Apply(m)
	require.NoError(t, err)

	require.False(t, next.CenterMarker, "the first center take claims the marker")
	require.True(t, next.Players[0].HasMarker, "the marker sits on the taker's floor line")
	require.Equal(t, uint8(1), next.Players[0].FloorLen, "the marker occupies one floor slot")
	require.Equal(t, 0, next.NextStarter, "the marker holder starts the next round")
	require.Equal(t, uint8(2), next.Players[0].PatternCount[1], "both blues land on row 1")

	// A second center take must not move the marker again.
	gs2 := mustState(t, "-,-,-,-,- BBY -.-.-.-.-/-----.-----.-----.-----.-----/-/0;"+
		"-.-.-.-.-/-----.-----.-----.-----.-----/*/0 1 2 18,19,20,20,20 0,0,0,0,0")
	m, err = DecodeMove(gs2, "cY0")
	require.NoError(t, err)
	next, err = gs2.Apply(m)
	require.NoError(t, err)
	require.Equal(t, 1, next.NextStarter, "an earlier take already fixed the starter")
	require.Equal(t, uint8(1), next.Players[1].FloorLen, "a later center take adds nothing to the floor line")
}

func TestApplyRejectsIllegalMoves(t *testing.T) {
	gs, err := NewGameState(2, 9)
	require.NoError(t, err)

	_, err = gs.Apply(Move{Source: 99, Color: Blue, Row: 0, Placed: 1})
	var illegal *IllegalMoveError
	require.ErrorAs(t, err, &illegal, "bad factory index is an IllegalMoveError")

	// Wrong tile count for the source.
	var m Move
	for _, cand := range gs.GenerateMoves() {
		if cand.Source == 0 {
			m = cand
			break
		}
	}
	m.Placed++
	_, err = gs.Apply(m)
	require.ErrorAs(t, err, &illegal, "taking more tiles than the source holds must fail")
}

func TestCloneIsolation(t *testing.T) {
	gs, err := NewGameState(2, 13)
	require.NoError(t, err)
	snapshot := EncodeState(gs)

	next, err := gs.Apply(gs.GenerateMoves()[0])
	require.NoError(t, err)
	require.NotEqual(t, snapshot, EncodeState(next), "the derived state must differ")
	require.Equal(t, snapshot, EncodeState(gs), "the parent must be untouched")
	require.Equal(t, gs.Hash(), mustState(t, snapshot).Hash(), "the parent hash must be untouched")
}

func TestEndOfRoundScoring(t *testing.T) {
	t.Run("wall tiling, bonuses and game end", func(t *testing.T) {
		// Player 0 finishes wall row 0 this round: 5 adjacency points plus
		// the 2-point row bonus on top of 20 banked.
		gs := mustState(t, "-,-,-,-,- B W.-.-.-.-/BYRK-.-----.-----.-----.-----/-/20;"+
			"-.-.-.-.-/-----.-----.-----.-----.-----/-/10 0 5 18,19,19,19,19 0,0,0,0,0")

		next, err := gs.Apply(Move{Source: CenterSource, Color: Blue, Row: 1, Placed: 1})
		require.NoError(t, err)
		require.True(t, next.IsRoundOver(), "the last tile drains the round")

		final, err := next.ApplyEndOfRound()
		require.NoError(t, err)
		require.True(t, final.IsGameOver(), "a completed wall row ends the game")
		require.Equal(t, 27, final.Players[0].Score, "20 banked + 5 adjacency + 2 row bonus")
		require.Equal(t, 10, final.Players[1].Score, "the opponent scores nothing this round")
		require.Equal(t, 0, final.Winner(), "player 0 wins on points")
		require.True(t, final.Players[0].Wall[0][4], "the completed line tiles the wall")
		require.Equal(t, uint8(0), final.Players[0].PatternCount[0], "the tiled line resets")
		require.NoError(t, final.VerifyConservation(), "scoring conserves tiles")
	})

	t.Run("floor penalties clamp at zero", func(t *testing.T) {
		gs := mustState(t, "-,-,-,-,- - -.-.-.-.-/-----.-----.-----.-----.-----/BBB/0;"+
			"-.-.-.-.-/-----.-----.-----.-----.-----/-/5 0 2 17,20,20,20,20 0,0,0,0,0")

		next, err := gs.ApplyEndOfRound()
		require.NoError(t, err)
		require.Equal(t, 0, next.Players[0].Score, "scores never rest below zero")
		require.True(t, next.Players[0].Floor.IsEmpty(), "the floor line clears at round end")
		require.Equal(t, uint8(3), next.Discard[Blue], "floored tiles reach the discard")
		require.False(t, next.IsGameOver(), "no completed row, so the game continues")
		require.Equal(t, 3, next.Round, "a new round begins")
		require.True(t, next.CenterMarker, "the marker returns to the center pool")
		require.NoError(t, next.VerifyConservation(), "the refill conserves tiles")
	})

	t.Run("marker holder starts the next round", func(t *testing.T) {
		gs := mustState(t, "-,-,-,-,- - -.-.-.-.-/-----.-----.-----.-----.-----/-/0;"+
			"-.-.-.-.-/-----.-----.-----.-----.-----/*/0 0 2 20,20,20,20,20 0,0,0,0,0")

		next, err := gs.ApplyEndOfRound()
		require.NoError(t, err)
		require.Equal(t, 1, next.Current, "the marker holder opens the new round")
		require.Equal(t, -1, next.NextStarter, "the marker claim resets")
	})

	t.Run("rejects settling while tiles remain", func(t *testing.T) {
		gs, err := NewGameState(2, 3)
		require.NoError(t, err)
		_, err = gs.ApplyEndOfRound()
		require.Error(t, err, "a live round cannot settle")
	})
}

func TestRefill(t *testing.T) {
	t.Run("reshuffles the discard when the bag runs dry", func(t *testing.T) {
		gs := mustState(t, "-,-,-,-,- - -.-.-.-.-/-----.-----.-----.-----.-----/-/0;"+
			"-.-.-.-.-/-----.-----.-----.-----.-----/-/0 0 3 2,0,0,0,0 18,20,20,20,20")

		next, err := gs.ApplyEndOfRound()
		require.NoError(t, err)
		total := 0
		for _, f := range next.Factories {
			total += f.Total()
		}
		require.Equal(t, 20, total, "all five factories fill despite the dry bag")
		require.NoError(t, next.VerifyConservation(), "reshuffling conserves tiles")
	})

	t.Run("whole supply exhausted fails upfront", func(t *testing.T) {
		gs := &GameState{
			Factories: make([]TileCounts, 5),
			Players:   make([]Board, 2),
		}
		err := gs.refill()
		var exhausted *TileSupplyExhaustedError
		require.ErrorAs(t, err, &exhausted, "an empty bag and discard cannot deal a round")
	})
}

func TestWinnerTiebreak(t *testing.T) {
	// Equal scores: more completed wall rows wins.
	gs := mustState(t, "-,-,-,-,- - -.-.-.-.-/BYRKW.-----.-----.-----.-----/-/30;"+
		"-.-.-.-.-/-----.--Y--.-----.-----.-----/-/30 0 6 19,18,19,19,19 0,0,0,0,0")
	require.True(t, gs.IsGameOver(), "a completed row in notation means a finished game")
	require.Equal(t, 0, gs.Winner(), "equal scores break on completed rows")
}
