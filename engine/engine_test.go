package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"azul/game"
)

// Final-round position where every continuation ends the game and taking
// blue into a pattern line beats flooring it by one point.
const winInOneState = "-,-,-,-,- B W.-.-.-.-/BYRK-.-----.-----.-----.-----/-/20;" +
	"-.-.-.-.-/-----.-----.-----.-----.-----/-/10 0 5 18,19,19,19,19 0,0,0,0,0"

func freshState(t *testing.T) string {
	t.Helper()
	gs, err := game.NewGameState(2, 19)
	require.NoError(t, err)
	return game.EncodeState(gs)
}

// mapCache is an in-memory Cache for tests.
type mapCache struct {
	entries map[string]Response
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]Response)}
}

func (c *mapCache) key(key game.StateHash, kind string) string {
	return fmt.Sprintf("%s/%x", kind, uint64(key))
}

func (c *mapCache) Lookup(_ context.Context, key game.StateHash, kind string) (Response, bool, error) {
	resp, ok := c.entries[c.key(key, kind)]
	return resp, ok, nil
}

func (c *mapCache) Store(_ context.Context, key game.StateHash, kind string, resp Response) error {
	c.entries[c.key(key, kind)] = resp
	return nil
}

func TestAnalyze(t *testing.T) {
	t.Run("alpha-beta finds the winning draft", func(t *testing.T) {
		resp, err := New().Analyze(context.Background(), Request{
			State: winInOneState, Kind: KindAlphaBeta, MaxDepth: 2,
		})
		require.NoError(t, err)
		require.Equal(t, KindAlphaBeta, resp.Kind)
		require.Equal(t, "cB1", resp.BestMove, "blue belongs on a pattern line")
		require.Equal(t, 17.0, resp.Score, "the score is the exact final margin here")
		require.False(t, resp.Exact, "alpha-beta results are not certified exact")
	})

	t.Run("auto routes tiny positions to the exact solver", func(t *testing.T) {
		resp, err := New().Analyze(context.Background(), Request{State: winInOneState})
		require.NoError(t, err)
		require.Equal(t, KindEndgame, resp.Kind, "one remaining tile is solver territory")
		require.True(t, resp.Exact, "solver results are exact")
		require.Equal(t, 0, resp.Winner, "player 0 wins under optimal play")
	})

	t.Run("auto routes full positions to alpha-beta", func(t *testing.T) {
		resp, err := New().Analyze(context.Background(), Request{
			State: freshState(t), MaxDepth: 2,
		})
		require.NoError(t, err)
		require.Equal(t, KindAlphaBeta, resp.Kind, "twenty tiles exceed the solver scope")
		require.Positive(t, resp.DepthReached, "the search should complete at least one iteration")
	})

	t.Run("mcts spends its iteration budget", func(t *testing.T) {
		resp, err := New().Analyze(context.Background(), Request{
			State: freshState(t), Kind: KindMCTS, Iterations: 100,
		})
		require.NoError(t, err)
		require.Equal(t, 100, resp.Iterations, "iteration budgets are exact")
		require.NotEmpty(t, resp.BestMove, "the search must pick a move")
	})

	t.Run("cache short-circuits repeat requests", func(t *testing.T) {
		cache := newMapCache()
		eng := New(WithCache(cache))
		req := Request{State: winInOneState, Kind: KindAlphaBeta, MaxDepth: 2}

		first, err := eng.Analyze(context.Background(), req)
		require.NoError(t, err)
		require.False(t, first.FromCache, "the first analysis searches")

		second, err := eng.Analyze(context.Background(), req)
		require.NoError(t, err)
		require.True(t, second.FromCache, "the second analysis hits the cache")
		require.Equal(t, first.BestMove, second.BestMove, "cached answers match")
	})

	t.Run("bad input fails cleanly", func(t *testing.T) {
		ctx := context.Background()
		_, err := New().Analyze(ctx, Request{State: "not a position"})
		require.Error(t, err, "garbage notation must fail")

		_, err = New().Analyze(ctx, Request{State: winInOneState, Kind: "minimax"})
		require.Error(t, err, "unknown search kinds must fail")

		final := "-,-,-,-,- - -.-.-.-.-/BYRKW.-----.-----.-----.-----/-/30;" +
			"-.-.-.-.-/-----.-----.-----.-----.-----/-/10 0 6 19,19,19,19,19 0,0,0,0,0"
		_, err = New().Analyze(ctx, Request{State: final})
		require.Error(t, err, "finished games have nothing to analyze")
	})
}

func TestValidateOperation(t *testing.T) {
	eng := New()

	t.Run("legal move applies through round settlement", func(t *testing.T) {
		resp, err := eng.Validate(ValidateRequest{State: winInOneState, Move: "cB1", Apply: true})
		require.NoError(t, err)
		require.True(t, resp.Legal, "the winning draft is legal")
		require.True(t, resp.GameOver, "applying the last draft finishes the game")
		require.NotEmpty(t, resp.NextState, "apply returns the settled position")

		final, err := game.DecodeState(resp.NextState)
		require.NoError(t, err, "the settled position must round-trip")
		require.Equal(t, 27, final.Players[0].Score, "settlement includes wall tiling and bonuses")
	})

	t.Run("illegal move reports a verdict, not an error", func(t *testing.T) {
		resp, err := eng.Validate(ValidateRequest{State: winInOneState, Move: "cB0"})
		require.NoError(t, err, "rule violations are expected input")
		require.False(t, resp.Legal)
		require.Equal(t, "illegal_destination", resp.Verdict, "row 0 stages white, not blue")
	})

	t.Run("malformed notation is an error", func(t *testing.T) {
		_, err := eng.Validate(ValidateRequest{State: winInOneState, Move: "zz"})
		require.Error(t, err, "notation errors are not verdicts")
	})
}

func TestLegalMovesOperation(t *testing.T) {
	moves, err := New().LegalMoves(winInOneState)
	require.NoError(t, err)
	require.Equal(t, []string{"cB1", "cB2", "cB3", "cB4", "cBf"}, moves,
		"one blue in the center offers four rows and the floor")
}

func TestAnalyzeStream(t *testing.T) {
	events := make(chan Event, 16)
	go New().AnalyzeStream(context.Background(), Request{
		State: winInOneState, Kind: KindAlphaBeta, MaxDepth: 2,
	}, 10*time.Millisecond, events)

	var collected []Event
	for event := range events {
		collected = append(collected, event)
	}
	require.NotEmpty(t, collected, "the stream must carry events")
	require.Equal(t, "started", collected[0].Stage, "the stream opens with a start event")
	last := collected[len(collected)-1]
	require.Equal(t, "done", last.Stage, "the stream closes with the result")
	require.NotNil(t, last.Result, "the final event carries the analysis")
	require.Equal(t, "cB1", last.Result.BestMove, "the streamed result matches the one-shot path")
}
