package experiments

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"azul/game"
	"azul/searcher"
)

// Player picks a move for the current player. Both searchers and trivial
// baselines satisfy it.
type Player interface {
	Name() string
	Pick(gs *game.GameState) (game.Move, error)
}

// AlphaBetaPlayer wraps an iterative-deepening searcher as a match player.
type AlphaBetaPlayer struct {
	depth   int
	timeout time.Duration
}

func NewAlphaBetaPlayer(depth int, timeout time.Duration) *AlphaBetaPlayer {
	return &AlphaBetaPlayer{depth: depth, timeout: timeout}
}

func (p *AlphaBetaPlayer) Name() string {
	return fmt.Sprintf("alphabeta-d%d", p.depth)
}

func (p *AlphaBetaPlayer) Pick(gs *game.GameState) (game.Move, error) {
	options := []searcher.ABOption{
		searcher.WithMaxDepth(p.depth),
		searcher.WithTable(searcher.NewTable(1 << 16)),
	}
	if p.timeout > 0 {
		options = append(options, searcher.WithTimeout(p.timeout))
	}
	result, ok := searcher.NewAlphaBeta(options...).Search(gs)
	if !ok {
		return game.Move{}, fmt.Errorf("no searchable position")
	}
	return result.BestMove, nil
}

// MCTSPlayer wraps a UCT searcher as a match player.
type MCTSPlayer struct {
	iterations int
	seed       uint64
}

func NewMCTSPlayer(iterations int, seed uint64) *MCTSPlayer {
	return &MCTSPlayer{iterations: iterations, seed: seed}
}

func (p *MCTSPlayer) Name() string {
	return fmt.Sprintf("mcts-i%d", p.iterations)
}

func (p *MCTSPlayer) Pick(gs *game.GameState) (game.Move, error) {
	mcts := searcher.NewMCTS(
		searcher.WithIterations(p.iterations),
		searcher.WithRolloutPolicy(searcher.NewHeuristicPolicy(p.seed)),
	)
	result, ok := mcts.Search(gs)
	if !ok {
		return game.Move{}, fmt.Errorf("no searchable position")
	}
	return result.BestMove, nil
}

// MatchResult tallies a head-to-head series.
type MatchResult struct {
	Wins    []int
	Games   int
	Elapsed time.Duration
}

// RunMatch plays games between two players, alternating seats each game so
// neither side keeps the first-move advantage.
func RunMatch(a, b Player, games int, seed uint64) (MatchResult, error) {
	if games <= 0 {
		games = 1
	}
	result := MatchResult{Wins: make([]int, 2), Games: games}
	start := time.Now()

	for g := 0; g < games; g++ {
		players := []Player{a, b}
		if g%2 == 1 {
			players = []Player{b, a}
		}
		winner, err := playMatch(players, seed+uint64(g))
		if err != nil {
			return result, fmt.Errorf("game %d: %w", g, err)
		}
		winningPlayer := players[winner]
		if winningPlayer == a {
			result.Wins[0]++
		} else {
			result.Wins[1]++
		}
		log.Info().
			Int("game", g+1).
			Str("winner", winningPlayer.Name()).
			Msg("match game finished")
	}

	result.Elapsed = time.Since(start)
	log.Info().
		Str("a", a.Name()).Int("a_wins", result.Wins[0]).
		Str("b", b.Name()).Int("b_wins", result.Wins[1]).
		Dur("elapsed", result.Elapsed).
		Msg("match complete")
	return result, nil
}

func playMatch(players []Player, seed uint64) (int, error) {
	gs, err := game.NewGameState(len(players), seed)
	if err != nil {
		return -1, err
	}
	for !gs.IsGameOver() {
		move, err := players[gs.Current].Pick(gs)
		if err != nil {
			return -1, err
		}
		gs, err = gs.Apply(move)
		if err != nil {
			return -1, err
		}
		if gs.IsRoundOver() {
			gs, err = gs.ApplyEndOfRound()
			if err != nil {
				return -1, err
			}
		}
	}
	return gs.Winner(), nil
}
