// Package experiments generates self-play training data and runs engine
// matches for strength comparisons.
package experiments

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"github.com/rs/zerolog/log"

	"azul/game"
	"azul/neural"
	"azul/searcher"
)

// TrainingRow is one supervised sample: the position, the searched move
// distribution, and the eventual outcome from the mover's perspective.
type TrainingRow struct {
	GameID string `parquet:"game_id,dict"`
	Ply    int32  `parquet:"ply"`
	Player int32  `parquet:"player"`

	// State is the position in notation; trainers featurize it themselves.
	State string `parquet:"state"`

	// Policy is the chosen move's index on the flat policy head.
	Policy int32 `parquet:"policy"`
	// VisitsJSON maps move notation to root visit counts.
	VisitsJSON []byte `parquet:"visits_json,zstd"`

	// Value is +1 when the mover went on to win, -1 otherwise.
	Value float32 `parquet:"value"`
}

// SelfPlayConfig drives one self-play batch.
type SelfPlayConfig struct {
	Games      int
	Players    int
	Iterations int
	Seed       uint64
	OutDir     string
}

// RunSelfPlay plays MCTS-vs-MCTS games, recording every decision, and
// writes one parquet batch file. Returns the final file path.
func RunSelfPlay(cfg SelfPlayConfig) (string, error) {
	if cfg.Games <= 0 {
		cfg.Games = 1
	}
	if cfg.Players < 2 {
		cfg.Players = 2
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 2000
	}

	var rows []TrainingRow
	for g := 0; g < cfg.Games; g++ {
		gameID := fmt.Sprintf("sp_%d_%d", cfg.Seed, g)
		gameRows, err := playOne(gameID, cfg, cfg.Seed+uint64(g))
		if err != nil {
			return "", fmt.Errorf("game %s: %w", gameID, err)
		}
		rows = append(rows, gameRows...)
		log.Info().Str("game", gameID).Int("plies", len(gameRows)).Msg("self-play game finished")
	}
	return writeBatch(cfg.OutDir, rows)
}

func playOne(gameID string, cfg SelfPlayConfig, seed uint64) ([]TrainingRow, error) {
	gs, err := game.NewGameState(cfg.Players, seed)
	if err != nil {
		return nil, err
	}
	mcts := searcher.NewMCTS(
		searcher.WithIterations(cfg.Iterations),
		searcher.WithRolloutPolicy(searcher.NewHeuristicPolicy(seed)),
	)

	var rows []TrainingRow
	ply := int32(0)
	for !gs.IsGameOver() {
		result, ok := mcts.Search(gs)
		if !ok {
			break
		}
		visits := make(map[string]int, len(result.Visits))
		for m, v := range result.Visits {
			visits[game.EncodeMove(m)] = v
		}
		visitsJSON, err := json.Marshal(visits)
		if err != nil {
			return nil, err
		}
		rows = append(rows, TrainingRow{
			GameID:     gameID,
			Ply:        ply,
			Player:     int32(gs.Current),
			State:      game.EncodeState(gs),
			Policy:     int32(neural.MoveIndex(result.BestMove)),
			VisitsJSON: visitsJSON,
		})
		ply++

		gs, err = gs.Apply(result.BestMove)
		if err != nil {
			return nil, err
		}
		if gs.IsRoundOver() {
			gs, err = gs.ApplyEndOfRound()
			if err != nil {
				return nil, err
			}
		}
	}

	winner := gs.Winner()
	for i := range rows {
		if int(rows[i].Player) == winner {
			rows[i].Value = 1
		} else {
			rows[i].Value = -1
		}
	}
	return rows, nil
}

// writeBatch writes rows into outDir via a tmp file and an atomic rename,
// so readers never observe a partial parquet file.
func writeBatch(outDir string, rows []TrainingRow) (string, error) {
	if outDir == "" {
		outDir = "."
	}
	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("selfplay_%d.parquet", time.Now().UnixNano())
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "azul_training_row_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}
