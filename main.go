package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"azul/cache"
	"azul/engine"
	"azul/experiments"
	"azul/game"
	"azul/neural"
	"azul/server"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "new":
		err = runNew(os.Args[2:])
	case "analyze":
		err = runAnalyze(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "selfplay":
		err = runSelfPlay(os.Args[2:])
	case "match":
		err = runMatch(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg(os.Args[1] + " failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: azul <command> [flags]

commands:
  new       deal a fresh position and print its notation
  analyze   search a position and print the best move
  validate  check a move against a position
  serve     run the HTTP analysis server
  selfplay  generate self-play training data
  match     play two engines against each other`)
}

// buildEngine wires the optional DuckDB cache and ONNX model into an engine.
// The returned cleanup closes whatever was opened.
func buildEngine(cachePath, modelPath string, tableBits int) (*engine.Engine, func(), error) {
	var options []engine.Option
	cleanup := func() {}

	if tableBits > 0 {
		options = append(options, engine.WithTableSize(uint64(1)<<tableBits))
	}
	if cachePath != "" {
		store, err := cache.Open(cachePath)
		if err != nil {
			return nil, nil, err
		}
		options = append(options, engine.WithCache(store))
		cleanup = func() { store.Close() }
	}
	if modelPath != "" {
		evaluator, err := neural.NewEvaluator(modelPath)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		options = append(options,
			engine.WithEvaluator(nil, evaluator.Evaluate),
			engine.WithRolloutPolicy(evaluator),
		)
		closeStore := cleanup
		cleanup = func() {
			evaluator.Close()
			closeStore()
		}
	}
	return engine.New(options...), cleanup, nil
}

func runNew(args []string) error {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	players := fs.Int("players", 2, "number of players (2-4)")
	seed := fs.Uint64("seed", uint64(time.Now().UnixNano()), "deal seed")
	fs.Parse(args)

	gs, err := game.NewGameState(*players, *seed)
	if err != nil {
		return err
	}
	fmt.Println(game.EncodeState(gs))
	return nil
}

func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	state := fs.String("state", "", "position in state notation (required)")
	kind := fs.String("kind", engine.KindAuto, "search kind: auto, alphabeta, mcts, endgame")
	depth := fs.Int("depth", 0, "alpha-beta depth limit")
	iterations := fs.Int("iterations", 0, "mcts iteration budget")
	timeoutMs := fs.Int("timeout-ms", 0, "search time budget")
	cachePath := fs.String("cache", "", "DuckDB cache file")
	modelPath := fs.String("model", "", "ONNX policy/value model")
	fs.Parse(args)
	if *state == "" {
		return fmt.Errorf("-state is required")
	}

	eng, cleanup, err := buildEngine(*cachePath, *modelPath, 0)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := eng.Analyze(context.Background(), engine.Request{
		State:      *state,
		Kind:       *kind,
		MaxDepth:   *depth,
		Iterations: *iterations,
		TimeoutMs:  *timeoutMs,
	})
	if err != nil {
		return err
	}

	fmt.Printf("best move: %s\n", resp.BestMove)
	fmt.Printf("score:     %.2f", resp.Score)
	if resp.Exact {
		fmt.Printf(" (exact, winner: player %d)", resp.Winner)
	}
	fmt.Println()
	if len(resp.PV) > 0 {
		fmt.Printf("pv:        %v\n", resp.PV)
	}
	fmt.Printf("kind: %s  depth: %d  iterations: %d  nodes: %d  elapsed: %dms\n",
		resp.Kind, resp.DepthReached, resp.Iterations, resp.Nodes, resp.ElapsedMs)
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	state := fs.String("state", "", "position in state notation (required)")
	move := fs.String("move", "", "move in move notation (required)")
	apply := fs.Bool("apply", false, "print the resulting position when legal")
	fs.Parse(args)
	if *state == "" || *move == "" {
		return fmt.Errorf("-state and -move are required")
	}

	resp, err := engine.New().Validate(engine.ValidateRequest{State: *state, Move: *move, Apply: *apply})
	if err != nil {
		return err
	}
	if resp.Legal {
		fmt.Println("legal")
		if resp.NextState != "" {
			fmt.Println(resp.NextState)
		}
		return nil
	}
	fmt.Printf("%s: %s\n", resp.Verdict, resp.Reason)
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	cachePath := fs.String("cache", "", "DuckDB cache file")
	modelPath := fs.String("model", "", "ONNX policy/value model")
	tableBits := fs.Int("table-bits", 20, "transposition table size as a power of two")
	fs.Parse(args)

	eng, cleanup, err := buildEngine(*cachePath, *modelPath, *tableBits)
	if err != nil {
		return err
	}
	defer cleanup()

	return server.New(eng).ListenAndServe(*addr)
}

func runSelfPlay(args []string) error {
	fs := flag.NewFlagSet("selfplay", flag.ExitOnError)
	games := fs.Int("games", 10, "number of games")
	players := fs.Int("players", 2, "number of players (2-4)")
	iterations := fs.Int("iterations", 2000, "mcts iterations per move")
	seed := fs.Uint64("seed", uint64(time.Now().UnixNano()), "base seed")
	outDir := fs.String("out", "data", "output directory for parquet batches")
	fs.Parse(args)

	path, err := experiments.RunSelfPlay(experiments.SelfPlayConfig{
		Games:      *games,
		Players:    *players,
		Iterations: *iterations,
		Seed:       *seed,
		OutDir:     *outDir,
	})
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runMatch(args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	games := fs.Int("games", 10, "number of games")
	depth := fs.Int("depth", 4, "alpha-beta depth")
	iterations := fs.Int("iterations", 5000, "mcts iterations per move")
	timeoutMs := fs.Int("timeout-ms", 0, "alpha-beta per-move time budget")
	seed := fs.Uint64("seed", uint64(time.Now().UnixNano()), "base seed")
	fs.Parse(args)

	a := experiments.NewAlphaBetaPlayer(*depth, time.Duration(*timeoutMs)*time.Millisecond)
	b := experiments.NewMCTSPlayer(*iterations, *seed)
	result, err := experiments.RunMatch(a, b, *games, *seed)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d - %d %s (%d games, %s)\n",
		a.Name(), result.Wins[0], result.Wins[1], b.Name(), result.Games, result.Elapsed.Round(time.Millisecond))
	return nil
}
