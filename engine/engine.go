// Package engine ties the rules, searchers and caches into the analysis
// operations the CLI and HTTP server expose.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"azul/game"
	"azul/searcher"
)

// Search kinds accepted in Request.Kind.
const (
	KindAuto      = "auto"
	KindAlphaBeta = "alphabeta"
	KindMCTS      = "mcts"
	KindEndgame   = "endgame"
)

// Request selects a position and a search configuration. Zero-valued knobs
// fall back to engine defaults.
type Request struct {
	State        string `json:"state"`
	Kind         string `json:"kind,omitempty"`
	MaxDepth     int    `json:"max_depth,omitempty"`
	Iterations   int    `json:"iterations,omitempty"`
	TimeoutMs    int    `json:"timeout_ms,omitempty"`
	EndgameTiles int    `json:"endgame_tiles,omitempty"`
}

// Response is one analysis outcome, JSON-shaped for the API surface. Exact
// marks endgame-solver results; everything else is heuristic.
type Response struct {
	Kind         string   `json:"kind"`
	BestMove     string   `json:"best_move"`
	Score        float64  `json:"score"`
	PV           []string `json:"pv,omitempty"`
	DepthReached int      `json:"depth_reached,omitempty"`
	Iterations   int      `json:"iterations,omitempty"`
	Nodes        int64    `json:"nodes,omitempty"`
	ElapsedMs    int64    `json:"elapsed_ms"`
	Exact        bool     `json:"exact"`
	Winner       int      `json:"winner"`
	FromCache    bool     `json:"from_cache,omitempty"`
}

// Cache stores finished analyses keyed by position hash and search kind.
// Implementations must be safe for concurrent use.
type Cache interface {
	Lookup(ctx context.Context, key game.StateHash, kind string) (Response, bool, error)
	Store(ctx context.Context, key game.StateHash, kind string, resp Response) error
}

// Option configures an Engine.
type Option func(e *Engine)

// Engine owns the shared search infrastructure: one transposition table
// reused across alpha-beta calls, an optional result cache, and the
// evaluator and rollout policy handed to the searchers.
type Engine struct {
	cache        Cache
	table        *searcher.Table
	evaluate     game.Evaluate
	relative     game.Evaluate
	policy       game.RolloutPolicy
	maxDepth     int
	iterations   int
	timeout      time.Duration
	endgameTiles int
}

func WithCache(cache Cache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

func WithTableSize(slots uint64) Option {
	return func(e *Engine) {
		if slots > 0 {
			e.table = searcher.NewTable(slots)
		}
	}
}

func WithEvaluator(evaluate, relative game.Evaluate) Option {
	return func(e *Engine) {
		if evaluate != nil {
			e.evaluate = evaluate
		}
		if relative != nil {
			e.relative = relative
		}
	}
}

func WithRolloutPolicy(policy game.RolloutPolicy) Option {
	return func(e *Engine) {
		if policy != nil {
			e.policy = policy
		}
	}
}

func WithDefaults(maxDepth, iterations int, timeout time.Duration) Option {
	return func(e *Engine) {
		if maxDepth > 0 {
			e.maxDepth = maxDepth
		}
		if iterations > 0 {
			e.iterations = iterations
		}
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

func WithEndgameTiles(tiles int) Option {
	return func(e *Engine) {
		if tiles > 0 {
			e.endgameTiles = tiles
		}
	}
}

func New(options ...Option) *Engine {
	e := &Engine{
		table:        searcher.NewTable(1 << 20),
		evaluate:     game.EvaluateHeuristic,
		relative:     game.EvaluateRelative,
		policy:       searcher.NewRandomPolicy(uint64(time.Now().UnixNano())),
		maxDepth:     6,
		iterations:   20000,
		timeout:      5 * time.Second,
		endgameTiles: searcher.DefaultEndgameTiles,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Analyze runs the requested search against the encoded position. Cached
// results short-circuit the search entirely.
func (e *Engine) Analyze(ctx context.Context, req Request) (Response, error) {
	gs, err := game.DecodeState(req.State)
	if err != nil {
		return Response{}, err
	}
	if gs.IsGameOver() {
		return Response{}, fmt.Errorf("position is already final")
	}

	kind := strings.ToLower(req.Kind)
	if kind == "" {
		kind = KindAuto
	}
	if kind == KindAuto {
		kind = e.route(gs, req)
	}

	if e.cache != nil {
		if resp, ok, err := e.cache.Lookup(ctx, gs.Hash(), kind); err != nil {
			log.Warn().Err(err).Msg("cache lookup failed, searching instead")
		} else if ok {
			resp.FromCache = true
			return resp, nil
		}
	}

	var resp Response
	switch kind {
	case KindAlphaBeta:
		resp, err = e.alphabeta(gs, req)
	case KindMCTS:
		resp, err = e.mcts(gs, req)
	case KindEndgame:
		resp, err = e.endgame(gs, req)
	default:
		return Response{}, fmt.Errorf("unknown search kind %q", req.Kind)
	}
	if err != nil {
		return Response{}, err
	}

	if e.cache != nil {
		if err := e.cache.Store(ctx, gs.Hash(), kind, resp); err != nil {
			log.Warn().Err(err).Msg("cache store failed")
		}
	}
	return resp, nil
}

// route picks the searcher for auto requests: exact solving when few enough
// tiles remain, otherwise alpha-beta.
func (e *Engine) route(gs *game.GameState, req Request) string {
	tiles := gs.Center.Total()
	for _, f := range gs.Factories {
		tiles += f.Total()
	}
	limit := req.EndgameTiles
	if limit <= 0 {
		limit = e.endgameTiles
	}
	if tiles <= limit {
		return KindEndgame
	}
	return KindAlphaBeta
}

func (e *Engine) alphabeta(gs *game.GameState, req Request) (Response, error) {
	options := []searcher.ABOption{
		searcher.WithEvaluator(e.evaluate),
		searcher.WithTable(e.table),
		searcher.WithMaxDepth(pickInt(req.MaxDepth, e.maxDepth)),
	}
	if timeout := pickTimeout(req.TimeoutMs, e.timeout); timeout > 0 {
		options = append(options, searcher.WithTimeout(timeout))
	}
	result, ok := searcher.NewAlphaBeta(options...).Search(gs)
	if !ok {
		return Response{}, fmt.Errorf("position is not searchable")
	}
	pv := make([]string, len(result.PV))
	for i, m := range result.PV {
		pv[i] = game.EncodeMove(m)
	}
	return Response{
		Kind:         KindAlphaBeta,
		BestMove:     game.EncodeMove(result.BestMove),
		Score:        result.Score,
		PV:           pv,
		DepthReached: result.DepthReached,
		Nodes:        result.Nodes,
		ElapsedMs:    result.Elapsed.Milliseconds(),
		Winner:       -1,
	}, nil
}

func (e *Engine) mcts(gs *game.GameState, req Request) (Response, error) {
	options := []searcher.MCTSOption{
		searcher.WithEvaluationFn(e.relative),
		searcher.WithRolloutPolicy(e.policy),
	}
	if req.Iterations > 0 {
		options = append(options, searcher.WithIterations(req.Iterations))
	} else if timeout := pickTimeout(req.TimeoutMs, 0); timeout > 0 {
		options = append(options, searcher.WithDuration(timeout))
	} else {
		options = append(options, searcher.WithIterations(e.iterations))
	}
	start := time.Now()
	result, ok := searcher.NewMCTS(options...).Search(gs)
	if !ok {
		return Response{}, fmt.Errorf("position is not searchable")
	}
	return Response{
		Kind:       KindMCTS,
		BestMove:   game.EncodeMove(result.BestMove),
		Score:      result.Expected,
		Iterations: result.Iterations,
		ElapsedMs:  time.Since(start).Milliseconds(),
		Winner:     -1,
	}, nil
}

// endgame solves exactly when possible and falls back to alpha-beta when the
// position is out of solver scope.
func (e *Engine) endgame(gs *game.GameState, req Request) (Response, error) {
	start := time.Now()
	solver := searcher.NewEndgameSolver(pickInt(req.EndgameTiles, e.endgameTiles))
	if exact, ok := solver.Solve(gs); ok {
		return Response{
			Kind:      KindEndgame,
			BestMove:  game.EncodeMove(exact.BestMove),
			Score:     exact.Margin,
			ElapsedMs: time.Since(start).Milliseconds(),
			Exact:     true,
			Winner:    exact.Winner,
		}, nil
	}
	log.Debug().Msg("endgame solver declined, falling back to alpha-beta")
	return e.alphabeta(gs, req)
}

func pickInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func pickTimeout(ms int, fallback time.Duration) time.Duration {
	if ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
