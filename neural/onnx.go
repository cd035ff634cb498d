// Package neural runs a trained policy/value network through ONNX Runtime,
// exposing it as an evaluator and a rollout policy for the searchers.
package neural

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"

	"azul/game"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// Evaluator wraps one ONNX session. The model takes a single "input" tensor
// of shape (1, InputSize) and yields "policy" (1, PolicySize) logits and
// "value" (1, 1) in [-1, 1] from the perspective player's seat.
//
// Sessions are not safe for concurrent Run calls; the searchers are
// single-threaded, so one Evaluator per search is enough.
type Evaluator struct {
	session *ort.DynamicAdvancedSession
}

// NewEvaluator loads the model at modelPath. ORT_SHARED_LIBRARY_PATH
// overrides the onnxruntime shared library location when the default
// loader cannot find it.
func NewEvaluator(modelPath string) (*Evaluator, error) {
	ortInitOnce.Do(func() {
		if p := os.Getenv("ORT_SHARED_LIBRARY_PATH"); p != "" {
			ort.SetSharedLibraryPath(p)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("init onnxruntime: %w", ortInitErr)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer options.Destroy()
	options.SetIntraOpNumThreads(1)
	options.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{"input"}, []string{"policy", "value"}, options)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	log.Info().Str("model", modelPath).Msg("neural evaluator loaded")
	return &Evaluator{session: session}, nil
}

func (e *Evaluator) Close() error {
	return e.session.Destroy()
}

// Evaluate is the value head in [-1, 1], usable as a game.Evaluate on the
// MCTS reward scale.
func (e *Evaluator) Evaluate(gs *game.GameState, player int) float64 {
	_, value, err := e.run(gs, player)
	if err != nil {
		log.Warn().Err(err).Msg("inference failed, falling back to heuristic")
		return game.EvaluateRelative(gs, player)
	}
	if value > 1 {
		value = 1
	} else if value < -1 {
		value = -1
	}
	return value
}

// SelectMove is the policy head restricted to the legal set: the legal move
// with the highest logit wins. Implements game.RolloutPolicy.
func (e *Evaluator) SelectMove(gs *game.GameState, legal []game.Move) game.Move {
	policy, _, err := e.run(gs, gs.Current)
	if err != nil {
		log.Warn().Err(err).Msg("inference failed, falling back to first legal move")
		return legal[0]
	}
	best := legal[0]
	bestLogit := policy[MoveIndex(best)]
	for _, m := range legal[1:] {
		if logit := policy[MoveIndex(m)]; logit > bestLogit {
			best, bestLogit = m, logit
		}
	}
	return best
}

func (e *Evaluator) run(gs *game.GameState, player int) ([]float32, float64, error) {
	input, err := ort.NewTensor(ort.NewShape(1, InputSize), featurize(gs, player))
	if err != nil {
		return nil, 0, fmt.Errorf("input tensor: %w", err)
	}
	defer input.Destroy()

	policyOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, PolicySize))
	if err != nil {
		return nil, 0, fmt.Errorf("policy tensor: %w", err)
	}
	defer policyOut.Destroy()
	valueOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return nil, 0, fmt.Errorf("value tensor: %w", err)
	}
	defer valueOut.Destroy()

	if err := e.session.Run(
		[]ort.Value{input},
		[]ort.Value{policyOut, valueOut},
	); err != nil {
		return nil, 0, fmt.Errorf("run session: %w", err)
	}

	policy := make([]float32, PolicySize)
	copy(policy, policyOut.GetData())
	return policy, float64(valueOut.GetData()[0]), nil
}
