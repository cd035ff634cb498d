package engine

import (
	"azul/game"
)

// ValidateRequest carries a position and a candidate move in notation.
type ValidateRequest struct {
	State string `json:"state"`
	Move  string `json:"move"`
	Apply bool   `json:"apply,omitempty"`
}

// ValidateResponse reports the verdict. NextState is filled only when the
// move is legal and Apply was requested; round settling is included, so the
// returned position is always playable or final.
type ValidateResponse struct {
	Legal     bool   `json:"legal"`
	Verdict   string `json:"verdict"`
	Reason    string `json:"reason,omitempty"`
	NextState string `json:"next_state,omitempty"`
	GameOver  bool   `json:"game_over,omitempty"`
}

// Validate checks a move against a position, optionally applying it.
// Notation errors come back as errors; rule violations come back as a
// non-legal verdict, because bad moves are expected input.
func (e *Engine) Validate(req ValidateRequest) (ValidateResponse, error) {
	gs, err := game.DecodeState(req.State)
	if err != nil {
		return ValidateResponse{}, err
	}
	m, err := game.DecodeMove(gs, req.Move)
	if err != nil {
		return ValidateResponse{}, err
	}

	verdict := game.Validate(gs, m, gs.Current)
	resp := ValidateResponse{
		Legal:   verdict.IsLegal(),
		Verdict: verdict.Verdict.String(),
		Reason:  verdict.Reason,
	}
	if !resp.Legal || !req.Apply {
		return resp, nil
	}

	next, err := gs.Apply(m)
	if err != nil {
		return ValidateResponse{}, err
	}
	if next.IsRoundOver() {
		next, err = next.ApplyEndOfRound()
		if err != nil {
			return ValidateResponse{}, err
		}
	}
	resp.NextState = game.EncodeState(next)
	resp.GameOver = next.IsGameOver()
	return resp, nil
}

// LegalMoves enumerates the current player's moves in notation, in the
// stable generation order.
func (e *Engine) LegalMoves(state string) ([]string, error) {
	gs, err := game.DecodeState(state)
	if err != nil {
		return nil, err
	}
	moves := gs.GenerateMoves()
	encoded := make([]string, len(moves))
	for i, m := range moves {
		encoded[i] = game.EncodeMove(m)
	}
	return encoded, nil
}
