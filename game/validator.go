package game

import "strings"

// Verdict classifies the outcome of validating an externally supplied move.
type Verdict int

const (
	Legal Verdict = iota
	IllegalSource
	IllegalDestination
	NotYourTurn
	GameAlreadyOver
)

func (v Verdict) String() string {
	switch v {
	case Legal:
		return "legal"
	case IllegalSource:
		return "illegal_source"
	case IllegalDestination:
		return "illegal_destination"
	case NotYourTurn:
		return "not_your_turn"
	case GameAlreadyOver:
		return "game_already_over"
	}
	return "unknown"
}

// ValidationResult is the structured outcome of Validate. Rule violations are
// expected conditions, reported here rather than as errors.
type ValidationResult struct {
	Verdict Verdict
	Reason  string
}

func (r ValidationResult) IsLegal() bool {
	return r.Verdict == Legal
}

// Validate is the authoritative, side-effect-free legality check for moves
// arriving from outside the engine (UI edits, API calls). It agrees exactly
// with GenerateMoves: a move validates as Legal iff the generator emits it.
func Validate(gs *GameState, m Move, player int) ValidationResult {
	if gs == nil {
		panic("validate on nil state")
	}
	if gs.Over {
		return ValidationResult{Verdict: GameAlreadyOver, Reason: "game is over"}
	}
	if player < 0 || player >= len(gs.Players) {
		return ValidationResult{Verdict: NotYourTurn, Reason: "no such player"}
	}
	if player != gs.Current {
		return ValidationResult{Verdict: NotYourTurn, Reason: "not this player's turn"}
	}
	reason := gs.moveViolation(m, player)
	if reason == "" {
		return ValidationResult{Verdict: Legal}
	}

	verdict := IllegalDestination
	switch {
	case m.Source != CenterSource && (int(m.Source) < 0 || int(m.Source) >= len(gs.Factories)):
		verdict = IllegalSource
	case reason == "source holds no tiles of that color",
		strings.HasPrefix(reason, "move takes"):
		verdict = IllegalSource
	}
	return ValidationResult{Verdict: verdict, Reason: reason}
}
