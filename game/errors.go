package game

import "fmt"

// IllegalMoveError reports a move that violates the drafting rules. It is a
// recoverable condition: callers validating external input should prefer
// Validate, which never errors for expected rule violations.
type IllegalMoveError struct {
	Move   Move
	Reason string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %+v: %s", e.Move, e.Reason)
}

// InvalidNotationError reports malformed state or move notation.
type InvalidNotationError struct {
	Input  string
	Reason string
}

func (e *InvalidNotationError) Error() string {
	return fmt.Sprintf("invalid notation %q: %s", e.Input, e.Reason)
}

// TileSupplyExhaustedError indicates both the bag and the discard ran dry
// during a factory refill. Under the fixed 100-tile supply this cannot happen
// in a consistent state, so it signals a conservation violation upstream.
type TileSupplyExhaustedError struct{}

func (e *TileSupplyExhaustedError) Error() string {
	return "tile supply exhausted: bag and discard are both empty"
}
