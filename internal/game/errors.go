// internal/game/errors.go
package game

import "errors"

// Rejection reasons reported back to the offending caller. None of these
// mutate room state and none are ever broadcast to the opponent.
var (
	ErrNotFound         = errors.New("room not found")
	ErrFull             = errors.New("room is full")
	ErrOutOfTurn        = errors.New("not your turn")
	ErrAlreadyStopped   = errors.New("you already stood")
	ErrInvalidTarget    = errors.New("invalid card selection")
	ErrAbilityExhausted = errors.New("no special cards remaining")
	ErrNotReady         = errors.New("room not ready")
)
