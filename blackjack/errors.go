package blackjack

import "errors"

var (
	ErrMissingPlayerID = errors.New("player not seated at table")
	ErrInvalidAction   = errors.New("invalid action")
	ErrDeckExhausted   = errors.New("deck exhausted")
)
