package lobby

import "errors"

var (
	ErrGameNotFound   = errors.New("lobby: game not found")
	ErrGameNotActive  = errors.New("lobby: game is not in the STARTED state")
	ErrNotParticipant = errors.New("lobby: address is not a participant in this game")
	ErrNotYourTurn    = errors.New("lobby: it is not this player's turn")
)
