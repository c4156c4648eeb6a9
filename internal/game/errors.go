package game

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrGameAlreadyStarted  = errors.New("game already started")
	ErrRoomFull            = errors.New("room full")
	ErrNotHost             = errors.New("only the host can start the game")
	ErrInsufficientPlayers = errors.New("need 3-6 players")
	ErrNotVictim           = errors.New("only the victim can do that")
	ErrIsVictim            = errors.New("victim does not guess")
	ErrWrongPhase          = errors.New("invalid phase for action")
	ErrInvalidPermutation  = errors.New("ranking must use 1..5 once each")
	ErrIndexOutOfRange     = errors.New("card index out of range")
)
