package ws

import (
	"errors"

	"github.com/kiliankoe/worstcase/internal/game"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{game.ErrRoomNotFound, "room_not_found"},
	{game.ErrPlayerNotFound, "player_not_found"},
	{game.ErrGameAlreadyStarted, "game_already_started"},
	{game.ErrRoomFull, "room_full"},
	{game.ErrNotHost, "not_host"},
	{game.ErrInsufficientPlayers, "insufficient_players"},
	{game.ErrNotVictim, "not_victim"},
	{game.ErrIsVictim, "is_victim"},
	{game.ErrWrongPhase, "wrong_phase"},
	{game.ErrInvalidPermutation, "invalid_permutation"},
	{game.ErrIndexOutOfRange, "index_out_of_range"},
	{errNotInRoom, "not_in_room"},
	{errRateLimited, "rate_limited"},
}

var (
	errNotInRoom   = errors.New("join a room first")
	errRateLimited = errors.New("slow down")
)

// errorCode maps a core error to the code sent to clients.
func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "bad_request"
}
