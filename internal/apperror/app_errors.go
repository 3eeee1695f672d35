package apperror

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrRoomCreationFailed = errors.New("failed to allocate a unique room code")
	ErrRoomNotActive      = errors.New("room is not active")
	ErrRoundAlreadyOver   = errors.New("round is already over")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrCellOccupied       = errors.New("cell is already occupied")
	ErrInvalidCell        = errors.New("invalid cell index")
	ErrNotInRoom          = errors.New("player is not part of this room")
	ErrNotFound           = errors.New("not found")
)
