package domain

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomExpired         = errors.New("room expired")
	ErrRoomAlreadyExists   = errors.New("room already exists")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrNotHost             = errors.New("only the host may perform this action")
	ErrInvalidVote         = errors.New("invalid vote")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrInvalidInput        = errors.New("invalid input")
	ErrWrongState          = errors.New("operation not allowed in current room state")
)
