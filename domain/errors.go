package domain

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid game config")

	// registry
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomNotActive  = errors.New("room has no game in progress")
	ErrDuplicateName  = errors.New("name already taken in this room")
	ErrEmptyName      = errors.New("player name is required")
	ErrPlayerNotFound = errors.New("player not found")

	// turn flow
	ErrNoRound        = errors.New("no round in progress")
	ErrGameOver       = errors.New("game is over")
	ErrNotYourTurn    = errors.New("not this player's turn to act")
	ErrNotActive      = errors.New("player is not active in this round")
	ErrPromptPending  = errors.New("a pending action must be completed first")
	ErrNothingPending = errors.New("no pending action of that kind")

	// raise validation
	ErrNoCards          = errors.New("select at least one card")
	ErrInvalidCardIndex = errors.New("invalid card index")
	ErrTooManySpecials  = errors.New("at most one special card per play")
	ErrTooManyCards     = errors.New("too many cards in one play")
	ErrSpecialAlone     = errors.New("a special card must be played with a numeric card")
	ErrTooLow           = errors.New("raise must be higher than the current highest")
	ErrTooHigh          = errors.New("raise must be lower than the current highest while reversed")

	// prompts
	ErrInvalidTarget     = errors.New("invalid target")
	ErrWrongDiscardCount = errors.New("wrong number of cards selected")
)
