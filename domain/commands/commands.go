package commands

import "github.com/lazharichir/trumpout/domain"

type Command interface {
	Name() string
}

type CreateRoom struct {
	PlayerName string            `json:"playerName"`
	Config     domain.GameConfig `json:"config"`
}

func (c CreateRoom) Name() string { return "CREATE_ROOM" }

type JoinRoom struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

func (c JoinRoom) Name() string { return "JOIN_ROOM" }

type LeaveRoom struct {
	RoomID string `json:"roomId"`
}

func (c LeaveRoom) Name() string { return "LEAVE_ROOM" }

type Raise struct {
	RoomID      string `json:"roomId"`
	CardIndices []int  `json:"cardIndices"`
}

func (c Raise) Name() string { return "RAISE" }

type Fold struct {
	RoomID string `json:"roomId"`
}

func (c Fold) Name() string { return "FOLD" }

type MulliganDiscard struct {
	RoomID      string `json:"roomId"`
	CardIndices []int  `json:"cardIndices"`
}

func (c MulliganDiscard) Name() string { return "MULLIGAN_DISCARD" }

type JackSelectTarget struct {
	RoomID     string `json:"roomId"`
	TargetName string `json:"targetName"`
}

func (c JackSelectTarget) Name() string { return "J_SELECT_TARGET" }

type JackDiscard struct {
	RoomID      string `json:"roomId"`
	CardIndices []int  `json:"cardIndices"`
}

func (c JackDiscard) Name() string { return "J_DISCARD" }

type ResetRoom struct {
	RoomID string `json:"roomId"`
}

func (c ResetRoom) Name() string { return "RESET_ROOM" }
