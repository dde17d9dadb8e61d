package events

import (
	"time"

	"github.com/lazharichir/trumpout/cards"
)

type EventHandler func(event Event)

type Event interface {
	Name() string
}

// Private is implemented by events that only one player may see.
type Private interface {
	Event
	RecipientID() string
}

// Room lifecycle events
type RoomCreated struct {
	RoomID   string
	HostID   string
	HostName string
	Capacity int
	At       time.Time
}

func (e RoomCreated) Name() string { return "ROOM_CREATED" }

type PlayerJoinedRoom struct {
	RoomID      string
	PlayerID    string
	PlayerName  string
	Reconnected bool
	At          time.Time
}

func (e PlayerJoinedRoom) Name() string { return "PLAYER_JOINED_ROOM" }

type PlayerLeftRoom struct {
	RoomID     string
	PlayerID   string
	PlayerName string
	At         time.Time
}

func (e PlayerLeftRoom) Name() string { return "PLAYER_LEFT_ROOM" }

type RoomClosed struct {
	RoomID string
	At     time.Time
}

func (e RoomClosed) Name() string { return "ROOM_CLOSED" }

type RoomUpdated struct {
	RoomID string
	At     time.Time
}

func (e RoomUpdated) Name() string { return "ROOM_UPDATED" }

// Game structure events
type GameStarted struct {
	RoomID  string
	GameID  string
	Players []string
	At      time.Time
}

func (e GameStarted) Name() string { return "GAME_STARTED" }

type GameEnded struct {
	RoomID      string
	GameID      string
	FinalScores map[string]int
	At          time.Time
}

func (e GameEnded) Name() string { return "GAME_ENDED" }

type GameAborted struct {
	RoomID    string
	GameID    string
	Survivors []string
	At        time.Time
}

func (e GameAborted) Name() string { return "GAME_ABORTED" }

type RoundStarted struct {
	RoomID      string
	GameID      string
	Number      int
	FirstPlayer string
	TurnOrder   []string
	At          time.Time
}

func (e RoundStarted) Name() string { return "ROUND_STARTED" }

type RoundEnded struct {
	RoomID   string
	GameID   string
	Number   int
	WinnerID string
	Highest  int
	Points   int
	At       time.Time
}

func (e RoundEnded) Name() string { return "ROUND_ENDED" }

type PlayerTurnStarted struct {
	RoomID   string
	GameID   string
	PlayerID string
	At       time.Time
}

func (e PlayerTurnStarted) Name() string { return "PLAYER_TURN_STARTED" }

// Player action events
type PlayerRaised struct {
	RoomID    string
	GameID    string
	PlayerID  string
	Cards     cards.Stack
	Effective int
	Scored    int
	Effect    string
	Reversed  bool
	At        time.Time
}

func (e PlayerRaised) Name() string { return "PLAYER_RAISED" }

type PlayerFolded struct {
	RoomID   string
	GameID   string
	PlayerID string
	Mulligan bool
	At       time.Time
}

func (e PlayerFolded) Name() string { return "PLAYER_FOLDED" }

type MulliganStarted struct {
	RoomID   string
	GameID   string
	PlayerID string
	Drawn    int
	At       time.Time
}

func (e MulliganStarted) Name() string { return "MULLIGAN_STARTED" }

type MulliganCardsDrawn struct {
	RoomID   string
	GameID   string
	PlayerID string
	Cards    cards.Stack
	At       time.Time
}

func (e MulliganCardsDrawn) Name() string        { return "MULLIGAN_CARDS_DRAWN" }
func (e MulliganCardsDrawn) RecipientID() string { return e.PlayerID }

type JackTargetSelected struct {
	RoomID   string
	GameID   string
	PlayerID string
	TargetID string
	At       time.Time
}

func (e JackTargetSelected) Name() string { return "JACK_TARGET_SELECTED" }

type JackHandRevealed struct {
	RoomID   string
	GameID   string
	PlayerID string
	TargetID string
	Cards    cards.Stack
	At       time.Time
}

func (e JackHandRevealed) Name() string        { return "JACK_HAND_REVEALED" }
func (e JackHandRevealed) RecipientID() string { return e.PlayerID }

// JackCardDiscarded is public, so it does not say which card went. The target learns it
// from a message and the actor picked it from the revealed hand.
type JackCardDiscarded struct {
	RoomID   string
	GameID   string
	PlayerID string
	TargetID string
	At       time.Time
}

func (e JackCardDiscarded) Name() string { return "JACK_CARD_DISCARDED" }
