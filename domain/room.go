package domain

import (
	"sync"
	"time"

	"github.com/lazharichir/trumpout/domain/events"
)

type RoomStatus string

const (
	RoomStatusWaiting RoomStatus = "waiting"
	RoomStatusPlaying RoomStatus = "playing"
)

// Seat is a roster entry of a room that has no game yet
type Seat struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room is either a pending roster or a live game, never both.
// Every access goes through mu.
type Room struct {
	ID        string
	Config    GameConfig
	Seats     []Seat
	Game      *Game
	CreatedAt time.Time

	mu     sync.Mutex
	closed bool
	outbox []events.Event

	// held from a command's commit until its events are published, so rooms publish in commit order
	publishMu sync.Mutex
}

// RoomSummary is the lobby listing of a room
type RoomSummary struct {
	ID          string     `json:"id"`
	Status      RoomStatus `json:"status"`
	Capacity    int        `json:"capacity"`
	PlayerCount int        `json:"playerCount"`
	Players     []string   `json:"players"`
	GameID      string     `json:"gameId,omitempty"`
	GameOver    bool       `json:"gameOver"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// RoomState is what a single player sees of a room
type RoomState struct {
	Room RoomSummary `json:"room"`
	Game *GameView   `json:"game,omitempty"`
}

func (r *Room) Status() RoomStatus {
	if r.Game != nil {
		return RoomStatusPlaying
	}
	return RoomStatusWaiting
}

func (r *Room) summary() RoomSummary {
	s := RoomSummary{
		ID:        r.ID,
		Status:    r.Status(),
		Capacity:  r.Config.PlayerCount,
		Players:   []string{},
		CreatedAt: r.CreatedAt,
	}
	for _, seat := range r.seats() {
		s.Players = append(s.Players, seat.Name)
	}
	s.PlayerCount = len(s.Players)
	if r.Game != nil {
		s.GameID = r.Game.ID
		s.GameOver = r.Game.GameOver
	}
	return s
}

// seats returns the roster whichever state the room is in
func (r *Room) seats() []Seat {
	if r.Game == nil {
		return r.Seats
	}
	seats := make([]Seat, len(r.Game.Players))
	for i, p := range r.Game.Players {
		seats[i] = Seat{ID: p.ID, Name: p.Name}
	}
	return seats
}

func (r *Room) seatByName(name string) (Seat, bool) {
	for _, s := range r.seats() {
		if s.Name == name {
			return s, true
		}
	}
	return Seat{}, false
}

func (r *Room) hasSeat(playerID string) bool {
	for _, s := range r.seats() {
		if s.ID == playerID {
			return true
		}
	}
	return false
}

// collect buffers events until the room's lock is released
func (r *Room) collect(event events.Event) {
	r.outbox = append(r.outbox, event)
}

func (r *Room) drain() []events.Event {
	out := r.outbox
	r.outbox = nil
	return out
}

// startGame turns the full roster into a live game
func (r *Room) startGame() error {
	game, err := NewGame(r.ID, r.Config)
	if err != nil {
		return err
	}
	for _, seat := range r.Seats {
		if err := game.AddPlayer(NewPlayer(seat.ID, seat.Name)); err != nil {
			return err
		}
	}
	game.RegisterEventHandler(r.collect)
	if err := game.Start(); err != nil {
		return err
	}

	r.Game = game
	r.Seats = nil
	return nil
}

// demote turns an aborted game back into a pending roster of its survivors
func (r *Room) demote() {
	r.Seats = r.seats()
	r.Game = nil
}
