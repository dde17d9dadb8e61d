package domain

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lazharichir/trumpout/domain/events"
	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
)

// Lobby is the room registry: room id -> pending roster or live game
type Lobby struct {
	rooms    map[string]*Room
	mu       sync.RWMutex
	defaults GameConfig
	log      *logrus.Entry
	store    events.EventStore

	handlersMu    sync.RWMutex
	eventHandlers []events.EventHandler
}

// NewLobby creates a registry whose rooms fall back to defaults for unset rules
func NewLobby(defaults GameConfig, log *logrus.Entry) *Lobby {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Lobby{
		rooms:    make(map[string]*Room),
		defaults: defaults,
		log:      log,
		store:    events.NewInMemoryEventStore(),
	}
}

// AddEventHandler adds an event handler to the lobby. Handlers run while the room's
// publication is in progress and must not issue commands on the lobby.
func (l *Lobby) AddEventHandler(handler events.EventHandler) {
	l.handlersMu.Lock()
	defer l.handlersMu.Unlock()
	l.eventHandlers = append(l.eventHandlers, handler)
}

// emitEvent records an event and notifies all registered handlers. Never called with a room lock held.
func (l *Lobby) emitEvent(event events.Event) {
	if err := l.store.Append(event); err != nil {
		l.log.WithError(err).WithField("event", event.Name()).Warn("event not stored")
	}

	if l.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		l.log.WithField("event", event.Name()).Debug(litter.Sdump(event))
	}

	l.handlersMu.RLock()
	handlers := append([]events.EventHandler{}, l.eventHandlers...)
	l.handlersMu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}

	if closed, ok := event.(events.RoomClosed); ok {
		l.store.Drop(closed.RoomID)
	}
}

// withRoom runs fn under the room's lock, then publishes what fn produced.
// A successful fn is followed by a ROOM_UPDATED event so observers can pull fresh views.
// Publication of one command finishes before the next command on the room commits.
func (l *Lobby) withRoom(roomID string, fn func(r *Room) error) error {
	room, err := l.getRoom(roomID)
	if err != nil {
		return err
	}

	room.publishMu.Lock()
	defer room.publishMu.Unlock()

	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return ErrRoomNotFound
	}
	err = fn(room)
	out := room.drain()
	if err == nil && !room.closed {
		out = append(out, events.RoomUpdated{RoomID: room.ID, At: time.Now()})
	}
	room.mu.Unlock()

	for _, event := range out {
		l.emitEvent(event)
	}
	return err
}

func (l *Lobby) getRoom(roomID string) (*Room, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	room, exists := l.rooms[roomID]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// CreateRoom opens a room with the host as its only seat
func (l *Lobby) CreateRoom(config GameConfig, hostName string) (roomID string, playerID string, err error) {
	if hostName == "" {
		return "", "", ErrEmptyName
	}
	config = config.Merge(l.defaults)
	if err := config.Validate(); err != nil {
		return "", "", err
	}

	room := &Room{
		ID:        uuid.NewString(),
		Config:    config,
		Seats:     []Seat{{ID: uuid.NewString(), Name: hostName}},
		CreatedAt: time.Now(),
	}

	room.publishMu.Lock()
	defer room.publishMu.Unlock()

	l.mu.Lock()
	l.rooms[room.ID] = room
	l.mu.Unlock()

	l.log.WithFields(logrus.Fields{
		"room_id":   room.ID,
		"player_id": room.Seats[0].ID,
		"capacity":  config.PlayerCount,
	}).Info("room created")

	l.emitEvent(events.RoomCreated{
		RoomID:   room.ID,
		HostID:   room.Seats[0].ID,
		HostName: hostName,
		Capacity: config.PlayerCount,
		At:       time.Now(),
	})
	l.emitEvent(events.RoomUpdated{RoomID: room.ID, At: time.Now()})

	return room.ID, room.Seats[0].ID, nil
}

// Join seats a player. Joining twice with the same name returns the same seat, which is also
// how a player reconnects to a live game. Filling the last seat starts the game.
func (l *Lobby) Join(roomID string, name string) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}

	var playerID string
	err := l.withRoom(roomID, func(r *Room) error {
		if seat, ok := r.seatByName(name); ok {
			playerID = seat.ID
			r.collect(events.PlayerJoinedRoom{
				RoomID:      r.ID,
				PlayerID:    seat.ID,
				PlayerName:  seat.Name,
				Reconnected: true,
				At:          time.Now(),
			})
			return nil
		}

		if r.Game != nil || len(r.Seats) >= r.Config.PlayerCount {
			return ErrRoomFull
		}

		seat := Seat{ID: uuid.NewString(), Name: name}
		r.Seats = append(r.Seats, seat)
		playerID = seat.ID
		r.collect(events.PlayerJoinedRoom{
			RoomID:     r.ID,
			PlayerID:   seat.ID,
			PlayerName: seat.Name,
			At:         time.Now(),
		})

		if len(r.Seats) == r.Config.PlayerCount {
			if err := r.startGame(); err != nil {
				// roll the seat back so the room is unchanged
				r.Seats = r.Seats[:len(r.Seats)-1]
				r.outbox = nil
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	l.log.WithFields(logrus.Fields{"room_id": roomID, "player_id": playerID}).Info("player joined room")
	return playerID, nil
}

// Leave removes a player. An emptied pending room is deleted; a live game that drops below
// capacity is aborted and the room goes back to waiting with the survivors.
func (l *Lobby) Leave(roomID string, playerID string) error {
	err := l.withRoom(roomID, func(r *Room) error {
		if !r.hasSeat(playerID) {
			return ErrPlayerNotFound
		}

		var name string
		if r.Game == nil {
			for i, s := range r.Seats {
				if s.ID == playerID {
					name = s.Name
					r.Seats = append(r.Seats[:i], r.Seats[i+1:]...)
					break
				}
			}
		} else {
			if p := r.Game.GetPlayer(playerID); p != nil {
				name = p.Name
			}
			if err := r.Game.RemovePlayer(playerID); err != nil {
				return err
			}
			if r.Game.Aborted {
				r.demote()
			}
		}

		r.collect(events.PlayerLeftRoom{
			RoomID:     r.ID,
			PlayerID:   playerID,
			PlayerName: name,
			At:         time.Now(),
		})

		if r.Game == nil && len(r.Seats) == 0 {
			r.closed = true
			l.mu.Lock()
			delete(l.rooms, r.ID)
			l.mu.Unlock()
			r.collect(events.RoomClosed{RoomID: r.ID, At: time.Now()})
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.log.WithFields(logrus.Fields{"room_id": roomID, "player_id": playerID}).Info("player left room")
	return nil
}

// ResetRoom replaces a room's game with a fresh one over the same seats
func (l *Lobby) ResetRoom(roomID string) error {
	return l.withRoom(roomID, func(r *Room) error {
		if r.Game == nil {
			return ErrRoomNotActive
		}
		previous := r.Game
		r.Seats = r.seats()
		if err := r.startGame(); err != nil {
			r.Game = previous
			r.Seats = nil
			r.outbox = nil
			return err
		}
		l.log.WithFields(logrus.Fields{"room_id": r.ID, "game_id": r.Game.ID}).Info("room reset")
		return nil
	})
}

// Raise plays cards for a player in a room
func (l *Lobby) Raise(roomID string, playerID string, indices []int) error {
	return l.withGame(roomID, func(g *Game) error { return g.Raise(playerID, indices) })
}

// Fold folds, or starts a mulligan, for a player in a room
func (l *Lobby) Fold(roomID string, playerID string) error {
	return l.withGame(roomID, func(g *Game) error { return g.Fold(playerID) })
}

// MulliganDiscard completes a pending mulligan
func (l *Lobby) MulliganDiscard(roomID string, playerID string, indices []int) error {
	return l.withGame(roomID, func(g *Game) error { return g.MulliganDiscard(playerID, indices) })
}

// SelectJackTarget picks the player a pending J reveals
func (l *Lobby) SelectJackTarget(roomID string, playerID string, targetName string) error {
	return l.withGame(roomID, func(g *Game) error { return g.SelectJackTarget(playerID, targetName) })
}

// JackDiscard discards a card from the revealed hand
func (l *Lobby) JackDiscard(roomID string, playerID string, indices []int) error {
	return l.withGame(roomID, func(g *Game) error { return g.JackDiscard(playerID, indices) })
}

func (l *Lobby) withGame(roomID string, fn func(g *Game) error) error {
	return l.withRoom(roomID, func(r *Room) error {
		if r.Game == nil {
			return ErrRoomNotActive
		}
		return fn(r.Game)
	})
}

// Snapshot builds the room as seen by one player and hands over their queued messages
func (l *Lobby) Snapshot(roomID string, playerID string) (RoomState, error) {
	return l.roomState(roomID, playerID, true)
}

// View builds the same state as Snapshot but leaves the player's messages queued
func (l *Lobby) View(roomID string, playerID string) (RoomState, error) {
	return l.roomState(roomID, playerID, false)
}

func (l *Lobby) roomState(roomID string, playerID string, takeMessages bool) (RoomState, error) {
	room, err := l.getRoom(roomID)
	if err != nil {
		return RoomState{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return RoomState{}, ErrRoomNotFound
	}
	if !room.hasSeat(playerID) {
		return RoomState{}, fmt.Errorf("%w: %s is not seated in room %s", ErrPlayerNotFound, playerID, roomID)
	}

	state := RoomState{Room: room.summary()}
	if room.Game != nil {
		view := room.Game.BuildPlayerView(playerID)
		if takeMessages {
			view.Messages = room.Game.TakeMessages(playerID)
		} else {
			view.Messages = room.Game.PendingMessages(playerID)
		}
		state.Game = &view
	}
	return state, nil
}

// IsSeated reports whether a player holds a seat in a room
func (l *Lobby) IsSeated(roomID string, playerID string) bool {
	room, err := l.getRoom(roomID)
	if err != nil {
		return false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	return !room.closed && room.hasSeat(playerID)
}

// Members lists the player ids seated in a room
func (l *Lobby) Members(roomID string) []string {
	room, err := l.getRoom(roomID)
	if err != nil {
		return nil
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	seats := room.seats()
	ids := make([]string, len(seats))
	for i, s := range seats {
		ids[i] = s.ID
	}
	return ids
}

// GetRoom returns the listing of one room
func (l *Lobby) GetRoom(roomID string) (RoomSummary, error) {
	room, err := l.getRoom(roomID)
	if err != nil {
		return RoomSummary{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	return room.summary(), nil
}

// GetRooms returns all rooms, oldest first
func (l *Lobby) GetRooms() []RoomSummary {
	l.mu.RLock()
	rooms := make([]*Room, 0, len(l.rooms))
	for _, room := range l.rooms {
		rooms = append(rooms, room)
	}
	l.mu.RUnlock()

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		summaries = append(summaries, room.summary())
		room.mu.Unlock()
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

// RoomEvents returns everything that happened in a room, in order
func (l *Lobby) RoomEvents(roomID string) ([]events.Event, error) {
	if _, err := l.getRoom(roomID); err != nil {
		return nil, err
	}
	return l.store.LoadEvents(roomID)
}
