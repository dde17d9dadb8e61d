package domain

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/lazharichir/trumpout/domain/events"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLobby() *Lobby {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewLobby(testConfig(), logrus.NewEntry(log))
}

// recorder collects lobby events
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name()
	}
	return names
}

// playThrough drives a room to game over using only player views
func playThrough(l *Lobby, roomID string, players []string) error {
	for steps := 0; steps < 5000; steps++ {
		acted := false
		for _, pid := range players {
			state, err := l.Snapshot(roomID, pid)
			if err != nil {
				return err
			}
			if state.Game == nil {
				return fmt.Errorf("room %s has no game", roomID)
			}
			if state.Game.GameOver {
				return nil
			}
			if len(state.Game.AvailableActions) == 0 {
				continue
			}

			acted = true
			if err := act(l, roomID, pid, state.Game); err != nil {
				return err
			}
		}
		if !acted {
			return fmt.Errorf("nobody can act in room %s", roomID)
		}
	}
	return fmt.Errorf("room %s does not finish", roomID)
}

// act makes a seat do the first thing its view offers
func act(l *Lobby, roomID string, playerID string, view *GameView) error {
	switch view.AvailableActions[0] {
	case "mulligan_discard":
		indices := make([]int, view.Prompt.Count)
		for i := range indices {
			indices[i] = i
		}
		return l.MulliganDiscard(roomID, playerID, indices)
	case "j_select_target":
		return l.SelectJackTarget(roomID, playerID, view.Prompt.Targets[0])
	case "j_discard":
		return l.JackDiscard(roomID, playerID, []int{0})
	}
	if l.Raise(roomID, playerID, []int{0}) != nil {
		return l.Fold(roomID, playerID)
	}
	return nil
}

// playSeat plays a single seat from its own views until the game ends
func playSeat(l *Lobby, roomID string, playerID string) error {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		state, err := l.Snapshot(roomID, playerID)
		if err != nil {
			return err
		}
		if state.Game == nil {
			return fmt.Errorf("room %s has no game", roomID)
		}
		if state.Game.GameOver {
			return nil
		}
		if len(state.Game.AvailableActions) == 0 {
			runtime.Gosched()
			continue
		}
		if err := act(l, roomID, playerID, state.Game); err != nil {
			return err
		}
	}
	return fmt.Errorf("seat %s did not finish in room %s", playerID, roomID)
}

func TestLobby_CreateRoom(t *testing.T) {
	l := newTestLobby()
	rec := &recorder{}
	l.AddEventHandler(rec.handle)

	roomID, hostID, err := l.CreateRoom(GameConfig{}, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, roomID)
	assert.NotEmpty(t, hostID)

	summary, err := l.GetRoom(roomID)
	require.NoError(t, err)
	assert.Equal(t, RoomStatusWaiting, summary.Status)
	assert.Equal(t, 2, summary.Capacity)
	assert.Equal(t, []string{"alice"}, summary.Players)
	assert.Equal(t, []string{"ROOM_CREATED", "ROOM_UPDATED"}, rec.names())

	_, _, err = l.CreateRoom(GameConfig{}, "")
	assert.ErrorIs(t, err, ErrEmptyName)
	_, _, err = l.CreateRoom(GameConfig{PlayerCount: 1}, "bob")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Len(t, l.GetRooms(), 1)
}

func TestLobby_JoinStartsTheGame(t *testing.T) {
	l := newTestLobby()
	roomID, aliceID, err := l.CreateRoom(GameConfig{}, "alice")
	require.NoError(t, err)

	bobID, err := l.Join(roomID, "bob")
	require.NoError(t, err)

	summary, err := l.GetRoom(roomID)
	require.NoError(t, err)
	assert.Equal(t, RoomStatusPlaying, summary.Status)
	assert.NotEmpty(t, summary.GameID)
	assert.ElementsMatch(t, []string{aliceID, bobID}, l.Members(roomID))

	t.Run("same name reconnects to the same seat", func(t *testing.T) {
		again, err := l.Join(roomID, "bob")
		require.NoError(t, err)
		assert.Equal(t, bobID, again)
	})

	t.Run("a full room rejects newcomers", func(t *testing.T) {
		_, err := l.Join(roomID, "carol")
		assert.ErrorIs(t, err, ErrRoomFull)
	})

	t.Run("unknown room", func(t *testing.T) {
		_, err := l.Join("nope", "carol")
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := l.Join(roomID, "")
		assert.ErrorIs(t, err, ErrEmptyName)
	})
}

func TestLobby_JoinPendingIsIdempotent(t *testing.T) {
	l := newTestLobby()
	roomID, _, err := l.CreateRoom(GameConfig{PlayerCount: 3}, "alice")
	require.NoError(t, err)

	first, err := l.Join(roomID, "bob")
	require.NoError(t, err)
	second, err := l.Join(roomID, "bob")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	summary, _ := l.GetRoom(roomID)
	assert.Equal(t, 2, summary.PlayerCount)
	assert.Equal(t, RoomStatusWaiting, summary.Status)
}

func TestLobby_Snapshot(t *testing.T) {
	l := newTestLobby()
	roomID, aliceID, _ := l.CreateRoom(GameConfig{}, "alice")

	state, err := l.Snapshot(roomID, aliceID)
	require.NoError(t, err)
	assert.Nil(t, state.Game, "no game while waiting")

	bobID, _ := l.Join(roomID, "bob")
	state, err = l.Snapshot(roomID, bobID)
	require.NoError(t, err)
	require.NotNil(t, state.Game)
	assert.Equal(t, bobID, state.Game.PlayerID)
	assert.Len(t, state.Game.MyHand, 5)

	_, err = l.Snapshot(roomID, "stranger")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	_, err = l.Snapshot("nope", bobID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestLobby_ViewKeepsMessages(t *testing.T) {
	l := newTestLobby()
	roomID, aliceID, _ := l.CreateRoom(GameConfig{}, "alice")
	l.Join(roomID, "bob")

	room, err := l.getRoom(roomID)
	require.NoError(t, err)
	room.mu.Lock()
	room.Game.notify(aliceID, "hello")
	room.mu.Unlock()

	for i := 0; i < 2; i++ {
		state, err := l.View(roomID, aliceID)
		require.NoError(t, err)
		assert.Equal(t, []string{"hello"}, state.Game.Messages)
	}

	state, err := l.Snapshot(roomID, aliceID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, state.Game.Messages)

	state, err = l.View(roomID, aliceID)
	require.NoError(t, err)
	assert.Empty(t, state.Game.Messages, "snapshot hands the messages over")

	_, err = l.View(roomID, "stranger")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestLobby_IsSeated(t *testing.T) {
	l := newTestLobby()
	roomID, aliceID, _ := l.CreateRoom(GameConfig{}, "alice")

	assert.True(t, l.IsSeated(roomID, aliceID))
	assert.False(t, l.IsSeated(roomID, "stranger"))
	assert.False(t, l.IsSeated("nope", aliceID))

	bobID, _ := l.Join(roomID, "bob")
	assert.True(t, l.IsSeated(roomID, bobID), "seats of a live game count")

	require.NoError(t, l.Leave(roomID, bobID))
	require.NoError(t, l.Leave(roomID, aliceID))
	assert.False(t, l.IsSeated(roomID, aliceID), "closed rooms have no seats")
}

func TestLobby_ActionsNeedAGame(t *testing.T) {
	l := newTestLobby()
	roomID, aliceID, _ := l.CreateRoom(GameConfig{}, "alice")
	rec := &recorder{}
	l.AddEventHandler(rec.handle)

	assert.ErrorIs(t, l.Raise(roomID, aliceID, []int{0}), ErrRoomNotActive)
	assert.ErrorIs(t, l.Fold(roomID, aliceID), ErrRoomNotActive)
	assert.ErrorIs(t, l.ResetRoom(roomID), ErrRoomNotActive)
	assert.ErrorIs(t, l.Fold("nope", aliceID), ErrRoomNotFound)
	assert.Empty(t, rec.names(), "rejected commands publish nothing")
}

func TestLobby_RejectedActionChangesNothing(t *testing.T) {
	l := newTestLobby()
	roomID, aliceID, _ := l.CreateRoom(GameConfig{}, "alice")
	bobID, _ := l.Join(roomID, "bob")

	before, err := l.Snapshot(roomID, aliceID)
	require.NoError(t, err)
	waiting := aliceID
	if before.Game.MyTurn {
		waiting = bobID
	}

	rec := &recorder{}
	l.AddEventHandler(rec.handle)

	assert.ErrorIs(t, l.Raise(roomID, waiting, []int{0}), ErrNotYourTurn)
	assert.ErrorIs(t, l.MulliganDiscard(roomID, waiting, []int{0}), ErrNothingPending)
	assert.Empty(t, rec.names())

	after, err := l.Snapshot(roomID, aliceID)
	require.NoError(t, err)
	assert.Equal(t, before.Game.MyHand, after.Game.MyHand)
	assert.Equal(t, before.Game.CurrentTurn, after.Game.CurrentTurn)
}

func TestLobby_Leave(t *testing.T) {
	t.Run("the last player out closes a pending room", func(t *testing.T) {
		l := newTestLobby()
		rec := &recorder{}
		l.AddEventHandler(rec.handle)
		roomID, aliceID, _ := l.CreateRoom(GameConfig{}, "alice")

		assert.ErrorIs(t, l.Leave(roomID, "stranger"), ErrPlayerNotFound)
		require.NoError(t, l.Leave(roomID, aliceID))

		_, err := l.GetRoom(roomID)
		assert.ErrorIs(t, err, ErrRoomNotFound)
		assert.Empty(t, l.GetRooms())
		assert.Equal(t, []string{"ROOM_CREATED", "ROOM_UPDATED", "PLAYER_LEFT_ROOM", "ROOM_CLOSED"}, rec.names())

		_, err = l.RoomEvents(roomID)
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("leaving a live game aborts it and the room waits again", func(t *testing.T) {
		l := newTestLobby()
		rec := &recorder{}
		l.AddEventHandler(rec.handle)
		roomID, aliceID, _ := l.CreateRoom(GameConfig{}, "alice")
		bobID, _ := l.Join(roomID, "bob")

		require.NoError(t, l.Leave(roomID, bobID))
		assert.Contains(t, rec.names(), "GAME_ABORTED")

		summary, err := l.GetRoom(roomID)
		require.NoError(t, err)
		assert.Equal(t, RoomStatusWaiting, summary.Status)
		assert.Equal(t, []string{"alice"}, summary.Players)
		assert.Equal(t, []string{aliceID}, l.Members(roomID))

		carolID, err := l.Join(roomID, "carol")
		require.NoError(t, err)
		summary, _ = l.GetRoom(roomID)
		assert.Equal(t, RoomStatusPlaying, summary.Status)
		assert.ElementsMatch(t, []string{aliceID, carolID}, l.Members(roomID))
	})
}

func TestLobby_ResetRoom(t *testing.T) {
	l := newTestLobby()
	roomID, aliceID, _ := l.CreateRoom(GameConfig{}, "alice")
	bobID, _ := l.Join(roomID, "bob")
	before, _ := l.GetRoom(roomID)

	require.NoError(t, l.ResetRoom(roomID))

	after, err := l.GetRoom(roomID)
	require.NoError(t, err)
	assert.NotEqual(t, before.GameID, after.GameID)
	assert.ElementsMatch(t, []string{aliceID, bobID}, l.Members(roomID))

	state, err := l.Snapshot(roomID, aliceID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Game.RoundNumber)
}

func TestLobby_RoomEvents(t *testing.T) {
	l := newTestLobby()
	roomID, _, _ := l.CreateRoom(GameConfig{}, "alice")
	_, err := l.Join(roomID, "bob")
	require.NoError(t, err)

	stored, err := l.RoomEvents(roomID)
	require.NoError(t, err)
	require.NotEmpty(t, stored)
	assert.Equal(t, "ROOM_CREATED", stored[0].Name())

	var names []string
	for _, e := range stored {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "GAME_STARTED")
	assert.Contains(t, names, "ROUND_STARTED")
	assert.Equal(t, "ROOM_UPDATED", names[len(names)-1], "observers are told after the events of a command")
}

func TestLobby_PlaysAGameThroughViews(t *testing.T) {
	l := newTestLobby()
	roomID, aliceID, _ := l.CreateRoom(GameConfig{}, "alice")
	bobID, _ := l.Join(roomID, "bob")

	require.NoError(t, playThrough(l, roomID, []string{aliceID, bobID}))

	state, err := l.Snapshot(roomID, aliceID)
	require.NoError(t, err)
	assert.True(t, state.Game.GameOver)
	assert.Len(t, state.Game.RoundHistory, 4)
	assert.Len(t, state.Game.FinalScores, 2)
	assert.True(t, state.Room.GameOver)
	assert.ErrorIs(t, l.Fold(roomID, aliceID), ErrGameOver)
}

func TestLobby_ConcurrentRooms(t *testing.T) {
	l := newTestLobby()
	rec := &recorder{}
	l.AddEventHandler(rec.handle)

	const rooms = 8
	var wg sync.WaitGroup
	for i := 0; i < rooms; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			roomID, hostID, err := l.CreateRoom(GameConfig{}, fmt.Sprintf("host-%d", i))
			if !assert.NoError(t, err) {
				return
			}
			guestID, err := l.Join(roomID, fmt.Sprintf("guest-%d", i))
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, playThrough(l, roomID, []string{hostID, guestID}))
		}(i)
	}
	wg.Wait()

	summaries := l.GetRooms()
	require.Len(t, summaries, rooms)
	for _, s := range summaries {
		assert.True(t, s.GameOver, s.ID)
	}
}

func TestLobby_PublishesInCommitOrder(t *testing.T) {
	l := newTestLobby()
	rec := &recorder{}
	l.AddEventHandler(rec.handle)

	roomID, aliceID, _ := l.CreateRoom(GameConfig{}, "alice")
	bobID, _ := l.Join(roomID, "bob")

	var wg sync.WaitGroup
	for _, pid := range []string{aliceID, bobID} {
		wg.Add(1)
		go func(pid string) {
			defer wg.Done()
			assert.NoError(t, playSeat(l, roomID, pid))
		}(pid)
	}
	wg.Wait()

	stored, err := l.RoomEvents(roomID)
	require.NoError(t, err)
	rec.mu.Lock()
	seen := append([]events.Event{}, rec.events...)
	rec.mu.Unlock()
	assert.Equal(t, stored, seen, "handlers see events in the order they were stored")

	round := 0
	for _, e := range stored {
		switch e := e.(type) {
		case events.RoundStarted:
			assert.Equal(t, round+1, e.Number)
			round = e.Number
		case events.RoundEnded:
			assert.Equal(t, round, e.Number, "a round ends before the next one starts")
		}
	}
	assert.Equal(t, 4, round)
}
