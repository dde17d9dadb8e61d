package handlers

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/lazharichir/trumpout/domain"
	"github.com/lazharichir/trumpout/server/connection"
	"github.com/lazharichir/trumpout/server/events"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	lobby   *domain.Lobby
	connMgr *connection.Manager
	router  *CommandRouter
}

func newFixture(t *testing.T) *fixture {
	log := logrus.New()
	log.SetOutput(io.Discard)
	entry := logrus.NewEntry(log)

	cfg := domain.DefaultGameConfig()
	cfg.Seed = 3
	lobby := domain.NewLobby(cfg, entry)
	connMgr := connection.NewManager()
	dispatcher := events.NewDispatcher(lobby, connMgr, entry)
	lobby.AddEventHandler(dispatcher.HandleEvent)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go connMgr.Start(ctx)

	return &fixture{
		lobby:   lobby,
		connMgr: connMgr,
		router:  NewCommandRouter(lobby, connMgr, dispatcher, entry),
	}
}

// connect registers a client and waits until the manager can reach it
func (f *fixture) connect(t *testing.T, id string) *connection.Client {
	client := &connection.Client{ID: id, Send: make(chan []byte, 64)}
	f.connMgr.Register <- client
	require.Eventually(t, func() bool {
		return f.connMgr.SendToClient(id, []byte("ping"))
	}, time.Second, 5*time.Millisecond)
	<-client.Send
	return client
}

func (f *fixture) send(client *connection.Client, cmd map[string]any) error {
	data, _ := json.Marshal(cmd)
	return f.router.HandleCommand(client, data)
}

// drain returns every envelope queued for a client
func drain(t *testing.T, client *connection.Client) []events.EventEnvelope {
	var out []events.EventEnvelope
	for {
		select {
		case data := <-client.Send:
			var env events.EventEnvelope
			require.NoError(t, json.Unmarshal(data, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func names(envs []events.EventEnvelope) []string {
	out := make([]string, len(envs))
	for i, e := range envs {
		out[i] = e.Name
	}
	return out
}

func lastState(t *testing.T, envs []events.EventEnvelope) domain.RoomState {
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Name == events.RoomStateName {
			var state domain.RoomState
			require.NoError(t, json.Unmarshal(envs[i].Payload, &state))
			return state
		}
	}
	t.Fatal("no ROOM_STATE received")
	return domain.RoomState{}
}

// seatTwo creates a room over the websocket and fills it
func (f *fixture) seatTwo(t *testing.T) (alice, bob *connection.Client, roomID string) {
	alice = f.connect(t, "c-alice")
	bob = f.connect(t, "c-bob")

	require.NoError(t, f.send(alice, map[string]any{"name": "CREATE_ROOM", "playerName": "alice"}))
	created := drain(t, alice)
	assert.Equal(t, []string{events.RoomStateName}, names(created))
	roomID = lastState(t, created).Room.ID
	require.NotEmpty(t, roomID)

	require.NoError(t, f.send(bob, map[string]any{"name": "JOIN_ROOM", "roomId": roomID, "playerName": "bob"}))
	return alice, bob, roomID
}

func TestHandleCommand_CreateAndJoin(t *testing.T) {
	f := newFixture(t)
	alice, bob, roomID := f.seatTwo(t)

	aliceSaw := drain(t, alice)
	assert.Contains(t, names(aliceSaw), "PLAYER_JOINED_ROOM")
	assert.Contains(t, names(aliceSaw), "GAME_STARTED")
	assert.Equal(t, events.RoomStateName, aliceSaw[len(aliceSaw)-1].Name)

	bobSaw := drain(t, bob)
	assert.Equal(t, []string{events.RoomStateName}, names(bobSaw))
	state := lastState(t, bobSaw)
	assert.Equal(t, roomID, state.Room.ID)
	require.NotNil(t, state.Game)
	assert.Len(t, state.Game.MyHand, 5)

	_, alicePlayer := f.connMgr.Binding(alice)
	assert.Contains(t, f.lobby.Members(roomID), alicePlayer)
}

func TestHandleCommand_Errors(t *testing.T) {
	f := newFixture(t)
	stranger := f.connect(t, "c-stranger")

	tests := []struct {
		name    string
		message string
		wantErr error
	}{
		{"unknown", `{"name":"SHUFFLE"}`, ErrUnknownCommand},
		{"not seated", `{"name":"RAISE","cardIndices":[0]}`, ErrNotSeated},
		{"unknown room", `{"name":"JOIN_ROOM","roomId":"nope","playerName":"x"}`, domain.ErrRoomNotFound},
		{"empty name", `{"name":"CREATE_ROOM","playerName":""}`, domain.ErrEmptyName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.router.HandleCommand(stranger, []byte(tt.message))
			assert.ErrorIs(t, err, tt.wantErr)

			got := drain(t, stranger)
			require.Len(t, got, 1)
			assert.Equal(t, events.ErrorName, got[0].Name)

			var payload events.ErrorPayload
			require.NoError(t, json.Unmarshal(got[0].Payload, &payload))
			assert.Equal(t, err.Error(), payload.Message)
		})
	}

	t.Run("malformed", func(t *testing.T) {
		assert.Error(t, f.router.HandleCommand(stranger, []byte("{")))
		assert.Equal(t, []string{events.ErrorName}, names(drain(t, stranger)))
	})
}

func TestHandleCommand_RejectionOnlyReachesTheSender(t *testing.T) {
	f := newFixture(t)
	alice, bob, _ := f.seatTwo(t)
	state := lastState(t, drain(t, alice))
	drain(t, bob)

	waiting, other := alice, bob
	if state.Game.MyTurn {
		waiting, other = bob, alice
	}

	err := f.send(waiting, map[string]any{"name": "RAISE", "cardIndices": []int{0}})
	assert.ErrorIs(t, err, domain.ErrNotYourTurn)
	assert.Equal(t, []string{events.ErrorName}, names(drain(t, waiting)))
	assert.Empty(t, drain(t, other))
}

func TestHandleCommand_PrivateEvents(t *testing.T) {
	f := newFixture(t)
	alice, bob, roomID := f.seatTwo(t)
	state := lastState(t, drain(t, alice))
	drain(t, bob)

	current, other := alice, bob
	if !state.Game.MyTurn {
		current, other = bob, alice
	}

	require.NoError(t, f.send(current, map[string]any{"name": "FOLD", "roomId": roomID}))

	currentSaw := names(drain(t, current))
	otherSaw := drain(t, other)
	assert.Contains(t, currentSaw, "MULLIGAN_CARDS_DRAWN")
	assert.Contains(t, names(otherSaw), "MULLIGAN_STARTED")
	assert.NotContains(t, names(otherSaw), "MULLIGAN_CARDS_DRAWN")

	otherState := lastState(t, otherSaw)
	assert.Nil(t, otherState.Game.Prompt)
	assert.Empty(t, otherState.Game.AvailableActions)

	err := f.send(current, map[string]any{"name": "FOLD", "roomId": "another-room"})
	assert.ErrorIs(t, err, ErrWrongRoom)
}

func TestHandleCommand_Leave(t *testing.T) {
	f := newFixture(t)
	alice, bob, roomID := f.seatTwo(t)
	drain(t, alice)
	drain(t, bob)

	require.NoError(t, f.send(bob, map[string]any{"name": "LEAVE_ROOM"}))

	roomAfter, playerAfter := f.connMgr.Binding(bob)
	assert.Empty(t, roomAfter)
	assert.Empty(t, playerAfter)

	aliceSaw := drain(t, alice)
	assert.Contains(t, names(aliceSaw), "GAME_ABORTED")
	assert.Contains(t, names(aliceSaw), "PLAYER_LEFT_ROOM")
	state := lastState(t, aliceSaw)
	assert.Equal(t, domain.RoomStatusWaiting, state.Room.Status)
	assert.Nil(t, state.Game)

	summary, err := f.lobby.GetRoom(roomID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, summary.Players)
}
