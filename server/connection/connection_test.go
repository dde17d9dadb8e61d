package connection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(id string) *Client {
	return &Client{ID: id, Send: make(chan []byte, 4)}
}

func startManager(t *testing.T) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m := NewManager()
	go m.Start(ctx)
	return m
}

// register hands clients to the manager loop and waits until they are stored
func register(t *testing.T, m *Manager, clients ...*Client) {
	t.Helper()
	for _, c := range clients {
		m.Register <- c
		require.Eventually(t, func() bool {
			m.mutex.RLock()
			defer m.mutex.RUnlock()
			_, ok := m.clients[c.ID]
			return ok
		}, time.Second, 5*time.Millisecond)
	}
}

func TestManager_BindAndSend(t *testing.T) {
	m := startManager(t)
	alice, bob, watcher := newClient("c1"), newClient("c2"), newClient("c3")
	register(t, m, alice, bob, watcher)

	m.Bind(alice, "room-1", "p-alice")
	m.Bind(bob, "room-1", "p-bob")
	m.Bind(watcher, "room-2", "p-carol")

	assert.True(t, m.IsConnected("p-alice"))
	roomID, playerID := m.Binding(alice)
	assert.Equal(t, "room-1", roomID)
	assert.Equal(t, "p-alice", playerID)

	assert.True(t, m.SendToPlayer("p-alice", []byte("private")))
	assert.Equal(t, "private", string(<-alice.Send))
	assert.False(t, m.SendToPlayer("p-nobody", []byte("x")))

	m.SendToRoom("room-1", []byte("room"))
	assert.Equal(t, "room", string(<-alice.Send))
	assert.Equal(t, "room", string(<-bob.Send))
	assert.Empty(t, watcher.Send)

	assert.True(t, m.SendToClient("c3", []byte("direct")))
	assert.Equal(t, "direct", string(<-watcher.Send))
}

func TestManager_LatestConnectionWins(t *testing.T) {
	m := startManager(t)
	old, fresh := newClient("c1"), newClient("c2")
	register(t, m, old, fresh)

	m.Bind(old, "room-1", "p-alice")
	m.Bind(fresh, "room-1", "p-alice")
	require.True(t, m.SendToPlayer("p-alice", []byte("hi")))
	assert.Len(t, fresh.Send, 1)
	assert.Empty(t, old.Send)

	m.Unregister <- old
	assert.Eventually(t, func() bool {
		return m.SendToClient("c1", nil) == false
	}, time.Second, 10*time.Millisecond)
	assert.True(t, m.IsConnected("p-alice"), "the stale connection does not unbind the fresh one")
}

func TestManager_UnregisterClosesSend(t *testing.T) {
	m := startManager(t)
	client := newClient("c1")
	register(t, m, client)
	m.Bind(client, "room-1", "p-alice")

	m.Unregister <- client

	require.Eventually(t, func() bool {
		return !m.IsConnected("p-alice")
	}, time.Second, 10*time.Millisecond)
	_, open := <-client.Send
	assert.False(t, open)
}

func TestManager_FullBufferDrops(t *testing.T) {
	m := startManager(t)
	client := &Client{ID: "c1", Send: make(chan []byte, 1)}
	register(t, m, client)
	m.Bind(client, "room-1", "p-alice")

	assert.True(t, m.SendToPlayer("p-alice", []byte("1")))
	assert.False(t, m.SendToPlayer("p-alice", []byte("2")))
}

func TestManager_ClearRoom(t *testing.T) {
	m := startManager(t)
	client := newClient("c1")
	register(t, m, client)
	m.Bind(client, "room-1", "p-alice")

	m.ClearRoom("room-1")

	roomID, playerID := m.Binding(client)
	assert.Empty(t, roomID)
	assert.Empty(t, playerID)
	assert.False(t, m.IsConnected("p-alice"))
	m.SendToRoom("room-1", []byte("gone"))
	assert.Empty(t, client.Send)
}
