package connection

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
)

// Client represents a connected player
type Client struct {
	ID       string
	Conn     *websocket.Conn
	Send     chan []byte
	PlayerID string // seat id in the room, empty until bound
	RoomID   string // the room the client follows
}

// Manager handles all client connections
type Manager struct {
	clients    map[string]*Client // Map connection IDs to clients
	playerMap  map[string]string  // Map player IDs to connection IDs
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

// NewManager creates a new connection manager
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		playerMap:  make(map[string]string),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start processes connection events until ctx is done
func (m *Manager) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-m.Register:
			m.mutex.Lock()
			m.clients[client.ID] = client
			if client.PlayerID != "" {
				m.playerMap[client.PlayerID] = client.ID
			}
			m.mutex.Unlock()
		case client := <-m.Unregister:
			m.mutex.Lock()
			if _, ok := m.clients[client.ID]; ok {
				if m.playerMap[client.PlayerID] == client.ID {
					delete(m.playerMap, client.PlayerID)
				}
				delete(m.clients, client.ID)
				close(client.Send)
			}
			m.mutex.Unlock()
		}
	}
}

// Bind attaches a client to a seat. A player has one live connection; the latest wins.
func (m *Manager) Bind(client *Client, roomID string, playerID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if client.PlayerID != "" && m.playerMap[client.PlayerID] == client.ID {
		delete(m.playerMap, client.PlayerID)
	}
	client.RoomID = roomID
	client.PlayerID = playerID
	if _, ok := m.clients[client.ID]; ok && playerID != "" {
		m.playerMap[playerID] = client.ID
	}
}

// Unbind detaches a client from its room
func (m *Manager) Unbind(client *Client) {
	m.Bind(client, "", "")
}

// Binding returns the room and seat a client is bound to
func (m *Manager) Binding(client *Client) (roomID string, playerID string) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return client.RoomID, client.PlayerID
}

// IsConnected reports whether a player has a live connection
func (m *Manager) IsConnected(playerID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	_, ok := m.playerMap[playerID]
	return ok
}

// SendToPlayer sends a message to a specific player
func (m *Manager) SendToPlayer(playerID string, message []byte) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if connID, exists := m.playerMap[playerID]; exists {
		if client, ok := m.clients[connID]; ok {
			return trySend(client, message)
		}
	}
	return false
}

// SendToClient sends a message to one connection, bound or not
func (m *Manager) SendToClient(clientID string, message []byte) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if client, ok := m.clients[clientID]; ok {
		return trySend(client, message)
	}
	return false
}

// SendToRoom sends a message to every client following a room
func (m *Manager) SendToRoom(roomID string, message []byte) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, client := range m.clients {
		if client.RoomID == roomID {
			trySend(client, message)
		}
	}
}

// ClearRoom detaches every client from a room that no longer exists
func (m *Manager) ClearRoom(roomID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, client := range m.clients {
		if client.RoomID != roomID {
			continue
		}
		if m.playerMap[client.PlayerID] == client.ID {
			delete(m.playerMap, client.PlayerID)
		}
		client.RoomID = ""
		client.PlayerID = ""
	}
}

// Deliver queues a message without waiting; a full buffer drops it.
// Outside the manager only the client's own read loop may call it, before unregistering.
func (c *Client) Deliver(message []byte) bool {
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

func trySend(client *Client, message []byte) bool {
	return client.Deliver(message)
}
