package events

import (
	"fmt"
	"sync"
)

// EventStore is the interface for storing and retrieving events.
type EventStore interface {
	Append(event Event) error
	LoadEvents(roomID string) ([]Event, error)
	Drop(roomID string)
}

// InMemoryEventStore keeps every room's events for the lifetime of the process.
type InMemoryEventStore struct {
	events map[string][]Event
	mutex  sync.RWMutex
}

// NewInMemoryEventStore creates a new in-memory event store.
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		events: make(map[string][]Event),
	}
}

// Append adds a new event to the store.
func (s *InMemoryEventStore) Append(event Event) error {
	roomID := ExtractRoomID(event)
	if roomID == "" {
		return fmt.Errorf("event %s has no room id", event.Name())
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.events[roomID] = append(s.events[roomID], event)
	return nil
}

// LoadEvents retrieves all events for the given room.
func (s *InMemoryEventStore) LoadEvents(roomID string) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if events, exists := s.events[roomID]; exists {
		// Make a copy to avoid potential race conditions
		result := make([]Event, len(events))
		copy(result, events)
		return result, nil
	}

	return []Event{}, nil
}

// Drop forgets a room's events.
func (s *InMemoryEventStore) Drop(roomID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.events, roomID)
}
