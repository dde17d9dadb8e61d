package events

import (
	"encoding/json"

	"github.com/lazharichir/trumpout/domain"
	"github.com/lazharichir/trumpout/domain/events"
	"github.com/lazharichir/trumpout/server/connection"
	"github.com/sirupsen/logrus"
)

const (
	RoomStateName = "ROOM_STATE"
	ErrorName     = "ERROR"
)

// EventEnvelope wraps an event with its name for client consumption
type EventEnvelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorPayload is the body of an ERROR envelope
type ErrorPayload struct {
	Command string `json:"command,omitempty"`
	Message string `json:"message"`
}

// StateSource is the part of the lobby the dispatcher reads views from
type StateSource interface {
	Snapshot(roomID string, playerID string) (domain.RoomState, error)
	Members(roomID string) []string
}

// Dispatcher handles routing events to clients
type Dispatcher struct {
	rooms   StateSource
	connMgr *connection.Manager
	log     *logrus.Entry
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(rooms StateSource, connMgr *connection.Manager, log *logrus.Entry) *Dispatcher {
	return &Dispatcher{
		rooms:   rooms,
		connMgr: connMgr,
		log:     log,
	}
}

// Encode marshals a payload into an envelope
func Encode(name string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(EventEnvelope{Name: name, Payload: raw})
}

// HandleEvent processes domain events and sends them to clients.
// The lobby calls it after the room lock is released, so views can be read here.
func (d *Dispatcher) HandleEvent(event events.Event) {
	if updated, ok := event.(events.RoomUpdated); ok {
		d.PushRoomState(updated.RoomID)
		return
	}

	envelopeData, err := Encode(event.Name(), event)
	if err != nil {
		d.log.WithError(err).WithField("event", event.Name()).Error("failed to marshal event")
		return
	}

	d.log.WithField("event", event.Name()).Debug("dispatching event")

	switch e := event.(type) {
	case events.Private:
		d.connMgr.SendToPlayer(e.RecipientID(), envelopeData)

	case events.RoomClosed:
		d.connMgr.SendToRoom(e.RoomID, envelopeData)
		d.connMgr.ClearRoom(e.RoomID)

	default:
		if roomID := events.ExtractRoomID(event); roomID != "" {
			d.connMgr.SendToRoom(roomID, envelopeData)
		}
	}
}

// PushRoomState sends every connected member their own view of the room
func (d *Dispatcher) PushRoomState(roomID string) {
	for _, playerID := range d.rooms.Members(roomID) {
		if d.connMgr.IsConnected(playerID) {
			d.PushPlayerState(roomID, playerID)
		}
	}
}

// PushPlayerState sends one player their view of the room
func (d *Dispatcher) PushPlayerState(roomID string, playerID string) {
	if data, ok := d.encodeState(roomID, playerID); ok {
		d.connMgr.SendToPlayer(playerID, data)
	}
}

// SendStateTo hands a freshly bound client its view of the room
func (d *Dispatcher) SendStateTo(client *connection.Client, roomID string, playerID string) {
	if data, ok := d.encodeState(roomID, playerID); ok {
		client.Deliver(data)
	}
}

func (d *Dispatcher) encodeState(roomID string, playerID string) ([]byte, bool) {
	state, err := d.rooms.Snapshot(roomID, playerID)
	if err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "player_id": playerID}).Warn("no state to push")
		return nil, false
	}

	data, err := Encode(RoomStateName, state)
	if err != nil {
		d.log.WithError(err).WithField("room_id", roomID).Error("failed to marshal room state")
		return nil, false
	}
	return data, true
}

// SendError reports a rejected command to the client that sent it
func (d *Dispatcher) SendError(client *connection.Client, command string, err error) {
	data, encErr := Encode(ErrorName, ErrorPayload{Command: command, Message: err.Error()})
	if encErr != nil {
		d.log.WithError(encErr).Error("failed to marshal error")
		return
	}
	client.Deliver(data)
}
