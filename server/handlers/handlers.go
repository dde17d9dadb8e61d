package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lazharichir/trumpout/domain"
	"github.com/lazharichir/trumpout/domain/commands"
	"github.com/lazharichir/trumpout/server/connection"
	"github.com/lazharichir/trumpout/server/events"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownCommand = errors.New("unknown command type")
	ErrNotSeated      = errors.New("join a room first")
	ErrWrongRoom      = errors.New("not seated in that room")
)

// CommandRouter routes incoming commands to the appropriate handler
type CommandRouter struct {
	lobby      *domain.Lobby
	connMgr    *connection.Manager
	dispatcher *events.Dispatcher
	log        *logrus.Entry
}

// NewCommandRouter creates a new command router
func NewCommandRouter(lobby *domain.Lobby, connMgr *connection.Manager, dispatcher *events.Dispatcher, log *logrus.Entry) *CommandRouter {
	return &CommandRouter{
		lobby:      lobby,
		connMgr:    connMgr,
		dispatcher: dispatcher,
		log:        log,
	}
}

// HandleCommand processes an incoming command message. A rejected command is
// reported to the sending client only.
func (r *CommandRouter) HandleCommand(client *connection.Client, message []byte) error {
	var baseCmd struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(message, &baseCmd); err != nil {
		err = fmt.Errorf("malformed command: %w", err)
		r.dispatcher.SendError(client, "", err)
		return err
	}

	err := r.route(client, baseCmd.Name, message)
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"client_id": client.ID,
			"command":   baseCmd.Name,
		}).Info("command rejected")
		r.dispatcher.SendError(client, baseCmd.Name, err)
	}
	return err
}

func (r *CommandRouter) route(client *connection.Client, name string, message []byte) error {
	switch name {
	case commands.CreateRoom{}.Name():
		var cmd commands.CreateRoom
		if err := json.Unmarshal(message, &cmd); err != nil {
			return err
		}
		return r.handleCreateRoom(client, cmd)

	case commands.JoinRoom{}.Name():
		var cmd commands.JoinRoom
		if err := json.Unmarshal(message, &cmd); err != nil {
			return err
		}
		return r.handleJoinRoom(client, cmd)

	case commands.LeaveRoom{}.Name():
		var cmd commands.LeaveRoom
		if err := json.Unmarshal(message, &cmd); err != nil {
			return err
		}
		return r.handleLeaveRoom(client, cmd)

	case commands.Raise{}.Name():
		var cmd commands.Raise
		if err := json.Unmarshal(message, &cmd); err != nil {
			return err
		}
		roomID, playerID, err := r.seat(client, cmd.RoomID)
		if err != nil {
			return err
		}
		return r.lobby.Raise(roomID, playerID, cmd.CardIndices)

	case commands.Fold{}.Name():
		var cmd commands.Fold
		if err := json.Unmarshal(message, &cmd); err != nil {
			return err
		}
		roomID, playerID, err := r.seat(client, cmd.RoomID)
		if err != nil {
			return err
		}
		return r.lobby.Fold(roomID, playerID)

	case commands.MulliganDiscard{}.Name():
		var cmd commands.MulliganDiscard
		if err := json.Unmarshal(message, &cmd); err != nil {
			return err
		}
		roomID, playerID, err := r.seat(client, cmd.RoomID)
		if err != nil {
			return err
		}
		return r.lobby.MulliganDiscard(roomID, playerID, cmd.CardIndices)

	case commands.JackSelectTarget{}.Name():
		var cmd commands.JackSelectTarget
		if err := json.Unmarshal(message, &cmd); err != nil {
			return err
		}
		roomID, playerID, err := r.seat(client, cmd.RoomID)
		if err != nil {
			return err
		}
		return r.lobby.SelectJackTarget(roomID, playerID, cmd.TargetName)

	case commands.JackDiscard{}.Name():
		var cmd commands.JackDiscard
		if err := json.Unmarshal(message, &cmd); err != nil {
			return err
		}
		roomID, playerID, err := r.seat(client, cmd.RoomID)
		if err != nil {
			return err
		}
		return r.lobby.JackDiscard(roomID, playerID, cmd.CardIndices)

	case commands.ResetRoom{}.Name():
		var cmd commands.ResetRoom
		if err := json.Unmarshal(message, &cmd); err != nil {
			return err
		}
		roomID, _, err := r.seat(client, cmd.RoomID)
		if err != nil {
			return err
		}
		return r.lobby.ResetRoom(roomID)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}

// seat resolves the room and player a game command acts for. The room in the
// command is optional but must match the client's binding when given.
func (r *CommandRouter) seat(client *connection.Client, roomID string) (string, string, error) {
	boundRoom, playerID := r.connMgr.Binding(client)
	if boundRoom == "" || playerID == "" {
		return "", "", ErrNotSeated
	}
	if roomID != "" && roomID != boundRoom {
		return "", "", ErrWrongRoom
	}
	return boundRoom, playerID, nil
}

func (r *CommandRouter) handleCreateRoom(client *connection.Client, cmd commands.CreateRoom) error {
	roomID, playerID, err := r.lobby.CreateRoom(cmd.Config, cmd.PlayerName)
	if err != nil {
		return err
	}

	r.connMgr.Bind(client, roomID, playerID)
	r.dispatcher.SendStateTo(client, roomID, playerID)
	return nil
}

func (r *CommandRouter) handleJoinRoom(client *connection.Client, cmd commands.JoinRoom) error {
	playerID, err := r.lobby.Join(cmd.RoomID, cmd.PlayerName)
	if err != nil {
		return err
	}

	r.connMgr.Bind(client, cmd.RoomID, playerID)
	r.dispatcher.SendStateTo(client, cmd.RoomID, playerID)
	return nil
}

func (r *CommandRouter) handleLeaveRoom(client *connection.Client, cmd commands.LeaveRoom) error {
	roomID, playerID, err := r.seat(client, cmd.RoomID)
	if err != nil {
		return err
	}

	if err := r.lobby.Leave(roomID, playerID); err != nil {
		return err
	}

	r.connMgr.Unbind(client)
	return nil
}
