package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lazharichir/trumpout/domain"
	domainevents "github.com/lazharichir/trumpout/domain/events"
	"github.com/lazharichir/trumpout/server/events"
)

// CreateRoomRequest is the body of POST /api/rooms
type CreateRoomRequest struct {
	PlayerName string            `json:"playerName"`
	Config     domain.GameConfig `json:"config"`
}

// JoinRoomRequest is the body of POST /api/rooms/:id/join
type JoinRoomRequest struct {
	PlayerName string `json:"playerName"`
}

// LeaveRoomRequest is the body of POST /api/rooms/:id/leave
type LeaveRoomRequest struct {
	PlayerID string `json:"playerId"`
}

// SeatResponse tells a client which seat it holds
type SeatResponse struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// statusFor maps domain errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRoomFull), errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, domain.ErrRoomNotActive), errors.Is(err, domain.ErrGameOver):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyName), errors.Is(err, domain.ErrInvalidConfig):
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": len(s.lobby.GetRooms())})
}

func (s *Server) handleGetRooms(c *gin.Context) {
	c.JSON(http.StatusOK, s.lobby.GetRooms())
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	roomID, playerID, err := s.lobby.CreateRoom(req.Config, req.PlayerName)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SeatResponse{RoomID: roomID, PlayerID: playerID})
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	roomID := c.Param("id")
	playerID, err := s.lobby.Join(roomID, req.PlayerName)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, SeatResponse{RoomID: roomID, PlayerID: playerID})
}

func (s *Server) handleLeaveRoom(c *gin.Context) {
	var req LeaveRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PlayerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "playerId required"})
		return
	}

	if err := s.lobby.Leave(c.Param("id"), req.PlayerID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleResetRoom(c *gin.Context) {
	if err := s.lobby.ResetRoom(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleRoomState leaves the player's messages queued for their next websocket push
func (s *Server) handleRoomState(c *gin.Context) {
	state, err := s.lobby.View(c.Param("id"), c.Query("player"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) handleRoomEvents(c *gin.Context) {
	stored, err := s.lobby.RoomEvents(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	// private events carry hidden cards
	out := make([]events.EventEnvelope, 0, len(stored))
	for _, e := range stored {
		if _, private := e.(domainevents.Private); private {
			continue
		}
		payload, err := json.Marshal(e)
		if err != nil {
			abortWithError(c, err)
			return
		}
		out = append(out, events.EventEnvelope{Name: e.Name(), Payload: payload})
	}
	c.JSON(http.StatusOK, out)
}
