package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lazharichir/trumpout/config"
	"github.com/lazharichir/trumpout/domain"
	"github.com/lazharichir/trumpout/server/connection"
	"github.com/lazharichir/trumpout/server/events"
	"github.com/lazharichir/trumpout/server/handlers"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Server represents the HTTP and WebSocket server
type Server struct {
	lobby      *domain.Lobby
	connMgr    *connection.Manager
	cmdRouter  *handlers.CommandRouter
	dispatcher *events.Dispatcher
	router     *gin.Engine
	upgrader   websocket.Upgrader
	origins    []string
	log        *logrus.Entry
}

// NewServer wires the lobby, the connection manager and the routes
func NewServer(cfg config.Config, logger *logrus.Logger) *Server {
	log := logrus.NewEntry(logger)

	lobby := domain.NewLobby(cfg.Game, log.WithField("component", "lobby"))
	connMgr := connection.NewManager()

	dispatcher := events.NewDispatcher(lobby, connMgr, log.WithField("component", "dispatcher"))
	cmdRouter := handlers.NewCommandRouter(lobby, connMgr, dispatcher, log.WithField("component", "commands"))

	// Register dispatcher as event handler for the lobby
	lobby.AddEventHandler(dispatcher.HandleEvent)

	s := &Server{
		lobby:      lobby,
		connMgr:    connMgr,
		cmdRouter:  cmdRouter,
		dispatcher: dispatcher,
		origins:    cfg.AllowedOrigins,
		log:        log,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return s.originAllowed(r.Header.Get("Origin"))
		},
	}
	s.router = s.routes()

	return s
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the connection manager and serves on the given port until ctx is done
func (s *Server) Start(ctx context.Context, port string) error {
	go s.connMgr.Start(ctx)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Warn("shutdown")
		}
	}()

	s.log.WithField("port", port).Info("starting server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.corsMiddleware())

	r.GET("/ws", s.handleWebSocket)
	r.GET("/health", s.handleHealth)

	api := r.Group("/api/rooms")
	api.GET("", s.handleGetRooms)
	api.POST("", s.handleCreateRoom)
	api.POST("/:id/join", s.handleJoinRoom)
	api.POST("/:id/leave", s.handleLeaveRoom)
	api.POST("/:id/reset", s.handleResetRoom)
	api.GET("/:id/state", s.handleRoomState)
	api.GET("/:id/events", s.handleRoomEvents)

	return r
}

func (s *Server) originAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range s.origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// corsMiddleware adds CORS headers to all responses
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && s.originAllowed(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}

// handleWebSocket upgrades the connection. A client reconnecting to a seat
// passes ?room=<id>&player=<id> and gets its state right away.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("error upgrading to websocket")
		return
	}

	client := &connection.Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, 256),
	}
	log := s.log.WithFields(logrus.Fields{"client_id": client.ID, "remote": c.Request.RemoteAddr})
	log.Info("client connected")

	if roomID, playerID := c.Query("room"), c.Query("player"); roomID != "" && playerID != "" {
		if s.lobby.IsSeated(roomID, playerID) {
			s.connMgr.Bind(client, roomID, playerID)
			s.dispatcher.SendStateTo(client, roomID, playerID)
		} else {
			log.WithFields(logrus.Fields{"room_id": roomID, "player_id": playerID}).Info("ignoring stale seat")
		}
	}

	// Register with connection manager
	s.connMgr.Register <- client

	go s.readPump(client)
	go s.writePump(client)
}

// readPump reads messages from the WebSocket connection
func (s *Server) readPump(client *connection.Client) {
	defer func() {
		s.connMgr.Unregister <- client
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.WithError(err).WithField("client_id", client.ID).Warn("unexpected close")
			}
			break
		}

		// errors already went back to the client as an ERROR envelope
		_ = s.cmdRouter.HandleCommand(client, message)
	}
}

// writePump sends messages to the WebSocket connection and keeps it alive with pings
func (s *Server) writePump(client *connection.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.log.WithError(err).WithField("client_id", client.ID).Warn("error writing message")
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
