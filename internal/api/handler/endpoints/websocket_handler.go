package endpoints

import (
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"studio"
	"studio/internal/api/handler/middleware"
	"studio/internal/api/handler/response"
	"studio/internal/api/service"
	ws "studio/internal/api/websocket"
	"studio/pkg"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, you should validate the origin
		return true
	},
}

type websocketHandler struct {
	hub         *ws.Hub
	processor   *ws.MessageProcessor
	chatService *service.ChatService
	logger      zerolog.Logger
	config      studio.AppConfig
}

func newWebSocketHandler(hub *ws.Hub, processor *ws.MessageProcessor, chatService *service.ChatService) *websocketHandler {
	return &websocketHandler{
		hub:         hub,
		processor:   processor,
		chatService: chatService,
		logger:      studio.Logger,
		config:      studio.GetConfig(),
	}
}

// WebSocketHandler sets up WebSocket routes
func WebSocketHandler(router *graceful.Graceful, hub *ws.Hub, processor *ws.MessageProcessor, chatService *service.ChatService) {
	h := newWebSocketHandler(hub, processor, chatService)

	// WebSocket endpoint - requires authentication
	wsRoutes := router.Group("/api/v1/ws")
	wsRoutes.Use(middleware.AuthMiddleware(h.config))
	{
		wsRoutes.GET("/sessions/:id", h.handleWebSocket)
		wsRoutes.GET("/sessions/:id/users", h.getActiveUsers)
		wsRoutes.GET("/stats", h.getRoomStats)
	}
}

// handleWebSocket handles WebSocket connections for a specific chat session
func (slf *websocketHandler) handleWebSocket(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseID(c)
	if !ok {
		return
	}

	session, err := slf.chatService.GetSession(sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, response.APIError{Message: "Session not found"})
		return
	}
	if session.UserID != userID {
		c.JSON(http.StatusForbidden, response.APIError{Message: "You don't have access to this session"})
		return
	}

	username := "user"
	if email, exists := c.Get("userEmail"); exists {
		if s, ok := email.(string); ok && s != "" {
			username = s
		}
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}

	clientID := uuid.New().String()

	client := ws.NewClient(
		clientID,
		userID,
		username,
		sessionID,
		slf.hub,
		conn,
		slf.processor,
		slf.logger,
	)

	slf.hub.Register <- client

	slf.logger.Info().
		Str("clientId", clientID).
		Uint("userId", userID).
		Uint("sessionId", sessionID).
		Msg("WebSocket connection established")

	go client.WritePump()
	go client.ReadPump()
}

// getActiveUsers returns the list of active users in a session room
func (slf *websocketHandler) getActiveUsers(c *gin.Context) {
	sessionID, ok := parseID(c)
	if !ok {
		return
	}

	users := slf.hub.GetActiveUsersInRoom(sessionID)
	c.JSON(http.StatusOK, gin.H{
		"sessionId": sessionID,
		"users":     users,
	})
}

// getRoomStats returns statistics about all active rooms
func (slf *websocketHandler) getRoomStats(c *gin.Context) {
	stats := slf.hub.GetRoomStats()
	c.JSON(http.StatusOK, gin.H{
		"rooms": stats,
	})
}
