package endpoints

import (
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"studio"
	"studio/internal/api/handler/middleware"
	"studio/internal/api/handler/request"
	"studio/internal/api/handler/response"
	"studio/internal/api/service"
	"studio/pkg"
)

type chatHandler struct {
	chatService *service.ChatService
	logger      zerolog.Logger
	config      studio.AppConfig
}

func newChatHandler(chatService *service.ChatService) *chatHandler {
	return &chatHandler{
		chatService: chatService,
		logger:      studio.Logger,
		config:      studio.GetConfig(),
	}
}

func ChatHandler(router *graceful.Graceful, chatService *service.ChatService) {
	h := newChatHandler(chatService)

	routes := router.Group("/api/v1/chat")
	routes.Use(middleware.AuthMiddleware(h.config))
	{
		routes.GET("/sessions", h.listSessions)
		routes.POST("/sessions", h.createSession)
		routes.GET("/sessions/:id", h.getSession)
		routes.DELETE("/sessions/:id", h.deleteSession)
		routes.POST("/sessions/:id/ask", h.ask)
	}
}

// checkSessionAccess loads the session and verifies ownership.
func (slf *chatHandler) checkSessionAccess(c *gin.Context, sessionID, userID uint) bool {
	session, err := slf.chatService.GetSession(sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, response.APIError{Message: "Session not found"})
		return false
	}
	if session.UserID != userID {
		c.JSON(http.StatusForbidden, response.APIError{Message: "You don't have access to this session"})
		return false
	}
	return true
}

func (slf *chatHandler) listSessions(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}

	sessions, err := slf.chatService.ListSessions(userID)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to list chat sessions")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}

func (slf *chatHandler) createSession(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}

	var req request.CreateChatSession
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	session, err := slf.chatService.CreateSession(userID, req.DatasetID, req.Title)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to create chat session")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (slf *chatHandler) getSession(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !slf.checkSessionAccess(c, id, userID) {
		return
	}

	session, err := slf.chatService.GetSession(id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.APIError{Message: "Session not found"})
		return
	}

	c.JSON(http.StatusOK, session)
}

func (slf *chatHandler) deleteSession(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !slf.checkSessionAccess(c, id, userID) {
		return
	}

	if err := slf.chatService.DeleteSession(id); err != nil {
		slf.logger.Error().Err(err).Uint("id", id).Msg("Failed to delete chat session")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to delete session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

// ask runs one analysis turn and returns the assistant message with its
// artifact or failure kind.
func (slf *chatHandler) ask(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !slf.checkSessionAccess(c, id, userID) {
		return
	}

	var req request.AskChat
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	message, err := slf.chatService.Ask(c.Request.Context(), id, req.Prompt)
	if err != nil {
		slf.logger.Error().Err(err).Uint("sessionId", id).Msg("Analysis turn failed")
		c.JSON(http.StatusBadGateway, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, message)
}
