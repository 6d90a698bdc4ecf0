package websocket

import (
	errors2 "errors"
	"time"
)

// AskPayload carries a prompt for one analysis turn.
type AskPayload struct {
	Prompt string `json:"prompt"`
}

// UserInfo represents user information in the room
type UserInfo struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Error         error  `json:"error"`
	CustomMessage string `json:"customMessage"`
}

// NewErrorMessage creates a new error message
func NewErrorMessage(sessionID uint, userID uint, username string, errorText string, errors ...error) Message {
	return Message{
		Type:      MessageTypeError,
		SessionID: sessionID,
		UserID:    userID,
		Username:  username,
		Timestamp: time.Now(),
		Data: ErrorMessage{
			Error:         errors2.Join(errors...),
			CustomMessage: errorText,
		},
	}
}

// NewAnalysisCompletedMessage wraps an analysis outcome for a session room.
func NewAnalysisCompletedMessage(sessionID uint, data any) Message {
	return Message{
		Type:      MessageTypeAnalysisCompleted,
		SessionID: sessionID,
		UserID:    0, // System message
		Username:  "system",
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewUserJoinMessage creates a new user join message
func NewUserJoinMessage(sessionID uint, userID uint, username string, userInfo UserInfo) Message {
	return Message{
		Type:      MessageTypeUserJoin,
		SessionID: sessionID,
		UserID:    userID,
		Username:  username,
		Timestamp: time.Now(),
		Data:      userInfo,
	}
}

// NewUserLeaveMessage creates a new user leave message
func NewUserLeaveMessage(sessionID uint, userID uint, username string, userInfo UserInfo) Message {
	return Message{
		Type:      MessageTypeUserLeave,
		SessionID: sessionID,
		UserID:    userID,
		Username:  username,
		Timestamp: time.Now(),
		Data:      userInfo,
	}
}
