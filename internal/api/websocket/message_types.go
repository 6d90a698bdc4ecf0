package websocket

import (
	"time"
)

// Message is the base message structure
// Data field uses 'any' to allow different types through channels
type Message struct {
	Type      MessageType `json:"type"`
	SessionID uint        `json:"sessionId,omitempty"`
	UserID    uint        `json:"userId"`
	Username  string      `json:"username"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Analysis operations
	MessageTypeAsk       MessageType = "ask"
	MessageTypeAssistant MessageType = "assistant_message"

	// Studio events pushed to sessions
	MessageTypeAnalysisCompleted MessageType = "analysis_completed"
	MessageTypeDatasetIngested   MessageType = "dataset_ingested"

	// User interactions
	MessageTypeChat      MessageType = "chat"
	MessageTypeUserJoin  MessageType = "user_join"
	MessageTypeUserLeave MessageType = "user_leave"

	// System messages
	MessageTypeError MessageType = "error"
	MessageTypePing  MessageType = "ping"
	MessageTypePong  MessageType = "pong"
)
