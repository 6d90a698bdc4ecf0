package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/api/service"
)

// askTimeout bounds one analysis turn, model call and sandbox run included.
const askTimeout = 2 * time.Minute

// MessageProcessor handles WebSocket messages that run analysis turns
type MessageProcessor struct {
	chatService *service.ChatService
	logger      zerolog.Logger
}

// NewMessageProcessor creates a new message processor
func NewMessageProcessor(chatService *service.ChatService, logger zerolog.Logger) *MessageProcessor {
	return &MessageProcessor{
		chatService: chatService,
		logger:      logger,
	}
}

// ProcessMessage processes a message and performs necessary service calls
// Returns the updated message to broadcast, or error if processing failed
func (p *MessageProcessor) ProcessMessage(msg *Message) (*Message, error) {
	switch msg.Type {
	case MessageTypeAsk:
		return p.processAsk(msg)

	default:
		// Other message types don't require processing (chat, presence, etc.)
		return msg, nil
	}
}

func (p *MessageProcessor) validateData(msg *Message, out any) error {
	dataBytes, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal message data: %w", err)
	}

	if err := json.Unmarshal(dataBytes, out); err != nil {
		return fmt.Errorf("invalid message data: %w", err)
	}

	return nil
}

// processAsk runs one analysis turn and returns the assistant message for
// broadcasting to the session room.
func (p *MessageProcessor) processAsk(msg *Message) (*Message, error) {
	var payload AskPayload
	if err := p.validateData(msg, &payload); err != nil {
		return nil, err
	}
	if payload.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	assistant, err := p.chatService.Ask(ctx, msg.SessionID, payload.Prompt)
	if err != nil {
		return nil, fmt.Errorf("analysis turn failed: %w", err)
	}

	p.logger.Info().
		Uint("sessionId", msg.SessionID).
		Uint("userId", msg.UserID).
		Msg("Analysis turn completed via WebSocket")

	return &Message{
		Type:      MessageTypeAssistant,
		SessionID: msg.SessionID,
		UserID:    msg.UserID,
		Username:  msg.Username,
		Timestamp: time.Now(),
		Data:      assistant,
	}, nil
}
