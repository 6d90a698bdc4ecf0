package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"studio"
	"studio/internal/api/models"
	"studio/internal/api/repo"
	"studio/internal/llm"
	"studio/internal/sandbox"
)

type ChatService struct {
	chatRepo       *repo.ChatRepository
	datasetService *DatasetService
	llmClient      llm.Client
	gate           *sandbox.Gate
	events         *EventPublisher
	logger         zerolog.Logger
}

func NewChatService(datasetService *DatasetService, llmClient llm.Client, gate *sandbox.Gate, events *EventPublisher) *ChatService {
	return &ChatService{
		chatRepo:       repo.NewChatRepository(),
		datasetService: datasetService,
		llmClient:      llmClient,
		gate:           gate,
		events:         events,
		logger:         studio.Logger,
	}
}

func (slf *ChatService) CreateSession(userID uint, datasetID *uint, title string) (*models.ChatSession, error) {
	if title == "" {
		title = "New analysis"
	}
	session := models.ChatSession{UserID: userID, DatasetID: datasetID, Title: title}
	if err := slf.chatRepo.CreateSession(&session); err != nil {
		slf.logger.Error().Err(err).Msg("Error creating chat session")
		return nil, err
	}
	return &session, nil
}

func (slf *ChatService) GetSession(id uint) (*models.ChatSession, error) {
	session, err := slf.chatRepo.FindSessionByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("session not found")
		}
		return nil, err
	}
	return &session, nil
}

func (slf *ChatService) ListSessions(userID uint) ([]models.ChatSession, error) {
	return slf.chatRepo.FindSessionsByUser(userID)
}

func (slf *ChatService) DeleteSession(id uint) error {
	return slf.chatRepo.DeleteSession(id)
}

// Ask runs one analysis turn: persist the user message, ask the model, and
// if the reply carries code, run it through the safety gate and persist the
// artifact or the failure. Gate failures are an answer, not an error.
func (slf *ChatService) Ask(ctx context.Context, sessionID uint, prompt string) (*models.ChatMessage, error) {
	session, err := slf.chatRepo.FindSessionByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("session not found")
		}
		return nil, err
	}

	userMsg := models.ChatMessage{SessionID: sessionID, Role: models.ChatRoleUser, Content: prompt}
	if err := slf.chatRepo.AppendMessage(&userMsg); err != nil {
		return nil, err
	}

	messages, err := slf.buildPrompt(ctx, &session, prompt)
	if err != nil {
		return nil, err
	}

	reply, err := slf.llmClient.Complete(ctx, llm.ChatRequest{Messages: messages, Temperature: 0.2})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	assistant := models.ChatMessage{SessionID: sessionID, Role: models.ChatRoleAssistant, Content: reply}
	if HasCodeFence(reply) {
		assistant.Code = ExtractCode(reply)
		slf.runCode(ctx, &session, &assistant)
	}

	if err := slf.chatRepo.AppendMessage(&assistant); err != nil {
		return nil, err
	}
	_ = slf.chatRepo.TouchSession(sessionID)

	slf.events.Publish(SubjectAnalysisCompleted, AnalysisCompletedEvent{
		SessionID:   sessionID,
		MessageID:   assistant.ID,
		Kind:        assistant.Artifact.Kind,
		FailureKind: assistant.FailureKind,
	})
	return &assistant, nil
}

func (slf *ChatService) buildPrompt(ctx context.Context, session *models.ChatSession, prompt string) ([]llm.Message, error) {
	system := analysisSystemPrompt()
	if session.DatasetID != nil {
		dataset, err := slf.datasetService.FindByID(*session.DatasetID)
		if err != nil {
			return nil, err
		}
		system += "\n\n" + datasetPromptSection(dataset)
	}

	messages := []llm.Message{{Role: "system", Content: system}}
	limit := studio.GetConfig().LLMConfig.MessageLimit
	history, err := slf.chatRepo.RecentMessages(session.ID, limit)
	if err != nil {
		return nil, err
	}
	for _, msg := range history {
		messages = append(messages, llm.Message{Role: string(msg.Role), Content: msg.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: prompt})
	return messages, nil
}

// runCode executes the assistant's code under the gate and fills either the
// artifact or the failure kind on the message.
func (slf *ChatService) runCode(ctx context.Context, session *models.ChatSession, msg *models.ChatMessage) {
	bindings := map[string]any{}
	if session.DatasetID != nil {
		df, err := slf.datasetService.Frame(ctx, *session.DatasetID)
		if err != nil {
			slf.logger.Error().Err(err).Uint("datasetId", *session.DatasetID).Msg("Error loading dataset frame")
			msg.FailureKind = models.FailureRuntimeFault
			return
		}
		bindings["df"] = df
	}

	artifact, err := slf.gate.SanitizeAndRun(ctx, sandbox.CodeUnit{
		ID:       uuid.NewString(),
		Source:   msg.Code,
		Bindings: bindings,
	})
	if err != nil {
		msg.FailureKind = failureKind(err)
		slf.logger.Info().Uint("sessionId", session.ID).Str("failure", msg.FailureKind).Msg("Analysis code did not produce an artifact")
		return
	}

	payload, err := encodeArtifact(artifact)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error encoding artifact")
		msg.FailureKind = models.FailureRuntimeFault
		return
	}
	msg.Artifact = payload
}

func failureKind(err error) string {
	var se *sandbox.SanitizationError
	var te *sandbox.ExecutionTimeoutError
	var ee *sandbox.EmptyResultError
	switch {
	case errors.As(err, &se):
		return models.FailureSanitization
	case errors.As(err, &te):
		return models.FailureTimeout
	case errors.As(err, &ee):
		return models.FailureEmptyResult
	default:
		return models.FailureRuntimeFault
	}
}

func encodeArtifact(artifact *sandbox.Artifact) (models.ArtifactPayload, error) {
	data, err := json.Marshal(artifact.Value)
	if err != nil {
		return models.ArtifactPayload{}, err
	}
	return models.ArtifactPayload{
		Kind:   artifact.Kind,
		Data:   data,
		Stdout: artifact.Stdout,
	}, nil
}

func analysisSystemPrompt() string {
	return strings.TrimSpace(`
You are a data analyst. When the user asks for a computation, chart or table,
reply with a short explanation and exactly one fenced code block.

The code runs in a restricted interpreter:
- the dataset is bound to the variable df
- assign your answer to the variable result
- available modules: charts (line, bar, scatter, pie, choropleth), frames
  (head, columns, column, filter_eq, group_sum, sort_by, to_csv), stats
  (mean, median, stdev, count), math
- builtins: len, range, str, int, float, abs, round, min, max, sum, sorted, print
- no file, network or system access of any kind

For plain questions that need no computation, answer in prose without code.`)
}

func datasetPromptSection(dataset *models.Dataset) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The active dataset is %q (%d rows). Columns:\n", dataset.Name, dataset.RowCount)
	for _, col := range dataset.Schema.Columns {
		fmt.Fprintf(&sb, "- %s (%s)\n", col.Name, col.DataType)
	}
	return sb.String()
}
