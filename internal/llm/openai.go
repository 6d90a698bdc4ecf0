package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// openAIClient talks to any server exposing the OpenAI-compatible chat
// completion contract: local llama.cpp-style servers and Ollama alike.
// No credential is required; the bearer token is a placeholder.
type openAIClient struct {
	baseURL string
	model   string
	client  *http.Client
}

func newOpenAIClient(baseURL string, model string) *openAIClient {
	return &openAIClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		model:   model,
		client:  &http.Client{},
	}
}

func (slf *openAIClient) Model() string {
	return slf.model
}

type chatCompletionPayload struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (slf *openAIClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	payload := chatCompletionPayload{
		Model:       slf.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, slf.baseURL+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer not-needed")

	resp, err := slf.client.Do(httpReq)
	if err != nil {
		// Transport errors are the caller's to handle.
		return "", err
	}
	defer resp.Body.Close()

	return decodeChatCompletion(resp)
}

func decodeChatCompletion(resp *http.Response) (string, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("chat completion failed status=%d body=%s", resp.StatusCode, string(body))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
