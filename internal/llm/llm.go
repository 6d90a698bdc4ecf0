package llm

import (
	"context"
	"fmt"
)

// Kind is the closed set of supported model back ends.
type Kind string

const (
	KindAzure  Kind = "azure"
	KindLocal  Kind = "local"
	KindOllama Kind = "ollama"
)

// ConfigurationError reports an unusable provider configuration. It is a
// setup problem for the operator, never retried and never defaulted away.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("llm: missing configuration: %s", e.Field)
	}
	return fmt.Sprintf("llm: invalid %s: %q", e.Field, e.Value)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Client is a handle bound to one provider. Construction does no network
// I/O; the first call happens at completion time. Transport errors from
// Complete propagate to the caller unwrapped.
type Client interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
	Model() string
}

// Config carries the provider fields read from the environment at startup.
type Config struct {
	Type            string
	AzureAPIKey     string
	AzureEndpoint   string
	AzureVersion    string
	AzureDeployment string
	LocalEndpoint   string
	LocalModel      string
	OllamaEndpoint  string
}

// NewClient resolves the configured provider kind to a ready-to-use client.
// An unrecognized kind fails with a ConfigurationError naming the value.
func NewClient(cfg Config) (Client, error) {
	switch Kind(cfg.Type) {
	case KindAzure:
		return newAzureClient(cfg)
	case KindLocal:
		if cfg.LocalEndpoint == "" {
			return nil, &ConfigurationError{Field: "LOCAL_LLM_ENDPOINT"}
		}
		return newOpenAIClient(cfg.LocalEndpoint, cfg.LocalModel), nil
	case KindOllama:
		if cfg.OllamaEndpoint == "" {
			return nil, &ConfigurationError{Field: "OLLAMA_HOST"}
		}
		return newOpenAIClient(cfg.OllamaEndpoint, cfg.LocalModel), nil
	default:
		return nil, &ConfigurationError{Field: "LLM_TYPE", Value: cfg.Type}
	}
}
