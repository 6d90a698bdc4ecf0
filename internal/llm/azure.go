package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// azureClient targets an Azure OpenAI deployment. Same wire contract as the
// OpenAI-compatible servers, but the route carries the deployment name and
// api-version, and the credential travels in the api-key header.
type azureClient struct {
	endpoint   string
	apiKey     string
	apiVersion string
	deployment string
	client     *http.Client
}

func newAzureClient(cfg Config) (*azureClient, error) {
	if cfg.AzureEndpoint == "" {
		return nil, &ConfigurationError{Field: "AZURE_OPENAI_ENDPOINT"}
	}
	if cfg.AzureAPIKey == "" {
		return nil, &ConfigurationError{Field: "AZURE_OPENAI_API_KEY"}
	}
	if cfg.AzureVersion == "" {
		return nil, &ConfigurationError{Field: "AZURE_OPENAI_API_VERSION"}
	}
	if cfg.AzureDeployment == "" {
		return nil, &ConfigurationError{Field: "AZURE_OPENAI_DEPLOYMENT_NAME"}
	}
	return &azureClient{
		endpoint:   strings.TrimRight(strings.TrimSpace(cfg.AzureEndpoint), "/"),
		apiKey:     cfg.AzureAPIKey,
		apiVersion: cfg.AzureVersion,
		deployment: cfg.AzureDeployment,
		client:     &http.Client{},
	}, nil
}

func (slf *azureClient) Model() string {
	return slf.deployment
}

func (slf *azureClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	payload := chatCompletionPayload{
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		slf.endpoint, slf.deployment, slf.apiVersion)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", slf.apiKey)

	resp, err := slf.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return decodeChatCompletion(resp)
}
