package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func azureConfig() Config {
	return Config{
		Type:            "azure",
		AzureAPIKey:     "secret",
		AzureEndpoint:   "https://example.openai.azure.com",
		AzureVersion:    "2024-02-01",
		AzureDeployment: "gpt-4o",
	}
}

func TestNewClient_UnknownType(t *testing.T) {
	for _, kind := range []string{"openai", "bedrock", "", "AZURE", "llocal"} {
		client, err := NewClient(Config{Type: kind, LocalEndpoint: "http://localhost:8080", OllamaEndpoint: "http://localhost:11434"})
		require.Error(t, err, "type %q must be rejected", kind)
		assert.Nil(t, client, "no partially-formed handle for type %q", kind)

		var confErr *ConfigurationError
		require.ErrorAs(t, err, &confErr)
		assert.Equal(t, "LLM_TYPE", confErr.Field)
		assert.Equal(t, kind, confErr.Value)
	}
}

func TestNewClient_Azure_MissingFields(t *testing.T) {
	for _, field := range []string{"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_VERSION", "AZURE_OPENAI_DEPLOYMENT_NAME"} {
		cfg := azureConfig()
		switch field {
		case "AZURE_OPENAI_API_KEY":
			cfg.AzureAPIKey = ""
		case "AZURE_OPENAI_ENDPOINT":
			cfg.AzureEndpoint = ""
		case "AZURE_OPENAI_API_VERSION":
			cfg.AzureVersion = ""
		case "AZURE_OPENAI_DEPLOYMENT_NAME":
			cfg.AzureDeployment = ""
		}

		client, err := NewClient(cfg)
		require.Error(t, err)
		assert.Nil(t, client)

		var confErr *ConfigurationError
		require.ErrorAs(t, err, &confErr)
		assert.Equal(t, field, confErr.Field)
	}
}

func TestNewClient_ValidKinds(t *testing.T) {
	client, err := NewClient(azureConfig())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", client.Model())

	client, err = NewClient(Config{Type: "local", LocalEndpoint: "http://localhost:8080", LocalModel: "mistral"})
	require.NoError(t, err)
	assert.Equal(t, "mistral", client.Model())

	client, err = NewClient(Config{Type: "ollama", OllamaEndpoint: "http://localhost:11434", LocalModel: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "llama3", client.Model())
}

func TestOpenAIClient_Complete(t *testing.T) {
	var gotPath string
	var gotPayload chatCompletionPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"result = 1 + 1"}}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{Type: "local", LocalEndpoint: server.URL, LocalModel: "mistral"})
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), ChatRequest{
		Messages:    []Message{{Role: "user", Content: "add one and one"}},
		Temperature: 0.2,
		MaxTokens:   256,
	})
	require.NoError(t, err)
	assert.Equal(t, "result = 1 + 1", text)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "mistral", gotPayload.Model)
	assert.Equal(t, 256, gotPayload.MaxTokens)
	require.Len(t, gotPayload.Messages, 1)
	assert.Equal(t, "user", gotPayload.Messages[0].Role)
}

func TestAzureClient_Complete(t *testing.T) {
	var gotPath, gotKey, gotVersion string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("api-key")
		gotVersion = r.URL.Query().Get("api-version")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer server.Close()

	cfg := azureConfig()
	cfg.AzureEndpoint = server.URL
	client, err := NewClient(cfg)
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "2024-02-01", gotVersion)
}

func TestOpenAIClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient(Config{Type: "local", LocalEndpoint: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=503")
}
