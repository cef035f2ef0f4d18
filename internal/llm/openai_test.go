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

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultOpenAIConfig()
	config.BaseURL = server.URL
	config.SystemInstruction = "pure JSON only"

	client, err := NewOpenAIClient(config, "sk-test")
	require.NoError(t, err)
	return client
}

func TestOpenAIClient_GenerateJSON(t *testing.T) {
	var got chatRequest
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"name\":\"福沢諭吉\"}"}}]}`))
	})

	out, err := client.GenerateJSON(context.Background(), "propose", TierStandard)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"福沢諭吉"}`, out)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "propose", got.Messages[1].Content)
}

func TestOpenAIClient_EmptyContent(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":null}}]}`))
	})

	out, err := client.GenerateJSON(context.Background(), "propose", TierStandard)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOpenAIClient_HTTPError(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})

	_, err := client.GenerateJSON(context.Background(), "hi", TierStandard)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "rate limited")
}

func TestOpenAIClient_NoModel(t *testing.T) {
	client, err := NewOpenAIClient(&Config{Provider: ProviderOpenAI}, "sk-test")
	require.NoError(t, err)

	_, err = client.GenerateJSON(context.Background(), "p", TierStandard)
	assert.ErrorContains(t, err, "no model configured")
}
