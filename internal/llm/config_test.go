package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderOpenAI, config.Provider)
	assert.Equal(t, "gpt-4o-mini", config.GetModel(TierStandard))
	assert.InDelta(t, 0.2, config.Temperature, 1e-6)
}

func TestDefaultGeminiConfig(t *testing.T) {
	config := DefaultGeminiConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", config.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "fallback-model",
		},
	}

	// Unknown tier should fallback to TierStandard, then TierLite
	assert.Equal(t, "fallback-model", config.GetModel("unknown"))
}

func TestGetModel_EmptyConfig(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models:   map[ModelTier]string{},
	}

	assert.Equal(t, "", config.GetModel(TierAdvanced))
}

func TestWithModel(t *testing.T) {
	config := DefaultOpenAIConfig()
	newConfig := config.WithModel(TierStandard, "gpt-4.1-mini")

	// Original should be unchanged
	assert.Equal(t, "gpt-4o-mini", config.GetModel(TierStandard))
	assert.Equal(t, "gpt-4.1-mini", newConfig.GetModel(TierStandard))
	assert.Equal(t, config.Temperature, newConfig.Temperature)
}

func TestWithSystemInstruction(t *testing.T) {
	config := DefaultOpenAIConfig()
	newConfig := config.WithSystemInstruction("respond with JSON")

	assert.Empty(t, config.SystemInstruction)
	assert.Equal(t, "respond with JSON", newConfig.SystemInstruction)
}

func TestNewClient_Providers(t *testing.T) {
	ctx := context.Background()

	client, err := NewClient(ctx, DefaultOpenAIConfig(), "sk-test")
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, client)

	_, err = NewClient(ctx, &Config{Provider: "anthropic"}, "key")
	assert.ErrorContains(t, err, "unsupported LLM provider")

	_, err = NewClient(ctx, DefaultOpenAIConfig(), "")
	assert.ErrorContains(t, err, "API key is required")
}
