package hosted

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/pdf-qa/services/providers"
)

func TestNewGenerator(t *testing.T) {
	t.Run("unsupported backend", func(t *testing.T) {
		_, err := NewGenerator("bedrock", providers.ProviderConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported hosted backend")
	})

	t.Run("default model per backend", func(t *testing.T) {
		gen, err := NewGenerator(" Anthropic ", providers.ProviderConfig{APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, "anthropic", gen.Name())
		assert.Equal(t, "claude-3-5-haiku-latest", gen.Model())
	})

	t.Run("explicit model wins", func(t *testing.T) {
		gen, err := NewGenerator("openrouter", providers.ProviderConfig{Model: "mistralai/mistral-7b-instruct"})
		require.NoError(t, err)
		assert.Equal(t, "mistralai/mistral-7b-instruct", gen.Model())
	})
}

func TestGenerator_GenerateBeforeInit(t *testing.T) {
	gen, err := NewGenerator("compatible", providers.ProviderConfig{})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "prompt", providers.DefaultGenerationParams())
	provErr, ok := providers.GetProviderError(err)
	require.True(t, ok)
	assert.Equal(t, "NOT_INITIALIZED", provErr.Code)
}
