// Package hosted adapts hosted chat models (Anthropic, OpenRouter and
// OpenAI-compatible endpoints) to providers.Generator through fantasy.
package hosted

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/openai"
	"charm.land/fantasy/providers/openrouter"
	"github.com/upb/pdf-qa/services/providers"
)

var defaultModels = map[string]string{
	"anthropic":  "claude-3-5-haiku-latest",
	"openrouter": "meta-llama/llama-3.2-3b-instruct",
	"compatible": "gpt-4o-mini",
}

// Generator implements providers.Generator on top of a fantasy language model
type Generator struct {
	backend string
	config  providers.ProviderConfig

	mu    sync.Mutex
	model fantasy.LanguageModel
}

// NewGenerator validates the backend name and returns an unloaded generator.
// The language model itself is built in Init.
func NewGenerator(backend string, cfg providers.ProviderConfig) (*Generator, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	def, ok := defaultModels[backend]
	if !ok {
		return nil, fmt.Errorf("unsupported hosted backend: %s", backend)
	}
	if cfg.Model == "" {
		cfg.Model = def
	}
	return &Generator{backend: backend, config: cfg}, nil
}

// Name returns the backend name
func (g *Generator) Name() string {
	return g.backend
}

// Model returns the configured model
func (g *Generator) Model() string {
	return g.config.Model
}

// Init builds the provider client and resolves the language model.
func (g *Generator) Init(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.model != nil {
		return nil
	}

	provider, err := g.newProvider()
	if err != nil {
		return providers.NewProviderError(g.backend, "PROVIDER_ERROR", "create provider", 0, err)
	}

	model, err := provider.LanguageModel(ctx, g.config.Model)
	if err != nil {
		return providers.NewProviderError(g.backend, "MODEL_UNAVAILABLE", "resolve language model", 0, err)
	}

	g.model = model
	return nil
}

// Generate runs a single completion with the fixed sampling controls
func (g *Generator) Generate(ctx context.Context, prompt string, params providers.GenerationParams) (string, error) {
	g.mu.Lock()
	model := g.model
	g.mu.Unlock()

	if model == nil {
		return "", providers.NewProviderError(g.backend, "NOT_INITIALIZED", "generator not initialized", 0, nil)
	}

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	temperature := params.Temperature
	topP := params.TopP
	topK := int64(params.TopK)

	resp, err := model.Generate(ctx, fantasy.Call{
		Prompt:      fantasy.Prompt{fantasy.NewUserMessage(prompt)},
		Temperature: &temperature,
		TopP:        &topP,
		TopK:        &topK,
	})
	if err != nil {
		return "", providers.NewProviderError(g.backend, "API_ERROR", "generate", 0, err)
	}

	return resp.Content.Text(), nil
}

func (g *Generator) newProvider() (fantasy.Provider, error) {
	switch g.backend {
	case "anthropic":
		opts := []anthropic.Option{anthropic.WithAPIKey(g.config.APIKey)}
		if g.config.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(g.config.BaseURL))
		}
		return anthropic.New(opts...)

	case "openrouter":
		return openrouter.New(openrouter.WithAPIKey(g.config.APIKey))

	default:
		opts := []openai.Option{openai.WithAPIKey(g.config.APIKey)}
		if g.config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(g.config.BaseURL))
		}
		return openai.New(opts...)
	}
}
