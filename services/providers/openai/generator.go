package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/upb/pdf-qa/services/providers"
)

// Generator implements providers.Generator with chat completions
type Generator struct {
	client openai.Client
	config providers.ProviderConfig
}

// NewGenerator creates a new OpenAI generator
func NewGenerator(cfg providers.ProviderConfig) *Generator {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return &Generator{
		client: newClient(cfg),
		config: cfg,
	}
}

// Name returns the provider name
func (g *Generator) Name() string {
	return providerName
}

// Model returns the configured model
func (g *Generator) Model() string {
	return g.config.Model
}

// Init verifies the model is reachable with the configured credentials
func (g *Generator) Init(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.config.Model); err != nil {
		return wrapError("MODEL_UNAVAILABLE", err)
	}
	return nil
}

// Generate sends the prompt as a single user message. The chat API has no top_k.
func (g *Generator) Generate(ctx context.Context, prompt string, params providers.GenerationParams) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(params.Temperature),
		TopP:        openai.Float(params.TopP),
	})
	if err != nil {
		return "", wrapError("API_ERROR", err)
	}
	if len(resp.Choices) == 0 {
		return "", providers.NewProviderError(providerName, "EMPTY_RESPONSE", "response has no choices", 0, nil)
	}
	return resp.Choices[0].Message.Content, nil
}
