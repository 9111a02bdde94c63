package providers

import (
	"context"
	"errors"
	"time"
)

// Embedder turns text into vectors for similarity search.
type Embedder interface {
	// Name returns the provider name (e.g., "local", "ollama", "openai")
	Name() string

	// EmbedDocuments embeds a batch of chunk texts, preserving order
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)

	// EmbedQuery embeds a single question
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// Generator produces an answer from a single prompt.
type Generator interface {
	// Name returns the provider name (e.g., "ollama", "openai", "anthropic")
	Name() string

	// Model returns the model identifier used for generation
	Model() string

	// Init performs backend setup: a readiness check, a model pull, or a local load.
	// It may be called again after a failure.
	Init(ctx context.Context) error

	// Generate runs one non-streaming completion
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// GenerationParams are the fixed sampling controls passed to every generation call.
type GenerationParams struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

// DefaultGenerationParams returns the sampling controls the service answers with.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Temperature: 0.3,
		TopP:        0.9,
		TopK:        40,
	}
}

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Model identifier
	Model string

	// Timeout for requests
	Timeout time.Duration

	// Additional headers
	Headers map[string]string
}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := e.Provider + ": " + e.Message
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// GetProviderError extracts a ProviderError from an error chain
func GetProviderError(err error) (*ProviderError, bool) {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr, true
	}
	return nil, false
}
