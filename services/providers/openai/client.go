// Package openai adapts the official OpenAI SDK to the embedding and generation interfaces.
// Any OpenAI-compatible endpoint works through BaseURL.
package openai

import (
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/upb/pdf-qa/services/providers"
)

const (
	providerName = "openai"

	defaultBaseURL        = "https://api.openai.com/v1/"
	defaultModel          = "gpt-4o-mini"
	defaultEmbeddingModel = "text-embedding-3-small"
)

// newClient builds an SDK client with retries disabled; a failed call surfaces immediately.
func newClient(cfg providers.ProviderConfig) openai.Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	for k, v := range cfg.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}

	return openai.NewClient(opts...)
}

// wrapError converts SDK errors into provider errors, keeping the API message
func wrapError(code string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return providers.NewProviderError(providerName, code, apiErr.Message, apiErr.StatusCode, err)
	}
	return providers.NewProviderError(providerName, code, "request failed", 0, err)
}
