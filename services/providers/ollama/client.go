// Package ollama talks to a local Ollama server for embeddings and generation.
package ollama

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/upb/pdf-qa/services/providers"
)

const (
	providerName = "ollama"

	defaultBaseURL        = "http://localhost:11434"
	defaultModel          = "llama3.2:3b"
	defaultEmbeddingModel = "nomic-embed-text"
)

// Client wraps the official Ollama API client and converts its errors to
// ProviderErrors. Deadlines come from the caller's context.
type Client struct {
	api *api.Client
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, headers map[string]string) (*Client, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, providers.NewProviderError(providerName, "CONFIG_ERROR", "invalid base URL "+baseURL, 0, err)
	}

	httpClient := &http.Client{}
	if len(headers) > 0 {
		httpClient.Transport = &headerTransport{headers: headers, next: http.DefaultTransport}
	}
	return &Client{api: api.NewClient(base, httpClient)}, nil
}

// ListModels returns the names of the locally available models
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.api.List(ctx)
	if err != nil {
		return nil, wrapError(err)
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Pull downloads a model and drains the progress stream until the server finishes.
func (c *Client) Pull(ctx context.Context, model string) error {
	err := c.api.Pull(ctx, &api.PullRequest{Model: model}, func(api.ProgressResponse) error {
		return nil
	})
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// Embed returns the embedding of a single text
func (c *Client) Embed(ctx context.Context, model, text string) ([]float64, error) {
	resp, err := c.api.Embeddings(ctx, &api.EmbeddingRequest{Model: model, Prompt: text})
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Embedding) == 0 {
		return nil, providers.NewProviderError(providerName, "EMPTY_EMBEDDING", "Server returned an empty embedding", http.StatusOK, nil)
	}
	return resp.Embedding, nil
}

// Generate runs a non-streaming completion
func (c *Client) Generate(ctx context.Context, model, prompt string, params providers.GenerationParams) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": params.Temperature,
			"top_p":       params.TopP,
			"top_k":       params.TopK,
		},
	}

	var out strings.Builder
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", wrapError(err)
	}
	return out.String(), nil
}

// wrapError converts an api error into a ProviderError, keeping the server's message and status
func wrapError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.ErrorMessage
		if msg == "" {
			msg = statusErr.Status
		}
		return providers.NewProviderError(providerName, "API_ERROR", msg, statusErr.StatusCode, nil)
	}
	return providers.NewProviderError(providerName, "HTTP_ERROR", "request failed", 0, err)
}

// headerTransport adds the configured headers to every request
type headerTransport struct {
	headers map[string]string
	next    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.next.RoundTrip(req)
}
