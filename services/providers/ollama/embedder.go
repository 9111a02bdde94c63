package ollama

import (
	"context"
	"time"

	"github.com/upb/pdf-qa/internal/rag"
	"github.com/upb/pdf-qa/services/providers"
	"golang.org/x/sync/errgroup"
)

// EmbedderConfig configures the Ollama embedder
type EmbedderConfig struct {
	providers.ProviderConfig

	// Concurrency bounds the number of in-flight embedding requests
	Concurrency int
}

// Embedder implements providers.Embedder on the Ollama embeddings endpoint
type Embedder struct {
	client *Client
	config EmbedderConfig
}

// NewEmbedder creates a new Ollama embedder
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	if cfg.Model == "" {
		cfg.Model = defaultEmbeddingModel
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Minute
	}

	client, err := NewClient(cfg.BaseURL, cfg.Headers)
	if err != nil {
		return nil, err
	}
	return &Embedder{client: client, config: cfg}, nil
}

// Name returns the provider name
func (e *Embedder) Name() string {
	return providerName
}

// EmbedQuery embeds a single text. Each call is bounded by the configured timeout.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	vec, err := e.client.Embed(ctx, e.config.Model, text)
	if err != nil {
		return nil, err
	}
	return rag.Normalize(vec), nil
}

// EmbedDocuments embeds texts with at most Concurrency requests in flight.
// The first error cancels the rest.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	results := make([][]float64, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Concurrency)

	for i, text := range texts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			vec, err := e.EmbedQuery(gctx, text)
			if err != nil {
				return err
			}
			results[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
