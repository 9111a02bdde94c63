package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/upb/pdf-qa/internal/rag"
	"github.com/upb/pdf-qa/services/providers"
)

// maxBatchSize is the input array limit of the embeddings endpoint
const maxBatchSize = 1000

// Embedder implements providers.Embedder with the embeddings endpoint
type Embedder struct {
	client    openai.Client
	config    providers.ProviderConfig
	batchSize int
}

// NewEmbedder creates a new OpenAI embedder
func NewEmbedder(cfg providers.ProviderConfig) *Embedder {
	if cfg.Model == "" {
		cfg.Model = defaultEmbeddingModel
	}
	return &Embedder{
		client:    newClient(cfg),
		config:    cfg,
		batchSize: maxBatchSize,
	}
}

// Name returns the provider name
func (e *Embedder) Name() string {
	return providerName
}

// EmbedDocuments embeds texts in requests of at most batchSize inputs, keeping their order
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.config.Model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, wrapError("API_ERROR", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, providers.NewProviderError(providerName, "EMBEDDING_MISMATCH",
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)), 0, nil)
	}

	out := make([][]float64, len(texts))
	for _, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(out) {
			return nil, providers.NewProviderError(providerName, "EMBEDDING_MISMATCH",
				fmt.Sprintf("embedding index %d out of range", idx), 0, nil)
		}
		out[idx] = rag.Normalize(d.Embedding)
	}
	return out, nil
}

// EmbedQuery embeds a single text
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
