// Package local provides in-process providers that need no model server:
// a feature-hashing embedder and an extractive generator.
package local

import (
	"context"
	"hash/fnv"

	"github.com/upb/pdf-qa/internal/rag"
)

const (
	providerName      = "local"
	DefaultDimensions = 384
)

// Embedder hashes word unigrams and bigrams into a fixed-width vector.
// Similar texts share buckets, so distances stay meaningful for lexical matches.
type Embedder struct {
	dims int
}

// NewEmbedder creates a hashing embedder. Non-positive dims fall back to DefaultDimensions.
func NewEmbedder(dims int) *Embedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{dims: dims}
}

// Name returns the provider name
func (e *Embedder) Name() string {
	return providerName
}

// Dimensions returns the vector width
func (e *Embedder) Dimensions() int {
	return e.dims
}

// EmbedDocuments embeds every text, checking ctx between texts
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

// EmbedQuery embeds a single text
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

func (e *Embedder) embed(text string) []float64 {
	vec := make([]float64, e.dims)
	var tokens []string
	for _, tok := range rag.Tokenize(text) {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	for i, tok := range tokens {
		e.add(vec, tok, 1)
		if i > 0 {
			e.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}
	return rag.Normalize(vec)
}

// add uses a second hash bit as the sign so collisions tend to cancel out
func (e *Embedder) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dims))
	if (sum>>63)&1 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}
