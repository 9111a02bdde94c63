// Package retrieval selects the context passages for a question:
// search, confidence filter, lexical rerank, truncate.
package retrieval

import (
	"context"
	"strings"

	"github.com/upb/pdf-qa/internal/rag"
	"github.com/upb/pdf-qa/services"
	"go.uber.org/zap"
)

// Searcher is the corpus view the orchestrator needs
type Searcher interface {
	IsActive() bool
	Search(ctx context.Context, query string, k int) ([]rag.Chunk, error)
}

// Result is the final context for one question
type Result struct {
	// Chunks holds at most MaxContextChunks entries, descending by rerank score
	Chunks []rag.RerankedChunk

	// TopScores are the raw distances of the first MaxCandidates search hits, in search order
	TopScores []float64

	// Context is the chunk contents joined by ContextSeparator
	Context string
}

// Service runs the retrieval pipeline against a corpus
type Service struct {
	corpus Searcher
	logger *zap.Logger
}

// NewService creates a retrieval service
func NewService(corpus Searcher, logger *zap.Logger) *Service {
	return &Service{corpus: corpus, logger: logger}
}

// Retrieve returns the context for question. Fails with NoActiveCorpus when nothing is indexed.
func (s *Service) Retrieve(ctx context.Context, question string) (*Result, error) {
	if !s.corpus.IsActive() {
		return nil, services.ErrNoActiveCorpus
	}

	hits, err := s.corpus.Search(ctx, question, rag.SearchK)
	if err != nil {
		return nil, err
	}

	result := Select(question, hits)

	s.logger.Debug("retrieval completed",
		zap.Int("hits", len(hits)),
		zap.Int("chunks_used", len(result.Chunks)),
		zap.Int("context_length", len([]rune(result.Context))),
	)
	return result, nil
}

// Select applies the confidence filter, rerank and truncation to distance-sorted hits.
// If no hit is inside the threshold, the unfiltered head is used instead of returning nothing.
func Select(question string, hits []rag.Chunk) *Result {
	candidates := make([]rag.Chunk, 0, rag.MaxCandidates)
	for _, h := range hits {
		if h.HighConfidence() {
			candidates = append(candidates, h)
			if len(candidates) == rag.MaxCandidates {
				break
			}
		}
	}
	if len(candidates) == 0 {
		candidates = head(hits, rag.MaxCandidates)
	}

	reranked := rag.Rerank(question, candidates)
	if len(reranked) > rag.MaxContextChunks {
		reranked = reranked[:rag.MaxContextChunks]
	}

	contents := make([]string, len(reranked))
	for i, c := range reranked {
		contents[i] = c.Content
	}

	top := head(hits, rag.MaxCandidates)
	scores := make([]float64, len(top))
	for i, h := range top {
		scores[i] = h.Score
	}

	return &Result{
		Chunks:    reranked,
		TopScores: scores,
		Context:   strings.Join(contents, rag.ContextSeparator),
	}
}

func head(chunks []rag.Chunk, n int) []rag.Chunk {
	if len(chunks) > n {
		return append([]rag.Chunk(nil), chunks[:n]...)
	}
	return append([]rag.Chunk(nil), chunks...)
}
