// Package memory implements an in-process vector store with exact search.
package memory

import (
	"context"
	"sync"

	"github.com/upb/pdf-qa/internal/rag"
	"github.com/upb/pdf-qa/models"
	"github.com/upb/pdf-qa/repositories"
)

var _ repositories.VectorStore = (*Store)(nil)

// Store keeps one document's chunks in memory. Contents are lost on restart.
type Store struct {
	mu       sync.RWMutex
	doc      *models.Document
	contents []string
	vectors  [][]float64
}

// NewStore creates an empty memory store
func NewStore() *Store {
	return &Store{}
}

// Name returns the backend name
func (s *Store) Name() string {
	return "memory"
}

// Replace swaps in the new document. The previous slices are never mutated.
func (s *Store) Replace(ctx context.Context, doc *models.Document, chunks []models.StoredChunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	contents := make([]string, len(chunks))
	vectors := make([][]float64, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
		vectors[i] = append([]float64(nil), c.Embedding...)
	}

	docCopy := *doc

	s.mu.Lock()
	s.doc = &docCopy
	s.contents = contents
	s.vectors = vectors
	s.mu.Unlock()

	return nil
}

// Search runs an exact squared-L2 scan
func (s *Store) Search(ctx context.Context, query []float64, k int) ([]rag.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.vectors) > 0 && len(s.vectors[0]) != len(query) {
		return nil, repositories.ErrDimensionMismatch
	}

	nearest := rag.Nearest(query, s.vectors, k)
	out := make([]rag.Chunk, len(nearest))
	for i, n := range nearest {
		out[i] = rag.Chunk{Content: s.contents[n.Index], Score: n.Distance}
	}
	return out, nil
}

// Active returns a copy of the stored document
func (s *Store) Active(ctx context.Context) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc == nil {
		return nil, nil
	}
	doc := *s.doc
	return &doc, nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close drops the stored chunks
func (s *Store) Close() error {
	s.mu.Lock()
	s.doc, s.contents, s.vectors = nil, nil, nil
	s.mu.Unlock()
	return nil
}
