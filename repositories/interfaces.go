package repositories

import (
	"context"
	"errors"

	"github.com/upb/pdf-qa/internal/rag"
	"github.com/upb/pdf-qa/models"
)

// ErrDimensionMismatch is returned when a query vector does not match the stored vectors
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// VectorStore holds the chunks of the active document and answers nearest-neighbour queries.
// Implementations keep at most one document per collection.
type VectorStore interface {
	// Name returns the backend name (e.g., "memory", "postgres", "qdrant")
	Name() string

	// Replace atomically swaps the stored document and its chunks.
	// On error the previously stored document stays searchable.
	Replace(ctx context.Context, doc *models.Document, chunks []models.StoredChunk) error

	// Search returns up to k chunks closest to query, ascending by distance
	Search(ctx context.Context, query []float64, k int) ([]rag.Chunk, error)

	// Active returns the stored document, or nil when the store is empty
	Active(ctx context.Context) (*models.Document, error)

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error

	// Close releases backend resources
	Close() error
}
