// Package corpus owns the active document. Queries search under a read
// lock; an upload swaps the store contents under the write lock.
package corpus

import (
	"context"
	"fmt"
	"sync"

	"github.com/upb/pdf-qa/internal/rag"
	"github.com/upb/pdf-qa/models"
	"github.com/upb/pdf-qa/repositories"
	"github.com/upb/pdf-qa/services"
	"github.com/upb/pdf-qa/services/providers"
	"go.uber.org/zap"
)

// Manager binds a vector store and an embedder to the active document
type Manager struct {
	mu       sync.RWMutex
	store    repositories.VectorStore
	embedder providers.Embedder
	active   *models.Document
	logger   *zap.Logger
}

// NewManager creates a manager with no active document
func NewManager(store repositories.VectorStore, embedder providers.Embedder, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		embedder: embedder,
		logger:   logger,
	}
}

// Restore activates a document left in a persistent store by a previous run
func (m *Manager) Restore(ctx context.Context) error {
	doc, err := m.store.Active(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore corpus: %w", err)
	}
	if doc == nil {
		m.logger.Info("no stored document to restore", zap.String("store", m.store.Name()))
		return nil
	}

	m.mu.Lock()
	m.active = doc
	m.mu.Unlock()

	m.logger.Info("corpus restored",
		zap.String("store", m.store.Name()),
		zap.String("document_id", doc.ID.String()),
		zap.String("filename", doc.Filename),
		zap.Int("chunks", doc.ChunkCount),
	)
	return nil
}

// Index embeds texts and makes doc the active document.
// Embedding runs before the write lock is taken, so queries keep running against the old corpus meanwhile.
func (m *Manager) Index(ctx context.Context, doc *models.Document, texts []string) error {
	embeddings, err := m.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return services.WrapInternal("failed to embed chunks", err)
	}
	if len(embeddings) != len(texts) {
		return services.WrapInternal("failed to embed chunks",
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddings)))
	}

	doc.ChunkCount = len(texts)
	chunks := models.NewStoredChunks(doc.ID, texts, embeddings)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Replace(ctx, doc, chunks); err != nil {
		return services.WrapInternal("failed to store chunks", err)
	}

	docCopy := *doc
	m.active = &docCopy

	m.logger.Info("corpus replaced",
		zap.String("document_id", doc.ID.String()),
		zap.String("filename", doc.Filename),
		zap.Int("chunks", len(chunks)),
	)
	return nil
}

// Search embeds query and returns its k nearest chunks.
// Fails with StoreNotInitialized when no document is active.
func (m *Manager) Search(ctx context.Context, query string, k int) ([]rag.Chunk, error) {
	if !m.IsActive() {
		return nil, services.ErrStoreNotInitialized
	}

	vec, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, services.WrapInternal("failed to embed question", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active == nil {
		return nil, services.ErrStoreNotInitialized
	}

	chunks, err := m.store.Search(ctx, vec, k)
	if err != nil {
		return nil, services.WrapInternal("similarity search failed", err)
	}
	return chunks, nil
}

// IsActive reports whether a document has been indexed
func (m *Manager) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active != nil
}

// Active returns a copy of the active document, or nil
func (m *Manager) Active() *models.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return nil
	}
	doc := *m.active
	return &doc
}

// StoreName returns the backing store's name
func (m *Manager) StoreName() string {
	return m.store.Name()
}

// EmbedderName returns the embedding provider's name
func (m *Manager) EmbedderName() string {
	return m.embedder.Name()
}

// Ping checks the backing store
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}
