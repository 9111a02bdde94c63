package corpus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/pdf-qa/internal/rag"
	"github.com/upb/pdf-qa/models"
	"github.com/upb/pdf-qa/repositories/memory"
	"github.com/upb/pdf-qa/services"
	"github.com/upb/pdf-qa/services/providers/local"
	"go.uber.org/zap"
)

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Name() string { return "mock" }

func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	args := m.Called(ctx, texts)
	if v := args.Get(0); v != nil {
		return v.([][]float64), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.([]float64), args.Error(1)
	}
	return nil, args.Error(1)
}

// blockingStore holds Replace until released, to observe lock ordering
type blockingStore struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Replace(ctx context.Context, doc *models.Document, chunks []models.StoredChunk) error {
	close(b.entered)
	<-b.release
	return b.Store.Replace(ctx, doc, chunks)
}

type failingStore struct {
	*memory.Store
}

func (f *failingStore) Replace(ctx context.Context, doc *models.Document, chunks []models.StoredChunk) error {
	return errors.New("store unavailable")
}

func TestManager_SearchBeforeIndex(t *testing.T) {
	m := NewManager(memory.NewStore(), local.NewEmbedder(16), zap.NewNop())

	assert.False(t, m.IsActive())
	assert.Nil(t, m.Active())

	_, err := m.Search(context.Background(), "anything", rag.SearchK)
	assert.True(t, services.IsStoreNotInitializedError(err))
}

func TestManager_IndexThenSearch(t *testing.T) {
	m := NewManager(memory.NewStore(), local.NewEmbedder(64), zap.NewNop())
	doc := models.NewDocument("geo.txt", "text/plain", 80)

	require.NoError(t, m.Index(context.Background(), doc, []string{
		"The capital of France is Paris.",
		"Bananas are rich in potassium.",
	}))

	assert.True(t, m.IsActive())
	active := m.Active()
	require.NotNil(t, active)
	assert.Equal(t, doc.ID, active.ID)
	assert.Equal(t, 2, active.ChunkCount)

	chunks, err := m.Search(context.Background(), "capital of France", rag.SearchK)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "The capital of France is Paris.", chunks[0].Content)
	assert.LessOrEqual(t, chunks[0].Score, chunks[1].Score)
}

func TestManager_IndexEmbeddingFailureKeepsPrevious(t *testing.T) {
	emb := new(MockEmbedder)
	m := NewManager(memory.NewStore(), emb, zap.NewNop())

	first := models.NewDocument("a.txt", "text/plain", 5)
	emb.On("EmbedDocuments", mock.Anything, []string{"first"}).Return([][]float64{{1, 0}}, nil).Once()
	require.NoError(t, m.Index(context.Background(), first, []string{"first"}))

	second := models.NewDocument("b.txt", "text/plain", 6)
	emb.On("EmbedDocuments", mock.Anything, []string{"second"}).Return(nil, errors.New("embedder down")).Once()

	err := m.Index(context.Background(), second, []string{"second"})
	require.Error(t, err)
	assert.True(t, services.IsInternalError(err))
	assert.Equal(t, first.ID, m.Active().ID)
	emb.AssertExpectations(t)
}

func TestManager_IndexStoreFailureKeepsPrevious(t *testing.T) {
	m := NewManager(&failingStore{memory.NewStore()}, local.NewEmbedder(8), zap.NewNop())

	err := m.Index(context.Background(), models.NewDocument("a.txt", "text/plain", 1), []string{"x"})
	require.Error(t, err)
	assert.False(t, m.IsActive())
}

func TestManager_QueriesWaitForSwap(t *testing.T) {
	store := &blockingStore{
		Store:   memory.NewStore(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	m := NewManager(store, local.NewEmbedder(32), zap.NewNop())

	// Seed an active document directly so queries pass the active check.
	seed := models.NewDocument("old.txt", "text/plain", 3)
	require.NoError(t, store.Store.Replace(context.Background(), seed, models.NewStoredChunks(seed.ID, []string{"old"}, [][]float64{make([]float64, 32)})))
	require.NoError(t, m.Restore(context.Background()))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = m.Index(context.Background(), models.NewDocument("new.txt", "text/plain", 3), []string{"new"})
	}()
	<-store.entered

	result := make(chan []rag.Chunk, 1)
	go func() {
		chunks, _ := m.Search(context.Background(), "new", rag.SearchK)
		result <- chunks
	}()

	select {
	case <-result:
		t.Fatal("search completed while the corpus was being replaced")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	wg.Wait()

	chunks := <-result
	require.Len(t, chunks, 1)
	assert.Equal(t, "new", chunks[0].Content)
}

func TestManager_Restore(t *testing.T) {
	store := memory.NewStore()
	doc := models.NewDocument("kept.pdf", "application/pdf", 10)
	require.NoError(t, store.Replace(context.Background(), doc, nil))

	m := NewManager(store, local.NewEmbedder(8), zap.NewNop())
	require.NoError(t, m.Restore(context.Background()))
	assert.True(t, m.IsActive())
	assert.Equal(t, "kept.pdf", m.Active().Filename)

	empty := NewManager(memory.NewStore(), local.NewEmbedder(8), zap.NewNop())
	require.NoError(t, empty.Restore(context.Background()))
	assert.False(t, empty.IsActive())
}
