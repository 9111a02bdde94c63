package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/pdf-qa/models"
	"go.uber.org/zap"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chunks.db")

	store, err := NewStore(ctx, path, "pdf-documents", zap.NewNop())
	require.NoError(t, err)

	doc := models.NewDocument("notes.txt", "text/plain", 42)
	doc.ChunkCount = 2
	chunks := models.NewStoredChunks(doc.ID, []string{"alpha", "beta"}, [][]float64{{1, 0}, {0, 1}})
	require.NoError(t, store.Replace(ctx, doc, chunks))

	got, err := store.Search(ctx, []float64{0, 1}, 15)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "beta", got[0].Content)
	assert.Equal(t, "alpha", got[1].Content)
	require.NoError(t, store.Close())

	// A fresh process sees the same document.
	reopened, err := NewStore(ctx, path, "pdf-documents", zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	active, err := reopened.Active(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, doc.ID, active.ID)
	assert.Equal(t, 2, active.ChunkCount)

	other, err := NewStore(ctx, path, "other-collection", zap.NewNop())
	require.NoError(t, err)
	defer other.Close()

	none, err := other.Active(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStore_ReplaceKeepsOneDocument(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, filepath.Join(t.TempDir(), "chunks.db"), "pdf-documents", zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	first := models.NewDocument("a.txt", "text/plain", 1)
	require.NoError(t, store.Replace(ctx, first, models.NewStoredChunks(first.ID, []string{"old"}, [][]float64{{1, 0}})))

	second := models.NewDocument("b.txt", "text/plain", 1)
	require.NoError(t, store.Replace(ctx, second, models.NewStoredChunks(second.ID, []string{"new"}, [][]float64{{1, 0}})))

	got, err := store.Search(ctx, []float64{1, 0}, 15)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Content)
}
