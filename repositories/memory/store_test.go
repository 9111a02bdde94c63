package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/pdf-qa/models"
	"github.com/upb/pdf-qa/repositories"
)

func seed(t *testing.T, s *Store, filename string, texts []string, vecs [][]float64) *models.Document {
	t.Helper()
	doc := models.NewDocument(filename, "application/pdf", 100)
	doc.ChunkCount = len(texts)
	require.NoError(t, s.Replace(context.Background(), doc, models.NewStoredChunks(doc.ID, texts, vecs)))
	return doc
}

func TestStore_SearchOrdersByDistance(t *testing.T) {
	s := NewStore()
	seed(t, s, "a.pdf",
		[]string{"far", "near", "middle"},
		[][]float64{{0, 1}, {1, 0}, {0.6, 0.8}},
	)

	got, err := s.Search(context.Background(), []float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].Content)
	assert.InDelta(t, 0, got[0].Score, 1e-12)
	assert.Equal(t, "middle", got[1].Content)
	assert.InDelta(t, 0.8, got[1].Score, 1e-12)
}

func TestStore_SearchFewerThanK(t *testing.T) {
	s := NewStore()
	seed(t, s, "a.pdf", []string{"only"}, [][]float64{{1, 0}})

	got, err := s.Search(context.Background(), []float64{1, 0}, 15)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_EmptyStore(t *testing.T) {
	s := NewStore()

	doc, err := s.Active(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc)

	got, err := s.Search(context.Background(), []float64{1, 0}, 15)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ReplaceDiscardsPrevious(t *testing.T) {
	s := NewStore()
	seed(t, s, "old.pdf", []string{"old chunk"}, [][]float64{{1, 0}})
	newDoc := seed(t, s, "new.pdf", []string{"new chunk"}, [][]float64{{1, 0}})

	got, err := s.Search(context.Background(), []float64{1, 0}, 15)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new chunk", got[0].Content)

	active, err := s.Active(context.Background())
	require.NoError(t, err)
	assert.Equal(t, newDoc.ID, active.ID)
	assert.Equal(t, "new.pdf", active.Filename)
}

func TestStore_DimensionMismatch(t *testing.T) {
	s := NewStore()
	seed(t, s, "a.pdf", []string{"x"}, [][]float64{{1, 0, 0}})

	_, err := s.Search(context.Background(), []float64{1, 0}, 15)
	assert.ErrorIs(t, err, repositories.ErrDimensionMismatch)
}

func TestStore_ReplaceCopiesEmbeddings(t *testing.T) {
	s := NewStore()
	vec := []float64{1, 0}
	seed(t, s, "a.pdf", []string{"x"}, [][]float64{vec})
	vec[0] = 100

	got, err := s.Search(context.Background(), []float64{1, 0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0, got[0].Score, 1e-12)
}
