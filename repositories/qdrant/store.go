// Package qdrant implements repositories.VectorStore on Qdrant through its gRPC client.
// Each document lives in its own collection; the configured collection name is an
// alias that is switched to the new collection once all points are written.
// The collections use Euclid distance; scores are converted to squared L2
// so they compare with the other backends.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/upb/pdf-qa/internal/rag"
	"github.com/upb/pdf-qa/models"
	"github.com/upb/pdf-qa/repositories"
	"go.uber.org/zap"
)

const upsertBatchSize = 256

// payload keys
const (
	keyDocumentID  = "document_id"
	keyPosition    = "position"
	keyContent     = "content"
	keyFilename    = "filename"
	keyContentType = "content_type"
	keyCharacters  = "characters"
	keyChunkCount  = "chunk_count"
	keyIndexedAt   = "indexed_at"
)

var _ repositories.VectorStore = (*Store)(nil)

// Config holds the Qdrant connection settings
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Store keeps the active document behind one collection alias
type Store struct {
	client  pointsClient
	alias   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewStore creates a store. Collections are created on the first Replace.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	client, err := newClient(cfg.URL, cfg.APIKey)
	if err != nil {
		return nil, err
	}
	return newStore(client, cfg.Collection, cfg.Timeout, logger), nil
}

func newStore(client pointsClient, alias string, timeout time.Duration, logger *zap.Logger) *Store {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		client:  client,
		alias:   alias,
		timeout: timeout,
		logger:  logger,
	}
}

// Name returns the backend name
func (s *Store) Name() string {
	return "qdrant"
}

// Replace writes the document into a fresh collection and then points the alias at it.
// On any failure before the alias switch the new collection is dropped and the
// alias keeps serving the previous document.
func (s *Store) Replace(ctx context.Context, doc *models.Document, chunks []models.StoredChunk) error {
	if len(chunks) == 0 || len(chunks[0].Embedding) == 0 {
		return errors.New("qdrant: cannot create collection without vectors")
	}
	dim := len(chunks[0].Embedding)
	target := fmt.Sprintf("%s-%s", s.alias, doc.ID.String())

	err := s.call(ctx, func(ctx context.Context) error {
		return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: target,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dim),
				Distance: qdrant.Distance_Euclid,
			}),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if err := s.upsert(ctx, target, doc, chunks); err != nil {
		s.drop(ctx, target)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	previous, err := s.switchAlias(ctx, target)
	if err != nil {
		s.drop(ctx, target)
		return fmt.Errorf("failed to switch alias: %w", err)
	}
	if previous != "" && previous != target {
		s.drop(ctx, previous)
	}

	s.logger.Debug("document replaced",
		zap.String("id", doc.ID.String()),
		zap.String("collection", target),
		zap.String("alias", s.alias),
		zap.Int("chunks", len(chunks)),
	)
	return nil
}

// Search queries the aliased collection and converts Euclid scores to squared distances
func (s *Store) Search(ctx context.Context, query []float64, k int) ([]rag.Chunk, error) {
	var points []*qdrant.ScoredPoint
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		points, err = s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: s.alias,
			Query:          qdrant.NewQuery(toFloat32(query)...),
			Limit:          qdrant.PtrOf(uint64(k)),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return []rag.Chunk{}, nil
		}
		return nil, err
	}

	out := make([]rag.Chunk, len(points))
	for i, p := range points {
		score := float64(p.GetScore())
		out[i] = rag.Chunk{
			Content: p.GetPayload()[keyContent].GetStringValue(),
			Score:   score * score,
		}
	}
	return out, nil
}

// Active reads the document metadata from any stored point
func (s *Store) Active(ctx context.Context) (*models.Document, error) {
	var points []*qdrant.RetrievedPoint
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		points, err = s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.alias,
			Limit:          qdrant.PtrOf(uint32(1)),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}

	p := points[0].GetPayload()
	id, err := uuid.Parse(p[keyDocumentID].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("invalid document id in payload: %w", err)
	}
	indexedAt, _ := time.Parse(time.RFC3339Nano, p[keyIndexedAt].GetStringValue())

	return &models.Document{
		ID:          id,
		Filename:    p[keyFilename].GetStringValue(),
		ContentType: p[keyContentType].GetStringValue(),
		Characters:  int(p[keyCharacters].GetIntegerValue()),
		ChunkCount:  int(p[keyChunkCount].GetIntegerValue()),
		IndexedAt:   indexedAt,
	}, nil
}

// Ping runs the server health check
func (s *Store) Ping(ctx context.Context) error {
	err := s.call(ctx, func(ctx context.Context) error {
		_, err := s.client.HealthCheck(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

// Close closes the gRPC connection
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) upsert(ctx context.Context, collection string, doc *models.Document, chunks []models.StoredChunk) error {
	docID := doc.ID.String()
	indexedAt := doc.IndexedAt.UTC().Format(time.RFC3339Nano)

	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(chunks))

		points := make([]*qdrant.PointStruct, 0, end-start)
		for _, c := range chunks[start:end] {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewID(c.ID.String()),
				Vectors: qdrant.NewVectors(toFloat32(c.Embedding)...),
				Payload: map[string]*qdrant.Value{
					keyDocumentID:  qdrant.NewValueString(docID),
					keyPosition:    qdrant.NewValueInt(int64(c.Position)),
					keyContent:     qdrant.NewValueString(c.Content),
					keyFilename:    qdrant.NewValueString(doc.Filename),
					keyContentType: qdrant.NewValueString(doc.ContentType),
					keyCharacters:  qdrant.NewValueInt(int64(doc.Characters)),
					keyChunkCount:  qdrant.NewValueInt(int64(doc.ChunkCount)),
					keyIndexedAt:   qdrant.NewValueString(indexedAt),
				},
			})
		}

		err := s.call(ctx, func(ctx context.Context) error {
			_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
				CollectionName: collection,
				Wait:           qdrant.PtrOf(true),
				Points:         points,
			})
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// switchAlias atomically points the alias at target and returns the collection it left.
// A plain collection still holding the alias name is dropped first.
func (s *Store) switchAlias(ctx context.Context, target string) (string, error) {
	var aliases []*qdrant.AliasDescription
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		aliases, err = s.client.ListAliases(ctx)
		return err
	})
	if err != nil {
		return "", err
	}

	previous := ""
	for _, a := range aliases {
		if a.GetAliasName() == s.alias {
			previous = a.GetCollectionName()
			break
		}
	}

	ops := []*qdrant.AliasOperations{qdrant.NewAliasCreate(s.alias, target)}
	if previous != "" {
		ops = append([]*qdrant.AliasOperations{qdrant.NewAliasDelete(s.alias)}, ops...)
	} else if err := s.dropLegacyCollection(ctx); err != nil {
		return "", err
	}

	if err := s.call(ctx, func(ctx context.Context) error {
		return s.client.UpdateAliases(ctx, ops)
	}); err != nil {
		return "", err
	}
	return previous, nil
}

// dropLegacyCollection removes a real collection named like the alias
func (s *Store) dropLegacyCollection(ctx context.Context) error {
	var exists bool
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		exists, err = s.client.CollectionExists(ctx, s.alias)
		return err
	})
	if err != nil || !exists {
		return err
	}

	s.logger.Warn("dropping collection that shadows the alias", zap.String("collection", s.alias))
	return s.call(ctx, func(ctx context.Context) error {
		return s.client.DeleteCollection(ctx, s.alias)
	})
}

// drop deletes a collection even if ctx is already cancelled; failures are only logged
func (s *Store) drop(ctx context.Context, collection string) {
	err := s.call(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return s.client.DeleteCollection(ctx, collection)
	})
	if err != nil {
		s.logger.Warn("failed to drop collection", zap.String("collection", collection), zap.Error(err))
	}
}

// call bounds one request by the store timeout
func (s *Store) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
