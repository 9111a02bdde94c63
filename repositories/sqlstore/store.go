// Package sqlstore implements repositories.VectorStore on database/sql.
// Embeddings are loaded per query and ranked in process, so the same code
// serves Postgres and SQLite without a vector extension.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upb/pdf-qa/internal/rag"
	"github.com/upb/pdf-qa/models"
	"github.com/upb/pdf-qa/repositories"
	"go.uber.org/zap"
)

var _ repositories.VectorStore = (*Store)(nil)

// Store keeps documents and chunks in two tables, scoped by collection
type Store struct {
	db         *sql.DB
	dialect    Dialect
	collection string
	logger     *zap.Logger
}

// New creates a store over an open database. Call InitSchema before use.
func New(db *sql.DB, dialect Dialect, collection string, logger *zap.Logger) *Store {
	return &Store{
		db:         db,
		dialect:    dialect,
		collection: collection,
		logger:     logger,
	}
}

// Name returns the dialect name
func (s *Store) Name() string {
	return s.dialect.Name
}

// InitSchema creates the tables if they do not exist
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	s.logger.Info("vector store schema initialized", zap.String("dialect", s.dialect.Name))
	return nil
}

// Replace deletes the collection's document and inserts the new one in a single transaction
func (s *Store) Replace(ctx context.Context, doc *models.Document, chunks []models.StoredChunk) error {
	err := InTransaction(ctx, s.db, s.logger, func(ctx context.Context, tx Executor) error {
		deleteChunks := s.dialect.Rebind(`
			DELETE FROM chunks
			WHERE document_id IN (SELECT id FROM documents WHERE collection = ?)
		`)
		if _, err := tx.ExecContext(ctx, deleteChunks, s.collection); err != nil {
			return fmt.Errorf("failed to delete chunks: %w", err)
		}

		deleteDocs := s.dialect.Rebind(`DELETE FROM documents WHERE collection = ?`)
		if _, err := tx.ExecContext(ctx, deleteDocs, s.collection); err != nil {
			return fmt.Errorf("failed to delete documents: %w", err)
		}

		insertDoc := s.dialect.Rebind(`
			INSERT INTO documents (id, collection, filename, content_type, characters, chunk_count, indexed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if _, err := tx.ExecContext(ctx, insertDoc,
			doc.ID,
			s.collection,
			doc.Filename,
			doc.ContentType,
			doc.Characters,
			doc.ChunkCount,
			doc.IndexedAt,
		); err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}

		insertChunk := s.dialect.Rebind(`
			INSERT INTO chunks (id, document_id, position, content, embedding)
			VALUES (?, ?, ?, ?, ?)
		`)
		for _, c := range chunks {
			vec, err := s.dialect.encodeVector(c.Embedding)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, insertChunk, c.ID, c.DocumentID, c.Position, c.Content, vec); err != nil {
				return fmt.Errorf("failed to insert chunk %d: %w", c.Position, err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("document replaced",
		zap.String("id", doc.ID.String()),
		zap.String("collection", s.collection),
		zap.Int("chunks", len(chunks)),
	)
	return nil
}

// Search loads the collection's chunks and ranks them by squared L2 distance
func (s *Store) Search(ctx context.Context, query []float64, k int) ([]rag.Chunk, error) {
	q := s.dialect.Rebind(`
		SELECT c.content, c.embedding
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.collection = ?
		ORDER BY c.position
	`)

	rows, err := s.db.QueryContext(ctx, q, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var (
		contents []string
		vectors  [][]float64
	)
	for rows.Next() {
		var (
			content string
			vec     []float64
		)
		if err := rows.Scan(&content, s.dialect.vectorScanner(&vec)); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if len(vec) != len(query) {
			return nil, repositories.ErrDimensionMismatch
		}
		contents = append(contents, content)
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	nearest := rag.Nearest(query, vectors, k)
	out := make([]rag.Chunk, len(nearest))
	for i, n := range nearest {
		out[i] = rag.Chunk{Content: contents[n.Index], Score: n.Distance}
	}
	return out, nil
}

// Active returns the most recently indexed document of the collection
func (s *Store) Active(ctx context.Context) (*models.Document, error) {
	q := s.dialect.Rebind(`
		SELECT id, filename, content_type, characters, chunk_count, indexed_at
		FROM documents
		WHERE collection = ?
		ORDER BY indexed_at DESC
		LIMIT 1
	`)

	doc := &models.Document{}
	err := s.db.QueryRowContext(ctx, q, s.collection).Scan(
		&doc.ID,
		&doc.Filename,
		&doc.ContentType,
		&doc.Characters,
		&doc.ChunkCount,
		&doc.IndexedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active document: %w", err)
	}

	return doc, nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Close closes the database connection pool
func (s *Store) Close() error {
	s.logger.Info("closing database connection", zap.String("dialect", s.dialect.Name))
	return s.db.Close()
}
