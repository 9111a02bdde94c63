// Package ingest turns an uploaded file into the active corpus:
// detect, extract, split, then index.
package ingest

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
	"github.com/upb/pdf-qa/models"
	"github.com/upb/pdf-qa/services"
	"go.uber.org/zap"
)

// Indexer embeds chunk texts and makes the document active
type Indexer interface {
	Index(ctx context.Context, doc *models.Document, texts []string) error
}

// Config controls chunking
type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

// Service runs the ingestion pipeline
type Service struct {
	indexer  Indexer
	splitter textsplitter.TextSplitter
	logger   *zap.Logger
}

// NewService creates an ingest service with a recursive character splitter
func NewService(indexer Indexer, cfg Config, logger *zap.Logger) *Service {
	if cfg.ChunkSize <= 0 {
		cfg = Config{ChunkSize: 800, ChunkOverlap: 200}
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 4
	}

	return &Service{
		indexer:  indexer,
		splitter: newSplitter(cfg),
		logger:   logger,
	}
}

// Ingest indexes one uploaded file. On any error the previous corpus stays active.
func (s *Service) Ingest(ctx context.Context, filename, contentType string, data []byte) (*models.Document, error) {
	kind, ok := DetectKind(filename, contentType, data)
	if !ok {
		return nil, services.ErrUnsupportedFile
	}

	s.logger.Debug("step 1: extracting text", zap.String("filename", filename), zap.String("kind", string(kind)))
	text, err := Extract(kind, data)
	if err != nil {
		return nil, services.WrapInternal("failed to extract text", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, services.ErrEmptyDocument
	}

	s.logger.Debug("step 2: splitting text", zap.Int("characters", utf8.RuneCountInString(text)))
	chunks, err := splitText(s.splitter, text)
	if err != nil {
		return nil, services.WrapInternal("failed to split text", err)
	}
	if len(chunks) == 0 {
		return nil, services.ErrEmptyDocument
	}

	doc := models.NewDocument(filename, kind.ContentType(), utf8.RuneCountInString(text))

	s.logger.Debug("step 3: indexing chunks", zap.Int("chunks", len(chunks)))
	if err := s.indexer.Index(ctx, doc, chunks); err != nil {
		return nil, err
	}

	s.logger.Info("document ingested",
		zap.String("document_id", doc.ID.String()),
		zap.String("filename", filename),
		zap.Int("characters", doc.Characters),
		zap.Int("chunks", doc.ChunkCount),
	)
	return doc, nil
}
