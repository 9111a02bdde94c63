package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is the indexed corpus: one uploaded file split into chunks.
type Document struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Filename    string    `json:"filename" db:"filename"`
	ContentType string    `json:"contentType" db:"content_type"`
	Characters  int       `json:"characters" db:"characters"`
	ChunkCount  int       `json:"chunks" db:"chunk_count"`
	IndexedAt   time.Time `json:"indexedAt" db:"indexed_at"`
}

// TableName returns the table name for the Document model
func (Document) TableName() string {
	return "documents"
}

// NewDocument creates a new Document instance
func NewDocument(filename, contentType string, characters int) *Document {
	return &Document{
		ID:          uuid.New(),
		Filename:    filename,
		ContentType: contentType,
		Characters:  characters,
		IndexedAt:   time.Now().UTC(),
	}
}

// StoredChunk is a chunk of a document together with its embedding.
type StoredChunk struct {
	ID         uuid.UUID `json:"id" db:"id"`
	DocumentID uuid.UUID `json:"documentId" db:"document_id"`
	Position   int       `json:"position" db:"position"`
	Content    string    `json:"content" db:"content"`
	Embedding  []float64 `json:"-" db:"embedding"`
}

// TableName returns the table name for the StoredChunk model
func (StoredChunk) TableName() string {
	return "chunks"
}

// NewStoredChunks pairs chunk texts with their embeddings in order.
func NewStoredChunks(documentID uuid.UUID, texts []string, embeddings [][]float64) []StoredChunk {
	chunks := make([]StoredChunk, len(texts))
	for i, text := range texts {
		var vec []float64
		if i < len(embeddings) {
			vec = embeddings[i]
		}
		chunks[i] = StoredChunk{
			ID:         uuid.New(),
			DocumentID: documentID,
			Position:   i,
			Content:    text,
			Embedding:  vec,
		}
	}
	return chunks
}
