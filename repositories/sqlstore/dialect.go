package sqlstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Dialect captures what differs between the SQL backends: placeholders,
// schema types and how an embedding column is encoded.
type Dialect struct {
	Name string

	// numbered placeholders ($1, $2) instead of ?
	numbered bool

	schema string

	// arrays store embeddings as float8[] via lib/pq; otherwise JSON text
	arrays bool
}

// Postgres stores embeddings in a float8[] column
var Postgres = Dialect{
	Name:     "postgres",
	numbered: true,
	arrays:   true,
	schema: `
		CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			collection VARCHAR(255) NOT NULL,
			filename VARCHAR(1024) NOT NULL,
			content_type VARCHAR(255) NOT NULL,
			characters INTEGER NOT NULL,
			chunk_count INTEGER NOT NULL,
			indexed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS chunks (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding DOUBLE PRECISION[] NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
		CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
	`,
}

// SQLite stores embeddings as JSON text
var SQLite = Dialect{
	Name: "sqlite",
	schema: `
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			filename TEXT NOT NULL,
			content_type TEXT NOT NULL,
			characters INTEGER NOT NULL,
			chunk_count INTEGER NOT NULL,
			indexed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
		CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
	`,
}

// Rebind rewrites ? placeholders into the dialect's form
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// encodeVector returns the driver value for an embedding column
func (d Dialect) encodeVector(vec []float64) (interface{}, error) {
	if d.arrays {
		return pq.Array(vec), nil
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding: %w", err)
	}
	return string(data), nil
}

// vectorScanner returns a scan destination that fills *vec
func (d Dialect) vectorScanner(vec *[]float64) interface{} {
	if d.arrays {
		return pq.Array(vec)
	}
	return &jsonVector{vec: vec}
}

// jsonVector scans a JSON encoded embedding
type jsonVector struct {
	vec *[]float64
}

func (j *jsonVector) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*j.vec = nil
		return nil
	default:
		return fmt.Errorf("unsupported embedding column type %T", src)
	}
	return json.Unmarshal(data, j.vec)
}
