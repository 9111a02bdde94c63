package rag

const (
	// SearchK is the number of nearest chunks requested from the store per question.
	SearchK = 15

	// ScoreThreshold separates high-confidence chunks (score < ScoreThreshold) from the rest.
	ScoreThreshold = 0.6

	// MaxCandidates bounds the set handed to the reranker.
	MaxCandidates = 10

	// MaxContextChunks bounds the final context.
	MaxContextChunks = 5

	// ContextSeparator joins the selected chunk contents.
	ContextSeparator = "\n\n"
)

// Chunk is a passage returned by a similarity search together with its distance score.
type Chunk struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// RerankedChunk extends a Chunk with the lexical rerank score in [0,1].
type RerankedChunk struct {
	Chunk
	RerankScore float64 `json:"rerankScore"`
}

// HighConfidence reports whether the chunk is inside the confidence threshold.
func (c Chunk) HighConfidence() bool {
	return c.Score < ScoreThreshold
}
