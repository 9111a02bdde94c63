// Package diagnostics builds the debug report attached to an answer.
package diagnostics

import (
	"unicode/utf8"

	"github.com/upb/pdf-qa/internal/rag"
	"github.com/upb/pdf-qa/services/generation"
	"github.com/upb/pdf-qa/services/retrieval"
)

// PoorQualityWarning is set when even the best chunk is outside the confidence threshold
const PoorQualityWarning = "Poor retrieval quality - document may not contain relevant information"

const previewRunes = 150

// Diagnostics is the debug report for one question
type Diagnostics struct {
	Retrieval       RetrievalStats  `json:"retrieval"`
	Generation      GenerationStats `json:"generation"`
	RetrievedChunks []ChunkPreview  `json:"retrievedChunks"`
}

// RetrievalStats summarizes the search and selection
type RetrievalStats struct {
	TotalChunksSearched    int       `json:"totalChunksSearched"`
	ChunksUsed             int       `json:"chunksUsed"`
	AverageSimilarityScore float64   `json:"averageSimilarityScore"`
	TopScores              []float64 `json:"topScores"`
	ContextLength          int       `json:"contextLength"`
	QualityWarning         *string   `json:"qualityWarning"`
}

// GenerationStats summarizes the generation call
type GenerationStats struct {
	PromptLength     int    `json:"promptLength"`
	AnswerLength     int    `json:"answerLength"`
	GenerationTimeMs int64  `json:"generationTimeMs"`
	ModelUsed        string `json:"modelUsed"`
}

// ChunkPreview describes one context chunk
type ChunkPreview struct {
	Index         int     `json:"index"`
	OriginalScore float64 `json:"originalScore"`
	RerankScore   float64 `json:"rerankScore"`
	Preview       string  `json:"preview"`
}

// Assemble derives the report from already computed results. It never modifies them.
func Assemble(result *retrieval.Result, answer *generation.Answer) *Diagnostics {
	used := len(result.Chunks)

	var avg float64
	if used > 0 {
		var sum float64
		for _, c := range result.Chunks {
			sum += c.Score
		}
		avg = rag.Round(sum/float64(used), 4)
	}

	topScores := make([]float64, len(result.TopScores))
	for i, s := range result.TopScores {
		topScores[i] = rag.Round(s, 4)
	}

	var warning *string
	if used > 0 && result.Chunks[0].Score > rag.ScoreThreshold {
		w := PoorQualityWarning
		warning = &w
	}

	previews := make([]ChunkPreview, used)
	for i, c := range result.Chunks {
		previews[i] = ChunkPreview{
			Index:         i + 1,
			OriginalScore: rag.Round(c.Score, 4),
			RerankScore:   rag.Round(c.RerankScore, 3),
			Preview:       preview(c.Content),
		}
	}

	return &Diagnostics{
		Retrieval: RetrievalStats{
			TotalChunksSearched:    rag.SearchK,
			ChunksUsed:             used,
			AverageSimilarityScore: avg,
			TopScores:              topScores,
			ContextLength:          utf8.RuneCountInString(result.Context),
			QualityWarning:         warning,
		},
		Generation: GenerationStats{
			PromptLength:     answer.PromptLength,
			AnswerLength:     utf8.RuneCountInString(answer.Text),
			GenerationTimeMs: answer.GenerationTimeMs,
			ModelUsed:        answer.Model,
		},
		RetrievedChunks: previews,
	}
}

// preview returns the first 150 characters followed by an ellipsis, always
func preview(content string) string {
	runes := []rune(content)
	if len(runes) > previewRunes {
		runes = runes[:previewRunes]
	}
	return string(runes) + "..."
}
