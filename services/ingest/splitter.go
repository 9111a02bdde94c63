package ingest

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// newSplitter builds the recursive character splitter: paragraphs, then lines,
// then words, then characters, until pieces fit ChunkSize.
func newSplitter(cfg Config) textsplitter.TextSplitter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.ChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
	)
}

// splitText splits text and drops whitespace-only pieces
func splitText(splitter textsplitter.TextSplitter, text string) ([]string, error) {
	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			chunks = append(chunks, p)
		}
	}
	return chunks, nil
}
