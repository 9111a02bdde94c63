package local

import (
	"context"
	"regexp"
	"strings"

	"github.com/upb/pdf-qa/internal/rag"
	"github.com/upb/pdf-qa/services/providers"
)

// NoAnswer is returned when no sentence of the context overlaps the question.
const NoAnswer = "I could not find an answer in the document."

var sentenceEnd = regexp.MustCompile(`[.!?]+\s+|\n+`)

// Generator answers extractively: it returns the context sentence that shares
// the most distinctive tokens with the question. It is used for offline runs
// and tests where no model server is available.
type Generator struct{}

// NewGenerator creates an extractive generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Name returns the provider name
func (g *Generator) Name() string {
	return providerName
}

// Model returns the generator identifier
func (g *Generator) Model() string {
	return "extractive"
}

// Init has nothing to load
func (g *Generator) Init(ctx context.Context) error {
	return ctx.Err()
}

// Generate parses the context and question out of the prompt and picks the best sentence.
// Sampling params have no effect.
func (g *Generator) Generate(ctx context.Context, prompt string, _ providers.GenerationParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	passage, question := splitPrompt(prompt)
	qTokens := rag.QuestionTokens(question)

	best, bestScore := "", 0.0
	for _, sentence := range sentenceEnd.Split(passage, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if score := rag.OverlapScore(qTokens, sentence); score > bestScore {
			best, bestScore = sentence, score
		}
	}

	if best == "" {
		return NoAnswer, nil
	}
	return best, nil
}

// splitPrompt extracts the Context and Question sections of the answer prompt.
// A prompt without markers is treated as all context.
func splitPrompt(prompt string) (string, string) {
	const (
		contextMarker  = "Context:"
		questionMarker = "\n\nQuestion:"
		answerMarker   = "\n\nAnswer:"
	)

	body := prompt
	if i := strings.Index(body, contextMarker); i >= 0 {
		body = body[i+len(contextMarker):]
	}

	q := strings.LastIndex(body, questionMarker)
	if q < 0 {
		return strings.TrimSpace(body), ""
	}
	passage := body[:q]
	question := body[q+len(questionMarker):]
	if a := strings.LastIndex(question, answerMarker); a >= 0 {
		question = question[:a]
	}
	return strings.TrimSpace(passage), strings.TrimSpace(question)
}
