package rag

import (
	"regexp"
	"sort"
	"strings"
)

// minQuestionTokenLen drops short question tokens ("is", "of", "the").
const minQuestionTokenLen = 4

var nonWord = regexp.MustCompile(`\W+`)

// Tokenize lowercases text and splits it on runs of non-word characters.
// Empty strings produced at the edges are kept, matching a plain split.
func Tokenize(text string) []string {
	return nonWord.Split(strings.ToLower(text), -1)
}

// QuestionTokens returns the distinctive tokens of a question: tokens shorter
// than four characters are discarded. Duplicates are preserved.
func QuestionTokens(question string) []string {
	tokens := Tokenize(question)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) >= minQuestionTokenLen {
			out = append(out, t)
		}
	}
	return out
}

// OverlapScore returns the fraction of question tokens found anywhere in content.
// It returns 0 when there are no question tokens.
func OverlapScore(questionTokens []string, content string) float64 {
	if len(questionTokens) == 0 {
		return 0
	}

	docTokens := make(map[string]struct{})
	for _, t := range Tokenize(content) {
		docTokens[t] = struct{}{}
	}

	matched := 0
	for _, qt := range questionTokens {
		if _, ok := docTokens[qt]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(questionTokens))
}

// Rerank scores every candidate by token overlap with the question and returns
// them sorted by descending score. Ties keep their incoming order.
func Rerank(question string, candidates []Chunk) []RerankedChunk {
	qTokens := QuestionTokens(question)

	reranked := make([]RerankedChunk, len(candidates))
	for i, c := range candidates {
		reranked[i] = RerankedChunk{
			Chunk:       c,
			RerankScore: OverlapScore(qTokens, c.Content),
		}
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].RerankScore > reranked[j].RerankScore
	})
	return reranked
}
