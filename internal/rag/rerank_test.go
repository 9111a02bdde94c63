package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionTokens(t *testing.T) {
	t.Run("drops tokens of three characters or fewer", func(t *testing.T) {
		tokens := QuestionTokens("What is the capital of France?")
		assert.Equal(t, []string{"what", "capital", "france"}, tokens)
	})

	t.Run("short question yields no tokens", func(t *testing.T) {
		assert.Empty(t, QuestionTokens("Is it?"))
		assert.Empty(t, QuestionTokens(""))
	})

	t.Run("keeps duplicates", func(t *testing.T) {
		tokens := QuestionTokens("rust rust golang")
		assert.Equal(t, []string{"rust", "rust", "golang"}, tokens)
	})

	t.Run("splits on punctuation and keeps underscores", func(t *testing.T) {
		tokens := QuestionTokens("snake_case,kebab-case")
		assert.Equal(t, []string{"snake_case", "kebab", "case"}, tokens)
	})
}

func TestOverlapScore(t *testing.T) {
	t.Run("capital of France scores two thirds", func(t *testing.T) {
		q := QuestionTokens("What is the capital of France?")
		score := OverlapScore(q, "Paris is the capital of France.")
		assert.InDelta(t, 2.0/3.0, score, 1e-9)
	})

	t.Run("repeated document tokens count once", func(t *testing.T) {
		q := QuestionTokens("capital cities")
		score := OverlapScore(q, "capital capital capital")
		assert.Equal(t, 0.5, score)
	})

	t.Run("matching is case insensitive", func(t *testing.T) {
		q := QuestionTokens("GOLANG")
		assert.Equal(t, 1.0, OverlapScore(q, "written in golang"))
	})

	t.Run("empty question tokens score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, OverlapScore(nil, "anything at all"))
	})

	t.Run("whole token match only", func(t *testing.T) {
		q := QuestionTokens("capital")
		assert.Equal(t, 0.0, OverlapScore(q, "capitalism"))
	})
}

func TestRerank(t *testing.T) {
	t.Run("sorts by descending rerank score", func(t *testing.T) {
		candidates := []Chunk{
			{Content: "nothing relevant", Score: 0.1},
			{Content: "the capital of France is Paris", Score: 0.2},
			{Content: "France is in Europe", Score: 0.3},
		}

		reranked := Rerank("What is the capital of France?", candidates)
		require.Len(t, reranked, 3)

		assert.Equal(t, 0.2, reranked[0].Score)
		assert.Equal(t, 0.3, reranked[1].Score)
		assert.Equal(t, 0.1, reranked[2].Score)
		for i := 1; i < len(reranked); i++ {
			assert.GreaterOrEqual(t, reranked[i-1].RerankScore, reranked[i].RerankScore)
		}
	})

	t.Run("ties keep distance order", func(t *testing.T) {
		candidates := []Chunk{
			{Content: "unrelated text", Score: 0.10},
			{Content: "the capital", Score: 0.20},
			{Content: "list of cities", Score: 0.30},
		}

		reranked := Rerank("capital cities", candidates)
		require.Len(t, reranked, 3)

		assert.Equal(t, 0.5, reranked[0].RerankScore)
		assert.Equal(t, 0.20, reranked[0].Score)
		assert.Equal(t, 0.5, reranked[1].RerankScore)
		assert.Equal(t, 0.30, reranked[1].Score)
		assert.Equal(t, 0.10, reranked[2].Score)
	})

	t.Run("empty question keeps incoming order", func(t *testing.T) {
		candidates := []Chunk{
			{Content: "a", Score: 0.1},
			{Content: "b", Score: 0.2},
		}

		reranked := Rerank("why?", candidates)
		require.Len(t, reranked, 2)
		assert.Equal(t, "a", reranked[0].Content)
		assert.Equal(t, "b", reranked[1].Content)
		assert.Equal(t, 0.0, reranked[0].RerankScore)
	})

	t.Run("deterministic and does not mutate input", func(t *testing.T) {
		candidates := []Chunk{
			{Content: "alpha beta", Score: 0.4},
			{Content: "gamma delta", Score: 0.5},
		}
		snapshot := append([]Chunk(nil), candidates...)

		first := Rerank("delta gamma", candidates)
		second := Rerank("delta gamma", candidates)

		assert.Equal(t, first, second)
		assert.Equal(t, snapshot, candidates)
		for _, c := range first {
			assert.GreaterOrEqual(t, c.RerankScore, 0.0)
			assert.LessOrEqual(t, c.RerankScore, 1.0)
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		assert.Empty(t, Rerank("anything", nil))
	})
}
