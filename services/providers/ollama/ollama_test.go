package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/pdf-qa/services/providers"
)

func newGenerator(t *testing.T, cfg GeneratorConfig) *Generator {
	t.Helper()
	gen, err := NewGenerator(cfg)
	require.NoError(t, err)
	return gen
}

func newEmbedder(t *testing.T, cfg EmbedderConfig) *Embedder {
	t.Helper()
	emb, err := NewEmbedder(cfg)
	require.NoError(t, err)
	return emb
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestGenerator_Init(t *testing.T) {
	t.Run("model already present skips pull", func(t *testing.T) {
		var pulls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/tags":
				writeJSON(t, w, map[string]interface{}{
					"models": []map[string]string{{"name": "llama3.2:3b"}},
				})
			case "/api/pull":
				atomic.AddInt32(&pulls, 1)
			}
		}))
		defer server.Close()

		gen := newGenerator(t, GeneratorConfig{ProviderConfig: providers.ProviderConfig{BaseURL: server.URL}})
		require.NoError(t, gen.Init(context.Background()))
		assert.Equal(t, int32(0), atomic.LoadInt32(&pulls))
		assert.Equal(t, "llama3.2:3b", gen.Model())
		assert.Equal(t, "ollama", gen.Name())
	})

	t.Run("missing model is pulled then confirmed", func(t *testing.T) {
		var pulled int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/tags":
				models := []map[string]string{}
				if atomic.LoadInt32(&pulled) > 0 {
					models = append(models, map[string]string{"name": "mistral:latest"})
				}
				writeJSON(t, w, map[string]interface{}{"models": models})
			case "/api/pull":
				var req api.PullRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "mistral", req.Model)
				atomic.AddInt32(&pulled, 1)
				_, _ = w.Write([]byte("{\"status\":\"pulling manifest\"}\n{\"status\":\"success\"}\n"))
			}
		}))
		defer server.Close()

		gen := newGenerator(t, GeneratorConfig{
			ProviderConfig: providers.ProviderConfig{BaseURL: server.URL, Model: "mistral"},
			ReadyInterval:  time.Millisecond,
		})
		require.NoError(t, gen.Init(context.Background()))
		assert.Equal(t, int32(1), atomic.LoadInt32(&pulled))
	})

	t.Run("pull error in stream fails init", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/tags":
				writeJSON(t, w, map[string]interface{}{"models": []interface{}{}})
			case "/api/pull":
				_, _ = w.Write([]byte("{\"error\":\"pull model manifest: file does not exist\"}\n"))
			}
		}))
		defer server.Close()

		gen := newGenerator(t, GeneratorConfig{ProviderConfig: providers.ProviderConfig{BaseURL: server.URL}})
		err := gen.Init(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file does not exist")
	})

	t.Run("model never appears after pull", func(t *testing.T) {
		var tagCalls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/tags":
				atomic.AddInt32(&tagCalls, 1)
				writeJSON(t, w, map[string]interface{}{"models": []interface{}{}})
			case "/api/pull":
				_, _ = w.Write([]byte("{\"status\":\"success\"}\n"))
			}
		}))
		defer server.Close()

		gen := newGenerator(t, GeneratorConfig{
			ProviderConfig: providers.ProviderConfig{BaseURL: server.URL},
			ReadyChecks:    2,
			ReadyInterval:  time.Millisecond,
		})
		err := gen.Init(context.Background())
		require.Error(t, err)

		provErr, ok := providers.GetProviderError(err)
		require.True(t, ok)
		assert.Equal(t, "MODEL_NOT_READY", provErr.Code)
		assert.Equal(t, int32(3), atomic.LoadInt32(&tagCalls))
	})

	t.Run("unreachable server", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		gen := newGenerator(t, GeneratorConfig{ProviderConfig: providers.ProviderConfig{BaseURL: url}})
		err := gen.Init(context.Background())
		require.Error(t, err)

		provErr, ok := providers.GetProviderError(err)
		require.True(t, ok)
		assert.Equal(t, "HTTP_ERROR", provErr.Code)
	})
}

func TestGenerator_Generate(t *testing.T) {
	t.Run("sends prompt and fixed options", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/generate", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)

			var req api.GenerateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "llama3.2:3b", req.Model)
			assert.Equal(t, "the prompt", req.Prompt)
			require.NotNil(t, req.Stream)
			assert.False(t, *req.Stream)
			assert.Equal(t, 0.3, req.Options["temperature"])
			assert.Equal(t, 0.9, req.Options["top_p"])
			assert.Equal(t, float64(40), req.Options["top_k"])

			writeJSON(t, w, map[string]interface{}{"response": " Paris. ", "done": true})
		}))
		defer server.Close()

		gen := newGenerator(t, GeneratorConfig{ProviderConfig: providers.ProviderConfig{BaseURL: server.URL}})
		out, err := gen.Generate(context.Background(), "the prompt", providers.DefaultGenerationParams())
		require.NoError(t, err)
		assert.Equal(t, " Paris. ", out)
	})

	t.Run("error status carries server message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model 'llama3.2:3b' not found"}`))
		}))
		defer server.Close()

		gen := newGenerator(t, GeneratorConfig{ProviderConfig: providers.ProviderConfig{BaseURL: server.URL}})
		_, err := gen.Generate(context.Background(), "p", providers.DefaultGenerationParams())
		require.Error(t, err)

		_, ok := providers.GetProviderError(err)
		require.True(t, ok)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		gen := newGenerator(t, GeneratorConfig{ProviderConfig: providers.ProviderConfig{BaseURL: server.URL}})
		_, err := gen.Generate(context.Background(), "p", providers.DefaultGenerationParams())
		require.Error(t, err)
		_, ok := providers.GetProviderError(err)
		assert.True(t, ok)
	})

	t.Run("cancelled context aborts the call", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		gen := newGenerator(t, GeneratorConfig{ProviderConfig: providers.ProviderConfig{BaseURL: server.URL}})
		_, err := gen.Generate(ctx, "p", providers.DefaultGenerationParams())
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestEmbedder(t *testing.T) {
	t.Run("embeds documents in order and normalizes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/embeddings", r.URL.Path)
			var req api.EmbeddingRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "nomic-embed-text", req.Model)

			vec := []float64{3, 4}
			if req.Prompt == "second" {
				vec = []float64{0, 2}
			}
			writeJSON(t, w, map[string]interface{}{"embedding": vec})
		}))
		defer server.Close()

		emb := newEmbedder(t, EmbedderConfig{ProviderConfig: providers.ProviderConfig{BaseURL: server.URL}, Concurrency: 2})
		vecs, err := emb.EmbedDocuments(context.Background(), []string{"first", "second", "third"})
		require.NoError(t, err)
		require.Len(t, vecs, 3)

		assert.InDeltaSlice(t, []float64{0.6, 0.8}, vecs[0], 1e-9)
		assert.InDeltaSlice(t, []float64{0, 1}, vecs[1], 1e-9)
		assert.InDeltaSlice(t, []float64{0.6, 0.8}, vecs[2], 1e-9)
	})

	t.Run("first failure fails the batch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"embedding model crashed"}`))
		}))
		defer server.Close()

		emb := newEmbedder(t, EmbedderConfig{ProviderConfig: providers.ProviderConfig{BaseURL: server.URL}})
		_, err := emb.EmbedDocuments(context.Background(), []string{"a", "b", "c", "d", "e"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding model crashed")

		provErr, ok := providers.GetProviderError(err)
		require.True(t, ok)
		assert.Equal(t, "API_ERROR", provErr.Code)
		assert.Equal(t, http.StatusInternalServerError, provErr.StatusCode)
	})

	t.Run("empty embedding is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, map[string]interface{}{"embedding": []float64{}})
		}))
		defer server.Close()

		emb := newEmbedder(t, EmbedderConfig{ProviderConfig: providers.ProviderConfig{BaseURL: server.URL}})
		_, err := emb.EmbedQuery(context.Background(), "q")
		require.Error(t, err)
	})

	t.Run("slow server is cut off by the timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		emb := newEmbedder(t, EmbedderConfig{ProviderConfig: providers.ProviderConfig{
			BaseURL: server.URL,
			Timeout: 50 * time.Millisecond,
		}})

		start := time.Now()
		_, err := emb.EmbedQuery(context.Background(), "q")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 2*time.Second)

		_, err = emb.EmbedDocuments(context.Background(), []string{"a", "b"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("configured headers are sent", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
			writeJSON(t, w, map[string]interface{}{"embedding": []float64{1, 0}})
		}))
		defer server.Close()

		emb := newEmbedder(t, EmbedderConfig{ProviderConfig: providers.ProviderConfig{
			BaseURL: server.URL,
			Headers: map[string]string{"Authorization": "Bearer token"},
		}})
		vec, err := emb.EmbedQuery(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 0}, vec)
	})

	t.Run("no texts", func(t *testing.T) {
		emb := newEmbedder(t, EmbedderConfig{})
		vecs, err := emb.EmbedDocuments(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, vecs)
	})
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("http://[::1", nil)
	require.Error(t, err)

	provErr, ok := providers.GetProviderError(err)
	require.True(t, ok)
	assert.Equal(t, "CONFIG_ERROR", provErr.Code)
}

func TestSameModel(t *testing.T) {
	assert.True(t, sameModel("mistral", "mistral:latest"))
	assert.True(t, sameModel("llama3.2:3b", "llama3.2:3b"))
	assert.False(t, sameModel("llama3.2:3b", "llama3.2:1b"))
}
