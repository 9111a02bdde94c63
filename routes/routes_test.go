package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/pdf-qa/app"
	"github.com/upb/pdf-qa/config"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Defaults()
	cfg.Environment = "test"
	cfg.Generation.Provider = config.ProviderLocal

	deps, err := app.NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close(context.Background()) })

	server := httptest.NewServer(SetupRoutes(deps))
	t.Cleanup(server.Close)
	return server
}

func upload(t *testing.T, url, field, filename, content string) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := http.Post(url, writer.FormDataContentType(), body)
	require.NoError(t, err)
	return resp
}

func TestSetupRoutes_HealthEndpoints(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/api/status"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(server.URL + path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		})
	}
}

func TestSetupRoutes_AskAndUploadOnBothMounts(t *testing.T) {
	server := newTestServer(t)

	for _, prefix := range []string{"", "/api"} {
		t.Run("mount "+prefix, func(t *testing.T) {
			resp, err := http.Post(server.URL+prefix+"/ask", "application/json",
				strings.NewReader(`{"question":""}`))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "Question is required.", body["error"])
		})
	}

	resp := upload(t, server.URL+"/api/upload", "file", "notes.md", "# Notes\n\nThe capital of France is Paris.\n")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Post(server.URL+"/ask", "application/json",
		strings.NewReader(`{"question":"What is the capital of France?","debug":true}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Answer      string                 `json:"answer"`
		Diagnostics map[string]interface{} `json:"diagnostics"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Answer, "Paris")
	assert.Contains(t, body.Diagnostics, "retrieval")
	assert.Contains(t, body.Diagnostics, "generation")
	assert.Contains(t, body.Diagnostics, "retrievedChunks")
}

func TestSetupRoutes_CORS(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/status", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://frontend.test")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSetupRoutes_NotFound(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/nonexistent")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "endpoint not found", body["error"])
}

func TestSetupRoutes_MethodNotAllowed(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/ask")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSetupRoutes_APIDocs(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api-docs")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp, err = http.Get(server.URL + "/api-docs/openapi.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc struct {
		Paths map[string]interface{} `json:"paths"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	for _, path := range []string{"/api/upload", "/api/ask", "/api/status"} {
		assert.Contains(t, doc.Paths, path)
	}
}
