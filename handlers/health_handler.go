package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/pdf-qa/internal/observability"
	"github.com/upb/pdf-qa/models"
	"github.com/upb/pdf-qa/services/generation"
	"github.com/upb/pdf-qa/utils"
	"go.uber.org/zap"
)

// Version is reported by the status endpoint
var Version = "0.1.0"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// StatusResponse describes the running service
type StatusResponse struct {
	Version     string                      `json:"version"`
	Environment string                      `json:"environment"`
	VectorStore string                      `json:"vectorStore"`
	Embeddings  string                      `json:"embeddings"`
	Generation  GenerationStatus            `json:"generation"`
	Document    *models.Document            `json:"document"`
	Stats       observability.StatsSnapshot `json:"stats"`
}

// GenerationStatus reports the generation backend
type GenerationStatus struct {
	Backend string `json:"backend"`
	Model   string `json:"model"`
	State   string `json:"state"`
}

// CorpusStatus exposes the active document and its store
type CorpusStatus interface {
	Active() *models.Document
	StoreName() string
	EmbedderName() string
	Ping(ctx context.Context) error
}

// GeneratorStatus exposes the generation backend state
type GeneratorStatus interface {
	State() generation.State
	Model() string
	Backend() string
}

// HealthHandler handles health and status requests
type HealthHandler struct {
	corpus      CorpusStatus
	generator   GeneratorStatus
	stats       *observability.Stats
	environment string
	logger      *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(corpus CorpusStatus, generator GeneratorStatus, stats *observability.Stats, environment string, logger *zap.Logger) *HealthHandler {
	if stats == nil {
		stats = observability.NewStats()
	}
	return &HealthHandler{
		corpus:      corpus,
		generator:   generator,
		stats:       stats,
		environment: environment,
		logger:      logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only: always 200 while the process serves requests
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
// Ready when the vector store is reachable. Corpus and generator state are reported, not required.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	if err := h.corpus.Ping(ctx); err != nil {
		h.logger.Warn("vector store health check failed", zap.Error(err))
		checks["vector_store"] = "unhealthy"
		ready = false
	} else {
		checks["vector_store"] = "healthy"
	}

	if h.corpus.Active() != nil {
		checks["corpus"] = "active"
	} else {
		checks["corpus"] = "empty"
	}
	checks["generator"] = h.generator.State().String()

	status := "healthy"
	httpStatus := http.StatusOK
	if !ready {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// HandleStatus handles GET /api/status
func (h *HealthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		Version:     Version,
		Environment: h.environment,
		VectorStore: h.corpus.StoreName(),
		Embeddings:  h.corpus.EmbedderName(),
		Generation: GenerationStatus{
			Backend: h.generator.Backend(),
			Model:   h.generator.Model(),
			State:   h.generator.State().String(),
		},
		Document: h.corpus.Active(),
		Stats:    h.stats.Snapshot(),
	}

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write status response", zap.Error(err))
	}
}
