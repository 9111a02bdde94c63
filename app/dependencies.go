package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/pdf-qa/config"
	"github.com/upb/pdf-qa/internal/observability"
	"github.com/upb/pdf-qa/repositories"
	"github.com/upb/pdf-qa/repositories/memory"
	"github.com/upb/pdf-qa/repositories/postgres"
	"github.com/upb/pdf-qa/repositories/qdrant"
	"github.com/upb/pdf-qa/repositories/sqlite"
	"github.com/upb/pdf-qa/services/corpus"
	"github.com/upb/pdf-qa/services/generation"
	"github.com/upb/pdf-qa/services/ingest"
	"github.com/upb/pdf-qa/services/providers"
	"github.com/upb/pdf-qa/services/qa"
	"github.com/upb/pdf-qa/services/retrieval"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	Stats  *observability.Stats

	// Backends
	Store     repositories.VectorStore
	Providers *providers.Registry
	Embedder  providers.Embedder
	Generator providers.Generator

	// Services
	Corpus     *corpus.Manager
	Ingest     *ingest.Service
	Retrieval  *retrieval.Service
	Generation *generation.Service
	QA         *qa.Service
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	store, err := NewVectorStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	deps, err := NewDependenciesWithStore(ctx, cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithStore wires the services around an already opened store
func NewDependenciesWithStore(ctx context.Context, cfg *config.Config, store repositories.VectorStore, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Stats:     observability.NewStats(),
		Store:     store,
		Providers: NewProviderRegistry(cfg),
	}

	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.initServices(cfg)

	// A store that cannot report its previous document still serves new uploads
	if err := deps.Corpus.Restore(ctx); err != nil {
		logger.Warn("corpus restore failed", zap.Error(err))
	}

	logger.Info("all dependencies initialized successfully",
		zap.String("vector_store", store.Name()),
		zap.String("embeddings", deps.Embedder.Name()),
		zap.String("generation", deps.Generator.Name()),
		zap.String("model", deps.Generator.Model()),
	)
	return deps, nil
}

// initProviders builds the configured embedder and generator
func (d *Dependencies) initProviders(cfg *config.Config) error {
	embedder, err := d.Providers.NewEmbedder(cfg.Embeddings.Provider, providers.ProviderConfig{
		APIKey:  cfg.Embeddings.APIKey,
		BaseURL: cfg.Embeddings.BaseURL,
		Model:   cfg.Embeddings.Model,
		Timeout: cfg.Embeddings.Timeout,
	})
	if err != nil {
		return err
	}

	generator, err := d.Providers.NewGenerator(cfg.Generation.Provider, providers.ProviderConfig{
		APIKey:  cfg.Generation.APIKey,
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
		Timeout: cfg.Generation.Timeout,
	})
	if err != nil {
		return err
	}

	d.Embedder = embedder
	d.Generator = generator
	return nil
}

// initServices wires the ingest and ask pipelines
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Corpus = corpus.NewManager(d.Store, d.Embedder, d.Logger.Named("corpus"))

	d.Ingest = ingest.NewService(d.Corpus, ingest.Config{
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
	}, d.Logger.Named("ingest"))

	d.Retrieval = retrieval.NewService(d.Corpus, d.Logger.Named("retrieval"))

	d.Generation = generation.NewService(d.Generator, generation.Config{
		Params: providers.GenerationParams{
			Temperature: cfg.Generation.Temperature,
			TopP:        cfg.Generation.TopP,
			TopK:        cfg.Generation.TopK,
		},
		InitTimeout: cfg.Generation.InitTimeout,
	}, d.Logger.Named("generation"))

	d.QA = qa.NewService(d.Retrieval, d.Generation, d.Stats, d.Logger.Named("qa"))
}

// NewVectorStore opens the configured vector store backend
func NewVectorStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.VectorStore, error) {
	vs := cfg.VectorStore
	storeLogger := logger.Named("store")

	switch vs.Backend {
	case config.StoreMemory:
		return memory.NewStore(), nil

	case config.StorePostgres:
		return postgres.NewStore(ctx, vs.Database, vs.Collection, storeLogger)

	case config.StoreSQLite:
		return sqlite.NewStore(ctx, vs.SQLitePath, vs.Collection, storeLogger)

	case config.StoreQdrant:
		store, err := qdrant.NewStore(qdrant.Config{
			URL:        vs.Qdrant.URL,
			APIKey:     vs.Qdrant.APIKey,
			Collection: vs.Collection,
			Timeout:    vs.Qdrant.Timeout,
		}, storeLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create qdrant client: %w", err)
		}
		if err := store.Ping(ctx); err != nil {
			logger.Warn("qdrant not reachable at startup", zap.String("url", vs.Qdrant.URL), zap.Error(err))
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown vector store backend %q", vs.Backend)
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close vector store: %w", err))
		} else {
			d.Logger.Info("vector store closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return errors.Join(errs...)
}
