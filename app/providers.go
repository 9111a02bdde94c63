package app

import (
	"github.com/upb/pdf-qa/config"
	"github.com/upb/pdf-qa/services/providers"
	"github.com/upb/pdf-qa/services/providers/hosted"
	"github.com/upb/pdf-qa/services/providers/local"
	"github.com/upb/pdf-qa/services/providers/ollama"
	"github.com/upb/pdf-qa/services/providers/openai"
)

// NewProviderRegistry registers every embedding and generation backend.
// Factories close over the provider-specific settings in cfg.
func NewProviderRegistry(cfg *config.Config) *providers.Registry {
	registry := providers.NewRegistry()

	embedders := map[string]providers.EmbedderFactory{
		config.ProviderLocal: func(pc providers.ProviderConfig) (providers.Embedder, error) {
			return local.NewEmbedder(cfg.Embeddings.Dimensions), nil
		},
		config.ProviderOllama: func(pc providers.ProviderConfig) (providers.Embedder, error) {
			return ollama.NewEmbedder(ollama.EmbedderConfig{
				ProviderConfig: pc,
				Concurrency:    cfg.Embeddings.Concurrency,
			})
		},
		config.ProviderOpenAI: func(pc providers.ProviderConfig) (providers.Embedder, error) {
			return openai.NewEmbedder(pc), nil
		},
	}
	for name, factory := range embedders {
		_ = registry.RegisterEmbedder(name, factory)
	}

	generators := map[string]providers.GeneratorFactory{
		config.ProviderLocal: func(pc providers.ProviderConfig) (providers.Generator, error) {
			return local.NewGenerator(), nil
		},
		config.ProviderOllama: func(pc providers.ProviderConfig) (providers.Generator, error) {
			return ollama.NewGenerator(ollama.GeneratorConfig{
				ProviderConfig: pc,
				PullTimeout:    cfg.Generation.PullTimeout,
				ReadyChecks:    cfg.Generation.ReadyChecks,
				ReadyInterval:  cfg.Generation.ReadyInterval,
			})
		},
		config.ProviderOpenAI: func(pc providers.ProviderConfig) (providers.Generator, error) {
			return openai.NewGenerator(pc), nil
		},
	}
	for _, backend := range []string{config.ProviderAnthropic, config.ProviderOpenRouter, config.ProviderCompatible} {
		generators[backend] = func(pc providers.ProviderConfig) (providers.Generator, error) {
			return hosted.NewGenerator(backend, pc)
		}
	}
	for name, factory := range generators {
		_ = registry.RegisterGenerator(name, factory)
	}

	return registry
}
