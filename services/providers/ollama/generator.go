package ollama

import (
	"context"
	"strings"
	"time"

	"github.com/upb/pdf-qa/services/providers"
)

// GeneratorConfig configures the Ollama generator
type GeneratorConfig struct {
	providers.ProviderConfig

	// PullTimeout bounds a model download
	PullTimeout time.Duration

	// ReadyChecks is how many times the model list is re-checked after a pull
	ReadyChecks int

	// ReadyInterval is the pause between readiness checks
	ReadyInterval time.Duration
}

// Generator implements providers.Generator on the Ollama generate endpoint
type Generator struct {
	client *Client
	config GeneratorConfig
}

// NewGenerator creates a new Ollama generator
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.PullTimeout == 0 {
		cfg.PullTimeout = 15 * time.Minute
	}
	if cfg.ReadyChecks <= 0 {
		cfg.ReadyChecks = 3
	}
	if cfg.ReadyInterval == 0 {
		cfg.ReadyInterval = time.Second
	}

	client, err := NewClient(cfg.BaseURL, cfg.Headers)
	if err != nil {
		return nil, err
	}
	return &Generator{client: client, config: cfg}, nil
}

// Name returns the provider name
func (g *Generator) Name() string {
	return providerName
}

// Model returns the configured model
func (g *Generator) Model() string {
	return g.config.Model
}

// Init checks that the model is present and pulls it when it is not.
// After a pull the model list is re-checked a bounded number of times.
func (g *Generator) Init(ctx context.Context) error {
	present, err := g.hasModel(ctx)
	if err != nil {
		return err
	}
	if present {
		return nil
	}

	pullCtx, cancel := context.WithTimeout(ctx, g.config.PullTimeout)
	defer cancel()
	if err := g.client.Pull(pullCtx, g.config.Model); err != nil {
		return err
	}

	for attempt := 0; attempt < g.config.ReadyChecks; attempt++ {
		present, err = g.hasModel(ctx)
		if err == nil && present {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.config.ReadyInterval):
		}
	}

	return providers.NewProviderError(providerName, "MODEL_NOT_READY", "model "+g.config.Model+" is not available after pull", 0, err)
}

// Generate runs one completion with the fixed sampling controls
func (g *Generator) Generate(ctx context.Context, prompt string, params providers.GenerationParams) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	return g.client.Generate(ctx, g.config.Model, prompt, params)
}

func (g *Generator) hasModel(ctx context.Context) (bool, error) {
	names, err := g.client.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if sameModel(name, g.config.Model) {
			return true, nil
		}
	}
	return false, nil
}

// sameModel treats an untagged name as ":latest"
func sameModel(a, b string) bool {
	return withTag(a) == withTag(b)
}

func withTag(name string) string {
	if strings.Contains(name, ":") {
		return name
	}
	return name + ":latest"
}
