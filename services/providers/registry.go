package providers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate provider
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// EmbedderFactory builds an Embedder from provider configuration.
type EmbedderFactory func(cfg ProviderConfig) (Embedder, error)

// GeneratorFactory builds a Generator from provider configuration.
type GeneratorFactory func(cfg ProviderConfig) (Generator, error)

// Registry maps provider names to constructors so the backend can be chosen by configuration.
type Registry struct {
	mu         sync.RWMutex
	embedders  map[string]EmbedderFactory
	generators map[string]GeneratorFactory
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		embedders:  make(map[string]EmbedderFactory),
		generators: make(map[string]GeneratorFactory),
	}
}

// RegisterEmbedder registers an embedder constructor under name
func (r *Registry) RegisterEmbedder(name string, factory EmbedderFactory) error {
	if name == "" {
		return errors.New("provider name cannot be empty")
	}
	if factory == nil {
		return errors.New("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.embedders[name]; exists {
		return ErrProviderAlreadyRegistered
	}
	r.embedders[name] = factory
	return nil
}

// RegisterGenerator registers a generator constructor under name
func (r *Registry) RegisterGenerator(name string, factory GeneratorFactory) error {
	if name == "" {
		return errors.New("provider name cannot be empty")
	}
	if factory == nil {
		return errors.New("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[name]; exists {
		return ErrProviderAlreadyRegistered
	}
	r.generators[name] = factory
	return nil
}

// NewEmbedder builds the embedder registered under name
func (r *Registry) NewEmbedder(name string, cfg ProviderConfig) (Embedder, error) {
	r.mu.RLock()
	factory, ok := r.embedders[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("embedder %q (registered: %s): %w",
			name, strings.Join(r.ListEmbedders(), ", "), ErrProviderNotFound)
	}
	return factory(cfg)
}

// NewGenerator builds the generator registered under name
func (r *Registry) NewGenerator(name string, cfg ProviderConfig) (Generator, error) {
	r.mu.RLock()
	factory, ok := r.generators[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("generator %q (registered: %s): %w",
			name, strings.Join(r.ListGenerators(), ", "), ErrProviderNotFound)
	}
	return factory(cfg)
}

// ListEmbedders returns the registered embedder names, sorted
func (r *Registry) ListEmbedders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.embedders))
	for name := range r.embedders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListGenerators returns the registered generator names, sorted
func (r *Registry) ListGenerators() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
