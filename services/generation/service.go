// Package generation turns a context and question into an answer with a
// lazily initialized backend.
package generation

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/upb/pdf-qa/services"
	"github.com/upb/pdf-qa/services/providers"
	"go.uber.org/zap"
)

const promptInstruction = "Answer the question based on the context below. Be concise and accurate."

// State is the backend lifecycle: unloaded → loading → loaded.
// A failed load returns to unloaded so the next question retries.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// Answer is a generated answer with its measurements
type Answer struct {
	Text             string
	GenerationTimeMs int64
	PromptLength     int
	Model            string
}

// Config holds the fixed generation settings
type Config struct {
	Params      providers.GenerationParams
	InitTimeout time.Duration
}

// initCall is a backend initialization shared by every caller that arrives while it runs
type initCall struct {
	done chan struct{}
	err  error
}

// Service owns the generation backend handle
type Service struct {
	generator providers.Generator
	config    Config
	logger    *zap.Logger

	mu       sync.Mutex
	state    State
	inflight *initCall
}

// NewService creates a service with an unloaded backend
func NewService(generator providers.Generator, cfg Config, logger *zap.Logger) *Service {
	if cfg.InitTimeout <= 0 {
		cfg.InitTimeout = 20 * time.Minute
	}
	return &Service{
		generator: generator,
		config:    cfg,
		logger:    logger,
	}
}

// BuildPrompt fills the fixed answer prompt
func BuildPrompt(contextText, question string) string {
	return promptInstruction + "\n\nContext: " + contextText + "\n\nQuestion: " + question + "\n\nAnswer:"
}

// State returns the current backend state
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Model returns the backend's model identifier
func (s *Service) Model() string {
	return s.generator.Model()
}

// Backend returns the backend provider name
func (s *Service) Backend() string {
	return s.generator.Name()
}

// Answer initializes the backend if needed and generates one answer
func (s *Service) Answer(ctx context.Context, contextText, question string) (*Answer, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	prompt := BuildPrompt(contextText, question)

	start := time.Now()
	text, err := s.generator.Generate(ctx, prompt, s.config.Params)
	elapsed := time.Since(start)
	if err != nil {
		failure := withProviderDetails(services.WrapGenerationFailed(err), err)
		s.logger.Error("generation failed",
			zap.String("backend", s.generator.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Any("details", failure.Details),
			zap.Error(err),
		)
		return nil, failure
	}

	return &Answer{
		Text:             strings.TrimSpace(text),
		GenerationTimeMs: elapsed.Milliseconds(),
		PromptLength:     utf8.RuneCountInString(prompt),
		Model:            s.generator.Model(),
	}, nil
}

// ensureLoaded starts or joins the backend initialization and waits for it or for ctx
func (s *Service) ensureLoaded(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateLoaded {
		s.mu.Unlock()
		return nil
	}

	call := s.inflight
	if call == nil {
		call = &initCall{done: make(chan struct{})}
		s.inflight = call
		s.state = StateLoading
		go s.runInit(ctx, call)
	}
	s.mu.Unlock()

	select {
	case <-call.done:
		return call.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runInit is detached from the first caller's cancellation and bounded by InitTimeout
func (s *Service) runInit(ctx context.Context, call *initCall) {
	initCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.InitTimeout)
	defer cancel()

	s.logger.Info("initializing generation backend",
		zap.String("backend", s.generator.Name()),
		zap.String("model", s.generator.Model()),
	)

	start := time.Now()
	err := s.generator.Init(initCtx)

	s.mu.Lock()
	if err != nil {
		s.state = StateUnloaded
		call.err = withProviderDetails(services.WrapBackendUnavailable(err), err)
	} else {
		s.state = StateLoaded
	}
	s.inflight = nil
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("generation backend unavailable",
			zap.String("backend", s.generator.Name()),
			zap.Error(err),
		)
	} else {
		s.logger.Info("generation backend loaded",
			zap.String("backend", s.generator.Name()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	close(call.done)
}

// withProviderDetails copies the provider, code and HTTP status of a ProviderError onto derr
func withProviderDetails(derr *services.DomainError, cause error) *services.DomainError {
	provErr, ok := providers.GetProviderError(cause)
	if !ok {
		return derr
	}
	derr.WithDetail("provider", provErr.Provider).WithDetail("code", provErr.Code)
	if provErr.StatusCode != 0 {
		derr.WithDetail("status", provErr.StatusCode)
	}
	return derr
}
