// Package qa runs the ask pipeline: retrieve, generate, and optionally diagnose.
package qa

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/pdf-qa/internal/observability"
	"github.com/upb/pdf-qa/services"
	"github.com/upb/pdf-qa/services/diagnostics"
	"github.com/upb/pdf-qa/services/generation"
	"github.com/upb/pdf-qa/services/retrieval"
	"go.uber.org/zap"
)

// Retriever selects the context for a question
type Retriever interface {
	Retrieve(ctx context.Context, question string) (*retrieval.Result, error)
}

// Answerer generates an answer from a context
type Answerer interface {
	Answer(ctx context.Context, contextText, question string) (*generation.Answer, error)
}

// Response is the ask result. Diagnostics is nil unless requested.
type Response struct {
	Answer      string                   `json:"answer"`
	Diagnostics *diagnostics.Diagnostics `json:"diagnostics,omitempty"`
}

// Service orchestrates one question end to end
type Service struct {
	retriever Retriever
	answerer  Answerer
	stats     *observability.Stats
	logger    *zap.Logger
}

// NewService creates a qa service
func NewService(retriever Retriever, answerer Answerer, stats *observability.Stats, logger *zap.Logger) *Service {
	if stats == nil {
		stats = observability.NewStats()
	}
	return &Service{
		retriever: retriever,
		answerer:  answerer,
		stats:     stats,
		logger:    logger,
	}
}

// Ask answers question against the active corpus
func (s *Service) Ask(ctx context.Context, question string, debug bool) (resp *Response, err error) {
	if strings.TrimSpace(question) == "" {
		return nil, services.ErrQuestionRequired
	}

	questionID := uuid.New().String()
	start := time.Now()
	defer func() {
		s.stats.RecordQuestion(err == nil)
	}()

	s.logger.Info("answering question",
		zap.String("question_id", questionID),
		zap.Int("question_length", len([]rune(question))),
		zap.Bool("debug", debug),
	)

	// Step 1: Retrieve context
	s.logger.Debug("step 1: retrieving context", zap.String("question_id", questionID))
	result, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		s.logFailure(questionID, "retrieval", err)
		return nil, err
	}

	// Step 2: Generate answer
	s.logger.Debug("step 2: generating answer",
		zap.String("question_id", questionID),
		zap.Int("chunks_used", len(result.Chunks)),
	)
	answer, err := s.answerer.Answer(ctx, result.Context, question)
	if err != nil {
		s.logFailure(questionID, "generation", err)
		return nil, err
	}

	resp = &Response{Answer: answer.Text}

	// Step 3: Diagnostics
	if debug {
		s.logger.Debug("step 3: assembling diagnostics", zap.String("question_id", questionID))
		resp.Diagnostics = diagnostics.Assemble(result, answer)
	}

	s.logger.Info("question answered",
		zap.String("question_id", questionID),
		zap.Int64("generation_ms", answer.GenerationTimeMs),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()),
		zap.String("model", answer.Model),
	)
	return resp, nil
}

func (s *Service) logFailure(questionID, stage string, err error) {
	fields := []zap.Field{
		zap.String("question_id", questionID),
		zap.String("stage", stage),
		zap.Error(err),
	}
	if errType := services.GetErrorType(err); errType != "" {
		fields = append(fields, zap.String("error_type", string(errType)))
	}

	if services.IsNoActiveCorpusError(err) {
		s.logger.Warn("question rejected", fields...)
		return
	}
	s.logger.Error("question failed", fields...)
}
