package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/upb/pdf-qa/middleware"
	"github.com/upb/pdf-qa/services"
	"github.com/upb/pdf-qa/services/qa"
	"github.com/upb/pdf-qa/utils"
	"go.uber.org/zap"
)

// AskRequest is the body of POST /ask
type AskRequest struct {
	Question string `json:"question" validate:"required"`
	Debug    bool   `json:"debug"`
}

// QAService answers questions against the active corpus
type QAService interface {
	Ask(ctx context.Context, question string, debug bool) (*qa.Response, error)
}

// AskHandler handles question answering requests
type AskHandler struct {
	service QAService
	logger  *zap.Logger
}

// NewAskHandler creates a new AskHandler
func NewAskHandler(service QAService, logger *zap.Logger) *AskHandler {
	return &AskHandler{
		service: service,
		logger:  logger,
	}
}

// HandleAsk handles POST /ask
func (h *AskHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.LoggerFromContext(ctx, h.logger)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("failed to parse request body", zap.Error(err))
		_ = utils.WriteBadRequest(w, services.MsgInvalidBody)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		logger.Warn("request validation failed", zap.Any("fields", utils.GetValidationFields(err)))
		if utils.HasFieldError(err, "question") {
			HandleServiceError(w, services.ErrQuestionRequired, services.MsgAnswerFailed, logger)
		} else {
			HandleServiceError(w, services.ErrInvalidBody, services.MsgAnswerFailed, logger)
		}
		return
	}

	logger.Debug("processing question", zap.Bool("debug", req.Debug))

	resp, err := h.service.Ask(ctx, req.Question, req.Debug)
	if err != nil {
		HandleServiceError(w, err, services.MsgAnswerFailed, logger)
		return
	}

	if err := utils.WriteOK(w, resp); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}
