package handlers

import (
	"net/http"

	"github.com/upb/pdf-qa/services"
	"github.com/upb/pdf-qa/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses.
// Client errors echo the domain message. Everything else is logged and
// answered with failureMessage, which is fixed per route.
func HandleServiceError(w http.ResponseWriter, err error, failureMessage string, logger *zap.Logger) {
	if err == nil {
		return
	}

	switch {
	case services.IsValidationError(err), services.IsNoActiveCorpusError(err):
		if err := utils.WriteBadRequest(w, services.GetErrorMessage(err)); err != nil {
			logger.Error("failed to write bad request response", zap.Error(err))
		}

	case services.IsStoreNotInitializedError(err),
		services.IsBackendUnavailableError(err),
		services.IsGenerationFailedError(err),
		services.IsInternalError(err):
		logger.Error("request failed",
			zap.String("error_type", string(services.GetErrorType(err))),
			zap.Error(err))
		if err := utils.WriteInternalServerError(w, failureMessage); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}

	default:
		// Unknown error type - log and return the route's failure message
		logger.Error("unhandled error type", zap.Error(err))
		if err := utils.WriteInternalServerError(w, failureMessage); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
	}

	if domainErr := services.GetErrorType(err); domainErr != "" {
		logger.Debug("handled service error",
			zap.String("type", string(domainErr)),
			zap.String("message", services.GetErrorMessage(err)),
			zap.Any("details", services.GetErrorDetails(err)))
	}
}
