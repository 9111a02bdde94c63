package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/upb/pdf-qa/internal/observability"
	"github.com/upb/pdf-qa/middleware"
	"github.com/upb/pdf-qa/models"
	"github.com/upb/pdf-qa/services"
	"github.com/upb/pdf-qa/utils"
	"go.uber.org/zap"
)

// MsgFileTooLarge is returned when the upload exceeds the configured limit
const MsgFileTooLarge = "File too large."

// uploadFields are the accepted multipart field names, in lookup order
var uploadFields = []string{"pdf", "file"}

// IngestService turns an uploaded file into the active corpus
type IngestService interface {
	Ingest(ctx context.Context, filename, contentType string, data []byte) (*models.Document, error)
}

// UploadHandler handles document uploads
type UploadHandler struct {
	service  IngestService
	stats    *observability.Stats
	maxBytes int64
	logger   *zap.Logger
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(service IngestService, stats *observability.Stats, maxBytes int64, logger *zap.Logger) *UploadHandler {
	if stats == nil {
		stats = observability.NewStats()
	}
	return &UploadHandler{
		service:  service,
		stats:    stats,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// HandleUpload handles POST /upload
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.LoggerFromContext(ctx, h.logger)

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logger.Warn("upload exceeds size limit", zap.Int64("limit", maxErr.Limit))
			h.stats.RecordUpload(false)
			_ = utils.WriteRequestTooLarge(w, MsgFileTooLarge)
			return
		}
		logger.Warn("failed to parse multipart form", zap.Error(err))
		h.stats.RecordUpload(false)
		_ = utils.WriteBadRequest(w, services.MsgNoFile)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := formFile(r)
	if err != nil {
		logger.Warn("no file in upload", zap.Error(err))
		h.stats.RecordUpload(false)
		HandleServiceError(w, services.ErrNoFile, services.MsgFileProcessFailed, logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.stats.RecordUpload(false)
		HandleServiceError(w, services.WrapInternal("failed to read upload", err), services.MsgFileProcessFailed, logger)
		return
	}

	logger.Info("processing upload",
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size),
	)

	doc, err := h.service.Ingest(ctx, header.Filename, header.Header.Get("Content-Type"), data)
	h.stats.RecordUpload(err == nil)
	if err != nil {
		HandleServiceError(w, err, services.MsgFileProcessFailed, logger)
		return
	}

	logger.Info("upload processed",
		zap.String("document_id", doc.ID.String()),
		zap.Int("chunks", doc.ChunkCount),
	)

	if err := utils.WriteMessage(w, services.MsgFileProcessSuccess); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

// formFile returns the first uploaded file under any accepted field name
func formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	for _, field := range uploadFields {
		file, header, err := r.FormFile(field)
		if err == nil {
			return file, header, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, nil, err
		}
	}
	return nil, nil, http.ErrMissingFile
}
