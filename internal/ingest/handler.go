// internal/ingest/handler.go
package ingest

import (
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/api/respond"
	apperrors "github.com/holt-ace/DASHBOARDV3-sub001/pkg/errors"
)

// MaxUploadSize bounds the multipart request body.
const MaxUploadSize = 20 << 20

type Handler struct {
	service Service
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewHandler creates an upload handler admitting perMinute uploads with
// the given burst.
func NewHandler(service Service, perMinute, burst int, logger *zap.Logger) *Handler {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &Handler{
		service: service,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
		logger:  logger,
	}
}

// HandleUpload handles POST /purchase-orders/upload (multipart field "file").
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		respond.Error(w, h.logger, apperrors.ErrRateLimited)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Message(w, http.StatusRequestEntityTooLarge, "file exceeds 20 MiB")
			return
		}
		respond.Message(w, http.StatusBadRequest, "invalid multipart body: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "failed to read file: "+err.Error())
		return
	}
	if http.DetectContentType(content) != "application/pdf" {
		respond.Message(w, http.StatusUnsupportedMediaType, "only PDF documents are accepted")
		return
	}

	result, err := h.service.Ingest(r.Context(), header.Filename, content)
	if err != nil {
		if errors.Is(err, ErrExtractionFailed) {
			h.logger.Warn("extraction failed", zap.String("file_name", header.Filename), zap.Error(err))
			respond.Message(w, http.StatusBadGateway, err.Error())
			return
		}
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, result)
}
