package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scas-api/internal/dto"
	"github.com/noah-isme/scas-api/internal/models"
	appErrors "github.com/noah-isme/scas-api/pkg/errors"
	"github.com/noah-isme/scas-api/pkg/response"
)

type uploadService interface {
	MaxFileSize() int64
	Preview(ctx context.Context, entity models.Entity, filename string, data []byte) (*dto.UploadPreviewResponse, error)
	Commit(ctx context.Context, entity models.Entity, filename string, data []byte) (*dto.UploadResultResponse, error)
}

// UploadHandler accepts CSV and XLSX files that replace a collection.
type UploadHandler struct {
	service uploadService
}

// NewUploadHandler constructs the handler.
func NewUploadHandler(service uploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

// Preview godoc
// @Summary Parse an upload and show its first rows without saving
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param entity path string true "students, faculty or facilities"
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} response.Envelope
// @Router /uploads/{entity}/preview [post]
func (h *UploadHandler) Preview(c *gin.Context) {
	entity, filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	resp, err := h.service.Preview(c.Request.Context(), entity, filename, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Commit godoc
// @Summary Replace a collection with the uploaded rows
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param entity path string true "students, faculty or facilities"
// @Param file formData file true "CSV or XLSX file"
// @Success 201 {object} response.Envelope
// @Router /uploads/{entity} [post]
func (h *UploadHandler) Commit(c *gin.Context) {
	entity, filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	resp, err := h.service.Commit(c.Request.Context(), entity, filename, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp, nil)
}

func (h *UploadHandler) readUpload(c *gin.Context) (models.Entity, string, []byte, bool) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "upload service not configured"))
		return "", "", nil, false
	}
	entity, ok := models.ParseEntity(c.Param("entity"))
	if !ok {
		response.Error(c, appErrors.ErrUnknownEntity)
		return "", "", nil, false
	}

	limit := h.service.MaxFileSize()
	if limit > 0 {
		// multipart framing needs headroom above the file itself
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.ErrPayloadTooLarge)
			return "", "", nil, false
		}
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return "", "", nil, false
	}
	if limit > 0 && fileHeader.Size > limit {
		response.Error(c, appErrors.ErrPayloadTooLarge)
		return "", "", nil, false
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return "", "", nil, false
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
		return "", "", nil, false
	}
	return entity, fileHeader.Filename, data, true
}
