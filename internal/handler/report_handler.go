package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scas-api/internal/dto"
	"github.com/noah-isme/scas-api/internal/models"
	"github.com/noah-isme/scas-api/internal/service"
	appErrors "github.com/noah-isme/scas-api/pkg/errors"
	"github.com/noah-isme/scas-api/pkg/response"
)

type reportService interface {
	PendingFees(ctx context.Context, selection models.Selection, format models.ExportFormat) (*service.RenderedReport, error)
	PersistPendingFees(ctx context.Context, selection models.Selection, format models.ExportFormat) (*dto.ExportLinkResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes the pending fees export.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// PendingFees godoc
// @Summary Export students with an outstanding balance
// @Tags Reports
// @Produce octet-stream
// @Produce json
// @Param format query string false "csv or pdf"
// @Param persist query bool false "Return a signed download link instead of the file"
// @Param year query []string false "Year filter" collectionFormat(multi)
// @Param program query []string false "Program filter" collectionFormat(multi)
// @Param status query []string false "Status filter" collectionFormat(multi)
// @Success 200 {file} binary
// @Success 201 {object} response.Envelope
// @Router /reports/pending-fees [get]
func (h *ReportHandler) PendingFees(c *gin.Context) {
	format, ok := models.ParseExportFormat(c.Query("format"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	selection := parseSelection(c, models.EntityStudents)

	persist, _ := strconv.ParseBool(c.DefaultQuery("persist", "false"))
	if persist {
		link, err := h.service.PersistPendingFees(c.Request.Context(), selection, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, link, nil)
		return
	}

	report, err := h.service.PendingFees(c.Request.Context(), selection, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, report.Filename, report.ContentType, report.Data, map[string]string{
		"X-Row-Count": strconv.Itoa(report.Rows),
	})
}

// Download godoc
// @Summary Download a persisted export via signed token
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /exports/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export"))
		return
	}
	response.AttachmentStream(c, result.Filename, result.ContentType, info.Size(), result.File)
}
