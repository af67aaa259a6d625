package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scas-api/internal/dto"
	"github.com/noah-isme/scas-api/internal/editor"
	"github.com/noah-isme/scas-api/internal/middleware"
	"github.com/noah-isme/scas-api/internal/models"
	appErrors "github.com/noah-isme/scas-api/pkg/errors"
	"github.com/noah-isme/scas-api/pkg/response"
)

type recordService interface {
	List(ctx context.Context, entity models.Entity) (*dto.RecordListResponse, error)
	Get(ctx context.Context, entity models.Entity, key string) (*dto.RecordResponse, error)
	Create(ctx context.Context, entity models.Entity, form editor.Form) (*dto.RecordResponse, error)
	Update(ctx context.Context, entity models.Entity, key string, form editor.Form) (*dto.RecordResponse, error)
}

// RecordHandler serves the add and edit forms of one collection.
type RecordHandler struct {
	service recordService
	entity  models.Entity
}

// NewRecordHandler constructs the handler for entity.
func NewRecordHandler(service recordService, entity models.Entity) *RecordHandler {
	return &RecordHandler{service: service, entity: entity}
}

// List godoc
// @Summary List every record of a collection
// @Tags Records
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students [get]
// @Router /faculty [get]
// @Router /facilities [get]
func (h *RecordHandler) List(c *gin.Context) {
	resp, err := h.service.List(c.Request.Context(), h.entity)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", resp.Count)
	response.JSON(c, http.StatusOK, resp, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get a record by key
// @Tags Records
// @Produce json
// @Param id path string true "Record key"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
// @Router /faculty/{id} [get]
// @Router /facilities/{id} [get]
func (h *RecordHandler) Get(c *gin.Context) {
	key, ok := recordKey(c)
	if !ok {
		return
	}
	resp, err := h.service.Get(c.Request.Context(), h.entity, key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Create godoc
// @Summary Add a record with a generated key
// @Tags Records
// @Accept json
// @Produce json
// @Param payload body map[string]interface{} true "Form fields"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
// @Router /faculty [post]
// @Router /facilities [post]
func (h *RecordHandler) Create(c *gin.Context) {
	form, ok := bindForm(c)
	if !ok {
		return
	}
	resp, err := h.service.Create(c.Request.Context(), h.entity, form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp, nil)
}

// Update godoc
// @Summary Edit a record, keeping fields the form omits
// @Tags Records
// @Accept json
// @Produce json
// @Param id path string true "Record key"
// @Param payload body map[string]interface{} true "Form fields"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
// @Router /faculty/{id} [put]
// @Router /facilities/{id} [put]
func (h *RecordHandler) Update(c *gin.Context) {
	key, ok := recordKey(c)
	if !ok {
		return
	}
	form, ok := bindForm(c)
	if !ok {
		return
	}
	resp, err := h.service.Update(c.Request.Context(), h.entity, key, form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

func recordKey(c *gin.Context) (string, bool) {
	key := strings.TrimSpace(c.Param("id"))
	if key == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "record key is required"))
		return "", false
	}
	return key, true
}

func bindForm(c *gin.Context) (editor.Form, bool) {
	var form editor.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid form payload"))
		return nil, false
	}
	if form == nil {
		form = editor.Form{}
	}
	return form, true
}
