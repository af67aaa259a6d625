package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scas-api/internal/dto"
	"github.com/noah-isme/scas-api/internal/middleware"
	"github.com/noah-isme/scas-api/internal/models"
	appErrors "github.com/noah-isme/scas-api/pkg/errors"
	"github.com/noah-isme/scas-api/pkg/response"
)

type dashboardService interface {
	Overview(ctx context.Context, selection models.Selection) (*dto.OverviewResponse, bool, error)
	Students(ctx context.Context, selection models.Selection) (*dto.StudentDashboardResponse, bool, error)
	Faculty(ctx context.Context, selection models.Selection) (*dto.FacultyDashboardResponse, bool, error)
	Facilities(ctx context.Context, selection models.Selection) (*dto.FacilityDashboardResponse, bool, error)
	ValidateFacilities(ctx context.Context) (*dto.ValidationResponse, error)
	FilterOptions(ctx context.Context, entity models.Entity) (*dto.FilterOptionsResponse, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Overview godoc
// @Summary Overall campus KPIs
// @Description Each filter narrows only the collection that has the field.
// @Tags Dashboard
// @Produce json
// @Param year query []string false "Student year filter" collectionFormat(multi)
// @Param program query []string false "Student program filter" collectionFormat(multi)
// @Param status query []string false "Student status filter" collectionFormat(multi)
// @Param department query []string false "Faculty department filter" collectionFormat(multi)
// @Param facility_type query []string false "Facility type filter" collectionFormat(multi)
// @Param maintenance_status query []string false "Maintenance status filter" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /dashboard/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	selection := parseSelection(c, models.EntityStudents, models.EntityFaculty, models.EntityFacilities)
	resp, hit, err := h.service.Overview(c.Request.Context(), selection)
	h.respond(c, resp, hit, err)
}

// Students godoc
// @Summary Student KPIs and chart series
// @Tags Dashboard
// @Produce json
// @Param year query []string false "Year filter" collectionFormat(multi)
// @Param program query []string false "Program filter" collectionFormat(multi)
// @Param status query []string false "Status filter" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /dashboard/students [get]
func (h *DashboardHandler) Students(c *gin.Context) {
	resp, hit, err := h.service.Students(c.Request.Context(), parseSelection(c, models.EntityStudents))
	h.respond(c, resp, hit, err)
}

// Faculty godoc
// @Summary Faculty KPIs and chart series
// @Tags Dashboard
// @Produce json
// @Param department query []string false "Department filter" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /dashboard/faculty [get]
func (h *DashboardHandler) Faculty(c *gin.Context) {
	resp, hit, err := h.service.Faculty(c.Request.Context(), parseSelection(c, models.EntityFaculty))
	h.respond(c, resp, hit, err)
}

// Facilities godoc
// @Summary Facility KPIs, chart series and consistency issues
// @Tags Dashboard
// @Produce json
// @Param facility_type query []string false "Facility type filter" collectionFormat(multi)
// @Param maintenance_status query []string false "Maintenance status filter" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /dashboard/facilities [get]
func (h *DashboardHandler) Facilities(c *gin.Context) {
	resp, hit, err := h.service.Facilities(c.Request.Context(), parseSelection(c, models.EntityFacilities))
	h.respond(c, resp, hit, err)
}

// FilterOptions godoc
// @Summary Selectable filter values of a collection
// @Tags Dashboard
// @Produce json
// @Param entity query string true "students, faculty or facilities"
// @Success 200 {object} response.Envelope
// @Router /dashboard/filters [get]
func (h *DashboardHandler) FilterOptions(c *gin.Context) {
	entity, ok := models.ParseEntity(c.Query("entity"))
	if !ok {
		response.Error(c, appErrors.ErrUnknownEntity)
		return
	}
	resp, err := h.service.FilterOptions(c.Request.Context(), entity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, middleware.ExtractMeta(c))
}

// Validation godoc
// @Summary Facility consistency checks over the whole collection
// @Tags Facilities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /facilities/validation [get]
func (h *DashboardHandler) Validation(c *gin.Context) {
	resp, err := h.service.ValidateFacilities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, middleware.ExtractMeta(c))
}

func (h *DashboardHandler) respond(c *gin.Context, data interface{}, cacheHit bool, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, data, middleware.ExtractMeta(c))
}
