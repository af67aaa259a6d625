package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scas-api/internal/models"
)

// filterParams maps query parameters to the filter fields they select.
var filterParams = map[string]string{
	"year":               models.ColYear,
	"program":            models.ColProgram,
	"status":             models.ColStatus,
	"department":         models.ColDepartment,
	"facility_type":      models.ColFacilityType,
	"maintenance_status": models.ColMaintenanceStatus,
}

// parseSelection reads the filter fields of the given entities from the query string. A
// parameter may repeat or carry comma separated values; blanks are dropped.
func parseSelection(c *gin.Context, entities ...models.Entity) models.Selection {
	allowed := make(map[string]struct{})
	for _, entity := range entities {
		for _, field := range entity.Spec().FilterFields {
			allowed[field] = struct{}{}
		}
	}

	selection := models.Selection{}
	for param, field := range filterParams {
		if _, ok := allowed[field]; !ok {
			continue
		}
		var values []string
		for _, raw := range c.QueryArray(param) {
			for _, part := range strings.Split(raw, ",") {
				if v := strings.TrimSpace(part); v != "" {
					values = append(values, v)
				}
			}
		}
		if len(values) > 0 {
			selection[field] = values
		}
	}
	return selection
}
