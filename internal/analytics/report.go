package analytics

import (
	"strconv"

	"github.com/noah-isme/scas-api/internal/models"
)

// PendingFeeColumns is the fixed column order of the pending-fees report.
var PendingFeeColumns = []string{
	models.ColStudentID,
	models.ColName,
	models.ColProgram,
	models.ColYear,
	models.ColTotalFeeINR,
	models.ColFeePaidINR,
	models.ColPendingFeeINR,
	models.ColFeeStatus,
}

// PendingFeeRows flattens the students into report rows keyed by column name.
// Missing optional values render as empty cells.
func PendingFeeRows(students []models.Student) []map[string]string {
	rows := make([]map[string]string, 0, len(students))
	for _, s := range students {
		row := map[string]string{
			models.ColStudentID:     s.StudentID,
			models.ColName:          s.Name,
			models.ColProgram:       s.Program,
			models.ColYear:          "",
			models.ColTotalFeeINR:   formatAmount(s.TotalFeeINR),
			models.ColFeePaidINR:    formatAmount(s.FeePaidINR),
			models.ColPendingFeeINR: formatAmount(s.PendingFeeINR),
			models.ColFeeStatus:     "",
		}
		if s.Year != nil {
			row[models.ColYear] = strconv.Itoa(*s.Year)
		}
		if s.FeeStatus != nil {
			row[models.ColFeeStatus] = *s.FeeStatus
		}
		rows = append(rows, row)
	}
	return rows
}

// HasPendingFeeColumns reports whether the schema can back the pending-fees report.
func HasPendingFeeColumns(schema models.Schema) bool {
	return schema.Has(models.ColProgram) && schema.Has(models.ColPendingFeeINR)
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
