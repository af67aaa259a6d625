package models

import "strings"

// ExportFormat is a rendered report file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ParseExportFormat resolves a query value. An empty value means CSV.
func ParseExportFormat(raw string) (ExportFormat, bool) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatCSV:
		return ExportFormatCSV, true
	case ExportFormatPDF:
		return ExportFormatPDF, true
	default:
		return "", false
	}
}

// ContentType returns the MIME type served for the format.
func (f ExportFormat) ContentType() string {
	if f == ExportFormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}
