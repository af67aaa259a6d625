package dto

import "github.com/noah-isme/scas-api/internal/models"

// UploadPreviewResponse shows what a spreadsheet would load.
type UploadPreviewResponse struct {
	Entity   models.Entity       `json:"entity"`
	Filename string              `json:"filename"`
	Format   string              `json:"format"`
	Headers  []string            `json:"headers"`
	RowCount int                 `json:"row_count"`
	Rows     []map[string]string `json:"rows"`
	Missing  []string            `json:"missing_columns,omitempty"`
	Unknown  []string            `json:"unknown_columns,omitempty"`
}

// UploadResultResponse reports a committed bulk replace.
type UploadResultResponse struct {
	Entity      models.Entity `json:"entity"`
	Filename    string        `json:"filename"`
	RowsWritten int           `json:"rows_written"`
	ArchiveKey  string        `json:"archive_key,omitempty"`
	Archived    bool          `json:"archived"`
}
