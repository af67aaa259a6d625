package dto

import "time"

// ExportLinkResponse is returned when a report is persisted for later download.
type ExportLinkResponse struct {
	ID        string    `json:"id"`
	Format    string    `json:"format"`
	Filename  string    `json:"filename"`
	Rows      int       `json:"rows"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
