package dto

import "github.com/noah-isme/scas-api/internal/models"

// RecordListResponse returns a whole collection in store order.
type RecordListResponse struct {
	Entity  models.Entity `json:"entity"`
	Columns []string      `json:"columns"`
	Rows    []models.Row  `json:"rows"`
	Count   int           `json:"count"`
}

// RecordResponse returns a single saved record, projected onto the stored columns.
type RecordResponse struct {
	Entity  models.Entity `json:"entity"`
	Key     string        `json:"key"`
	Created bool          `json:"created"`
	Record  models.Row    `json:"record"`
}
