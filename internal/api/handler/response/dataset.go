package response

import (
	"time"

	"studio/internal/api/models"
)

// DatasetSummary is the response for a dataset in list views
type DatasetSummary struct {
	ID              uint                 `json:"id"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	CreatorID       uint                 `json:"creatorId"`
	Source          models.DatasetSource `json:"source"`
	Status          models.DatasetStatus `json:"status"`
	ColumnCount     int                  `json:"columnCount"`
	RowCount        int                  `json:"rowCount"`
	LastRefreshedAt *time.Time           `json:"lastRefreshedAt,omitempty"`
	LastError       string               `json:"lastError,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// DatasetWithDetails is the full response for a single dataset
type DatasetWithDetails struct {
	ID                 uint                 `json:"id"`
	Name               string               `json:"name"`
	Description        string               `json:"description"`
	CreatorID          uint                 `json:"creatorId"`
	Source             models.DatasetSource `json:"source"`
	TableName          string               `json:"tableName"`
	MetadataDatabaseID *uint                `json:"metadataDatabaseId,omitempty"`
	Query              string               `json:"query,omitempty"`
	Schema             models.DatasetSchema `json:"schema"`
	Status             models.DatasetStatus `json:"status"`
	RowCount           int                  `json:"rowCount"`
	LastRefreshedAt    *time.Time           `json:"lastRefreshedAt,omitempty"`
	LastError          string               `json:"lastError,omitempty"`
	CreatedAt          time.Time            `json:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt"`
}

// TableResult carries rows returned by a preview or an analytics query.
type TableResult struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"rowCount"`
}
