package mapper

import (
	"studio/internal/api/handler/request"
	"studio/internal/api/handler/response"
	"studio/internal/api/models"
	"studio/internal/frame"
)

type DatasetMapper struct{}

func (m DatasetMapper) ToDatasetPatch(req request.UpdateDataset) models.Dataset {
	patch := models.Dataset{}
	if req.Name != nil {
		patch.Name = *req.Name
	}
	if req.Description != nil {
		patch.Description = *req.Description
	}
	return patch
}

func (m DatasetMapper) ToDatasetSummary(d models.Dataset) response.DatasetSummary {
	return response.DatasetSummary{
		ID:              d.ID,
		Name:            d.Name,
		Description:     d.Description,
		CreatorID:       d.CreatorID,
		Source:          d.Source,
		Status:          d.Status,
		ColumnCount:     len(d.Schema.Columns),
		RowCount:        d.RowCount,
		LastRefreshedAt: d.LastRefreshedAt,
		LastError:       d.LastError,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (m DatasetMapper) ToDatasetSummaries(datasets []models.Dataset) []response.DatasetSummary {
	result := make([]response.DatasetSummary, len(datasets))
	for i, d := range datasets {
		result[i] = m.ToDatasetSummary(d)
	}
	return result
}

func (m DatasetMapper) ToDatasetWithDetails(d models.Dataset) response.DatasetWithDetails {
	return response.DatasetWithDetails{
		ID:                 d.ID,
		Name:               d.Name,
		Description:        d.Description,
		CreatorID:          d.CreatorID,
		Source:             d.Source,
		TableName:          d.TableName,
		MetadataDatabaseID: d.MetadataDatabaseID,
		Query:              d.Query,
		Schema:             d.Schema,
		Status:             d.Status,
		RowCount:           d.RowCount,
		LastRefreshedAt:    d.LastRefreshedAt,
		LastError:          d.LastError,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func (m DatasetMapper) ToTableResult(f *frame.Frame) response.TableResult {
	return response.TableResult{
		Columns:  f.Columns,
		Rows:     f.Rows,
		RowCount: f.NumRows(),
	}
}
