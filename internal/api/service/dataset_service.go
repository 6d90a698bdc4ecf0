package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"studio"
	"studio/internal/analytics"
	"studio/internal/api/models"
	"studio/internal/api/repo"
	"studio/internal/frame"
	"studio/pkg"
)

const previewCacheTTL = 10 * time.Minute

func previewCacheKey(id uint, limit int) string {
	return fmt.Sprintf("dataset:%d:preview:%d", id, limit)
}

type DatasetService struct {
	datasetRepo *repo.DatasetRepository
	engine      *analytics.Engine
	events      *EventPublisher
	logger      zerolog.Logger
}

func NewDatasetService(engine *analytics.Engine, events *EventPublisher) *DatasetService {
	return &DatasetService{
		datasetRepo: repo.NewDatasetRepository(),
		engine:      engine,
		events:      events,
		logger:      studio.Logger,
	}
}

// FindAllForUser retrieves all datasets for a given user
func (s *DatasetService) FindAllForUser(userID uint) ([]models.Dataset, error) {
	datasets, err := s.datasetRepo.FindAllByCreator(userID)
	if err != nil {
		s.logger.Error().Err(err).Uint("userID", userID).Msg("Error getting datasets for user")
		return nil, err
	}
	return datasets, nil
}

// FindByID retrieves a single dataset by ID
func (s *DatasetService) FindByID(id uint) (*models.Dataset, error) {
	dataset, err := s.datasetRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("dataset not found")
		}
		s.logger.Error().Err(err).Uint("datasetId", id).Msg("Error getting dataset")
		return nil, err
	}
	return &dataset, nil
}

// CanUserAccess checks if a user owns the given dataset
func (s *DatasetService) CanUserAccess(datasetID, userID uint) (bool, error) {
	dataset, err := s.datasetRepo.FindByID(datasetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, errors.New("dataset not found")
		}
		return false, err
	}
	return dataset.CreatorID == userID, nil
}

// IngestFrame materializes a frame into the analytical store and records the
// dataset. It is the single landing point for uploads, ACLED pulls, SDG
// pulls and mailbox attachments.
func (s *DatasetService) IngestFrame(ctx context.Context, dataset models.Dataset, f *frame.Frame) (*models.Dataset, error) {
	if dataset.Name == "" {
		return nil, errors.New("name is required")
	}
	if f == nil || f.NumCols() == 0 {
		return nil, errors.New("dataset has no columns")
	}
	base := dataset.TableName
	if base == "" {
		base = tableNameFor(dataset.Name)
	}
	tableName, err := s.availableTableName(base)
	if err != nil {
		return nil, err
	}
	dataset.TableName = tableName

	// The catalog row is created before the table is materialized: a name
	// race fails on the unique index here, before anything in the
	// analytical store is touched.
	dataset.Status = models.DatasetStatusDraft
	if err := s.datasetRepo.Create(&dataset); err != nil {
		s.logger.Error().Err(err).Msg("Error creating dataset")
		return nil, err
	}

	if err := s.engine.Register(ctx, dataset.TableName, f); err != nil {
		s.logger.Error().Err(err).Str("table", dataset.TableName).Msg("Error materializing dataset")
		dataset.Status = models.DatasetStatusError
		dataset.LastError = err.Error()
		if updateErr := s.datasetRepo.Update(&dataset); updateErr != nil {
			return nil, updateErr
		}
		return &dataset, err
	}

	dataset.Schema = schemaFromFrame(f)
	dataset.RowCount = f.NumRows()
	dataset.Status = models.DatasetStatusReady
	now := time.Now()
	dataset.LastRefreshedAt = &now
	dataset.LastError = ""

	if err := s.datasetRepo.Update(&dataset); err != nil {
		s.logger.Error().Err(err).Msg("Error updating dataset")
		return nil, err
	}

	s.events.Publish(SubjectDatasetIngested, DatasetIngestedEvent{
		DatasetID: dataset.ID,
		Name:      dataset.Name,
		TableName: dataset.TableName,
		Source:    string(dataset.Source),
		RowCount:  dataset.RowCount,
	})
	s.logger.Info().Uint("datasetId", dataset.ID).Str("table", dataset.TableName).Int("rows", dataset.RowCount).Msg("Dataset ingested")
	return &dataset, nil
}

// availableTableName suffixes the base name until no catalog row, soft
// deleted or live, holds it. Two display names can normalize to the same
// identifier ("Sales 2024" and "sales-2024"), and the second must never
// drop the first one's table.
func (s *DatasetService) availableTableName(base string) (string, error) {
	name := base
	for i := 2; ; i++ {
		taken, err := s.datasetRepo.TableNameTaken(name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
}

// IngestCSV parses CSV content and ingests it.
func (s *DatasetService) IngestCSV(ctx context.Context, dataset models.Dataset, r io.Reader) (*models.Dataset, error) {
	f, err := frame.ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return s.IngestFrame(ctx, dataset, f)
}

// Update changes a dataset's name or description. Rows are immutable; a new
// ingest replaces them.
func (s *DatasetService) Update(id uint, patch models.Dataset) (*models.Dataset, error) {
	existing, err := s.datasetRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("dataset not found")
		}
		return nil, err
	}

	if patch.Name != "" {
		existing.Name = patch.Name
	}
	if patch.Description != "" {
		existing.Description = patch.Description
	}

	if err := s.datasetRepo.Update(&existing); err != nil {
		s.logger.Error().Err(err).Uint("datasetId", id).Msg("Error updating dataset")
		return nil, err
	}
	return &existing, nil
}

// Delete soft-deletes the record and drops the backing table.
func (s *DatasetService) Delete(ctx context.Context, id uint) error {
	dataset, err := s.datasetRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("dataset not found")
		}
		return err
	}
	if err := s.engine.Drop(ctx, dataset.TableName); err != nil {
		s.logger.Warn().Err(err).Str("table", dataset.TableName).Msg("Error dropping dataset table")
	}
	if err := s.datasetRepo.Delete(id); err != nil {
		s.logger.Error().Err(err).Uint("datasetId", id).Msg("Error deleting dataset")
		return err
	}
	_ = pkg.RedisDelete(previewCacheKey(id, 100))
	return nil
}

// Preview returns the first rows of the dataset. Rows are immutable after
// ingest, so the preview is cached in Redis.
func (s *DatasetService) Preview(ctx context.Context, id uint, limit int) (*frame.Frame, error) {
	dataset, err := s.datasetRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("dataset not found")
		}
		return nil, err
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	cacheKey := previewCacheKey(id, limit)
	var cached frame.Frame
	if err := pkg.RedisGet(cacheKey, &cached); err == nil {
		return &cached, nil
	}

	f, err := s.engine.Query(ctx, fmt.Sprintf(`SELECT * FROM "%s"`, dataset.TableName), limit)
	if err != nil {
		return nil, err
	}
	_ = pkg.RedisSet(cacheKey, f, previewCacheTTL)
	return f, nil
}

// Frame loads the full dataset for sandboxed analysis.
func (s *DatasetService) Frame(ctx context.Context, id uint) (*frame.Frame, error) {
	dataset, err := s.datasetRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("dataset not found")
		}
		return nil, err
	}
	return s.engine.Query(ctx, fmt.Sprintf(`SELECT * FROM "%s"`, dataset.TableName), 0)
}

// Query runs read-only SQL against the analytical store.
func (s *DatasetService) Query(ctx context.Context, sqlText string, limit int) (*frame.Frame, error) {
	if limit <= 0 || limit > 10000 {
		limit = 1000
	}
	return s.engine.Query(ctx, sqlText, limit)
}

// ImportFromDatabase pulls rows from an external connection and ingests them
// as a dataset.
func (s *DatasetService) ImportFromDatabase(ctx context.Context, dataset models.Dataset, meta models.MetadataDatabase, query string, limit int) (*models.Dataset, error) {
	if !pkg.IsSafeSelect(query) {
		return nil, errors.New("only SELECT statements are allowed")
	}
	if limit <= 0 || limit > 100000 {
		limit = 10000
	}

	f, err := s.fetchExternal(ctx, meta, query, limit)
	if err != nil {
		return nil, err
	}

	dataset.Source = models.DatasetSourceQuery
	dataset.MetadataDatabaseID = &meta.ID
	dataset.Query = query
	return s.IngestFrame(ctx, dataset, f)
}

func (s *DatasetService) fetchExternal(ctx context.Context, meta models.MetadataDatabase, query string, limit int) (*frame.Frame, error) {
	driver, err := meta.DriverName()
	if err != nil {
		return nil, err
	}
	dsn, err := meta.ConnectionString()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	defer db.Close()
	db.SetConnMaxLifetime(30 * time.Second)
	db.SetMaxOpenConns(2)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	wrapped := fmt.Sprintf("SELECT * FROM (%s) AS _ds_import LIMIT %d", query, limit)
	if meta.DbType == models.DBTypeSQLServer {
		wrapped = fmt.Sprintf("SELECT TOP %d * FROM (%s) AS _ds_import", limit, query)
	}

	rows, err := db.QueryContext(ctx, wrapped)
	if err != nil {
		return nil, fmt.Errorf("import query failed: %w", err)
	}
	defer rows.Close()

	return scanRowsToFrame(rows)
}

// scanRowsToFrame reads all rows from a *sql.Rows into a frame.
func scanRowsToFrame(rows *sql.Rows) (*frame.Frame, error) {
	colNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get column names: %w", err)
	}

	out := frame.New(colNames)
	for rows.Next() {
		values := make([]any, len(colNames))
		valuePtrs := make([]any, len(colNames))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, val := range values {
			// Convert []byte to string for JSON serialization
			if b, ok := val.([]byte); ok {
				values[i] = string(b)
			}
		}
		out.Rows = append(out.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func schemaFromFrame(f *frame.Frame) models.DatasetSchema {
	var columns []models.DatasetColumn
	for i, info := range f.Schema() {
		nullable := false
		for _, row := range f.Rows {
			if row[i] == nil {
				nullable = true
				break
			}
		}
		columns = append(columns, models.DatasetColumn{
			Name:     info.Name,
			DataType: datasetColumnType(info.Type),
			Nullable: nullable,
		})
	}
	return models.DatasetSchema{Columns: columns}
}

func datasetColumnType(frameType string) string {
	switch frameType {
	case "integer":
		return "integer"
	case "double":
		return "float"
	case "boolean":
		return "boolean"
	default:
		return "string"
	}
}

// tableNameFor turns a display name into a safe table identifier.
func tableNameFor(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			sb.WriteRune('_')
		}
	}
	out := strings.Trim(sb.String(), "_")
	if out == "" {
		out = "dataset"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "ds_" + out
	}
	return out
}
