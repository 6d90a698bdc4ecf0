package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// DatasetSource identifies where a dataset's rows came from.
type DatasetSource string

const (
	DatasetSourceUpload  DatasetSource = "upload"
	DatasetSourceAcled   DatasetSource = "acled"
	DatasetSourceSdg     DatasetSource = "sdg"
	DatasetSourceMailbox DatasetSource = "mailbox"
	DatasetSourceQuery   DatasetSource = "query"
)

// DatasetStatus represents the current state of a dataset
type DatasetStatus string

const (
	DatasetStatusDraft DatasetStatus = "draft"
	DatasetStatusReady DatasetStatus = "ready"
	DatasetStatusError DatasetStatus = "error"
)

// Dataset is a named table in the analytical store. Uploaded files, ACLED
// pulls, SDG pulls and mailbox ingestions all land here; TableName is the
// DuckDB table carrying the rows.
type Dataset struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"not null" json:"name"`
	Description        string         `json:"description"`
	CreatorID          uint           `gorm:"not null" json:"creatorId"`
	Creator            User           `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Source             DatasetSource  `gorm:"not null;type:varchar(20)" json:"source"`
	TableName          string         `gorm:"not null;uniqueIndex;column:table_name" json:"tableName"`
	MetadataDatabaseID *uint          `json:"metadataDatabaseId,omitempty"`
	Query              string         `gorm:"type:text" json:"query,omitempty"`
	Schema             DatasetSchema  `gorm:"type:jsonb" json:"schema"`
	RowCount           int            `json:"rowCount"`
	Status             DatasetStatus  `gorm:"default:draft;type:varchar(20)" json:"status"`
	LastRefreshedAt    *time.Time     `json:"lastRefreshedAt,omitempty"`
	LastError          string         `json:"lastError,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// DatasetSchema holds the auto-detected column schema
type DatasetSchema struct {
	Columns []DatasetColumn `json:"columns"`
}

// DatasetColumn describes a single column in the dataset
type DatasetColumn struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"` // "string", "integer", "float", "boolean"
	Nullable bool   `json:"nullable"`
}

func (ds DatasetSchema) Value() (driver.Value, error) {
	return json.Marshal(ds)
}

func (ds *DatasetSchema) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan DatasetSchema: expected []byte")
	}
	return json.Unmarshal(bytes, ds)
}
