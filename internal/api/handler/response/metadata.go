package response

import "studio/internal/api/models"

type Metadata struct {
	ID           uint          `json:"id"`
	Name         string        `json:"name"`
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	User         string        `json:"user"`
	DatabaseName string        `json:"databaseName"`
	DbType       models.DBType `json:"dbType"`
	SSLMode      string        `json:"sslMode"`
}

type TestConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Version string `json:"version,omitempty"`
}

type DatabaseTable struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
}

type DatabaseColumn struct {
	Name       string `json:"name"`
	DataType   string `json:"dataType"`
	IsNullable bool   `json:"isNullable"`
	IsPrimary  bool   `json:"isPrimary"`
}

type DatabaseIntrospection struct {
	Tables  []DatabaseTable  `json:"tables,omitempty"`
	Columns []DatabaseColumn `json:"columns,omitempty"`
}
