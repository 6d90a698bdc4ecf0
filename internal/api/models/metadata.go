package models

import "fmt"

type DBType string

const (
	DBTypePostgres  DBType = "postgres"
	DBTypeMySQL     DBType = "mysql"
	DBTypeSQLServer DBType = "sqlserver"
)

type MetadataDatabase struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Name         string `json:"name"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	SSLMode      string `json:"sslMode"`
	Extra        string `json:"extra"`
	DbType       DBType `json:"dbType" gorm:"type:varchar(20)"`
}

// ConnectionString builds the DSN for the configured driver.
func (m MetadataDatabase) ConnectionString() (string, error) {
	switch m.DbType {
	case DBTypePostgres:
		ssl := m.SSLMode
		if ssl == "" {
			ssl = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			m.Host, m.Port, m.User, m.Password, m.DatabaseName, ssl), nil
	case DBTypeMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
			m.User, m.Password, m.Host, m.Port, m.DatabaseName), nil
	case DBTypeSQLServer:
		return fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
			m.User, m.Password, m.Host, m.Port, m.DatabaseName), nil
	default:
		return "", fmt.Errorf("unsupported database type: %q", m.DbType)
	}
}

// DriverName maps the metadata type onto the registered sql driver.
func (m MetadataDatabase) DriverName() (string, error) {
	switch m.DbType {
	case DBTypePostgres:
		return "postgres", nil
	case DBTypeMySQL:
		return "mysql", nil
	case DBTypeSQLServer:
		return "sqlserver", nil
	default:
		return "", fmt.Errorf("unsupported database type: %q", m.DbType)
	}
}
