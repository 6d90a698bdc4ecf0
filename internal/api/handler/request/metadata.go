package request

// DB connection metadata DTOs

type CreateMetadata struct {
	Name         string `json:"name" validate:"required"`
	DbType       string `json:"dbType" validate:"required,oneof=postgres mysql sqlserver"`
	Host         string `json:"host" validate:"required"`
	Port         int    `json:"port" validate:"required"`
	User         string `json:"user"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName" validate:"required"`
	SSLMode      string `json:"sslMode"`
}

type UpdateMetadata struct {
	Name         *string `json:"name,omitempty"`
	DbType       *string `json:"dbType,omitempty"`
	Host         *string `json:"host,omitempty"`
	Port         *int    `json:"port,omitempty"`
	User         *string `json:"user,omitempty"`
	Password     *string `json:"password,omitempty"`
	DatabaseName *string `json:"databaseName,omitempty"`
	SSLMode      *string `json:"sslMode,omitempty"`
}

// Mailbox metadata DTOs

type CreateEmailMetadata struct {
	Name     string `json:"name" validate:"required"`
	ImapHost string `json:"imapHost"`
	ImapPort int    `json:"imapPort"`
	SmtpHost string `json:"smtpHost"`
	SmtpPort int    `json:"smtpPort"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
	UseTLS   bool   `json:"useTls"`
	Folder   string `json:"folder"`
}

type UpdateEmailMetadata struct {
	Name     *string `json:"name,omitempty"`
	ImapHost *string `json:"imapHost,omitempty"`
	ImapPort *int    `json:"imapPort,omitempty"`
	SmtpHost *string `json:"smtpHost,omitempty"`
	SmtpPort *int    `json:"smtpPort,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	UseTLS   *bool   `json:"useTls,omitempty"`
	Folder   *string `json:"folder,omitempty"`
}

// Introspection DTOs

type IntrospectTables struct {
	MetadataDatabaseID uint `json:"metadataDatabaseId" validate:"required"`
}

type IntrospectColumns struct {
	MetadataDatabaseID uint   `json:"metadataDatabaseId" validate:"required"`
	TableName          string `json:"tableName" validate:"required"`
}
