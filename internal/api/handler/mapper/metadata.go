package mapper

import (
	"studio/internal/api/handler/request"
	"studio/internal/api/handler/response"
	"studio/internal/api/models"
)

type MetadataMapper struct{}

func (m MetadataMapper) ToMetadataResponse(e models.MetadataDatabase) response.Metadata {
	return response.Metadata{
		ID:           e.ID,
		Name:         e.Name,
		Host:         e.Host,
		Port:         e.Port,
		User:         e.User,
		DatabaseName: e.DatabaseName,
		DbType:       e.DbType,
		SSLMode:      e.SSLMode,
	}
}

func (m MetadataMapper) ToMetadataResponses(entities []models.MetadataDatabase) []response.Metadata {
	result := make([]response.Metadata, len(entities))
	for i, e := range entities {
		result[i] = m.ToMetadataResponse(e)
	}
	return result
}

func (m MetadataMapper) CreateDbMetadata(req request.CreateMetadata) models.MetadataDatabase {
	return models.MetadataDatabase{
		Name:         req.Name,
		DbType:       models.DBType(req.DbType),
		Host:         req.Host,
		Port:         req.Port,
		User:         req.User,
		Password:     req.Password,
		DatabaseName: req.DatabaseName,
		SSLMode:      req.SSLMode,
	}
}

func (m MetadataMapper) PatchDbMetadata(req request.UpdateMetadata) map[string]any {
	patch := map[string]any{}
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.DbType != nil {
		patch["db_type"] = *req.DbType
	}
	if req.Host != nil {
		patch["host"] = *req.Host
	}
	if req.Port != nil {
		patch["port"] = *req.Port
	}
	if req.User != nil {
		patch["user"] = *req.User
	}
	if req.Password != nil {
		patch["password"] = *req.Password
	}
	if req.DatabaseName != nil {
		patch["database_name"] = *req.DatabaseName
	}
	if req.SSLMode != nil {
		patch["ssl_mode"] = *req.SSLMode
	}
	return patch
}

func (m MetadataMapper) ToEmailMetadataResponse(e models.MetadataEmail) response.EmailMetadata {
	return response.EmailMetadata{
		ID:       e.ID,
		Name:     e.Name,
		ImapHost: e.ImapHost,
		ImapPort: e.ImapPort,
		SmtpHost: e.SmtpHost,
		SmtpPort: e.SmtpPort,
		Username: e.Username,
		UseTLS:   e.UseTLS,
		Folder:   e.Folder,
	}
}

func (m MetadataMapper) ToEmailMetadataResponses(entities []models.MetadataEmail) []response.EmailMetadata {
	result := make([]response.EmailMetadata, len(entities))
	for i, e := range entities {
		result[i] = m.ToEmailMetadataResponse(e)
	}
	return result
}

func (m MetadataMapper) CreateEmailMetadata(req request.CreateEmailMetadata) models.MetadataEmail {
	return models.MetadataEmail{
		Name:     req.Name,
		ImapHost: req.ImapHost,
		ImapPort: req.ImapPort,
		SmtpHost: req.SmtpHost,
		SmtpPort: req.SmtpPort,
		Username: req.Username,
		Password: req.Password,
		UseTLS:   req.UseTLS,
		Folder:   req.Folder,
	}
}

func (m MetadataMapper) PatchEmailMetadata(req request.UpdateEmailMetadata) map[string]any {
	patch := map[string]any{}
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.ImapHost != nil {
		patch["imap_host"] = *req.ImapHost
	}
	if req.ImapPort != nil {
		patch["imap_port"] = *req.ImapPort
	}
	if req.SmtpHost != nil {
		patch["smtp_host"] = *req.SmtpHost
	}
	if req.SmtpPort != nil {
		patch["smtp_port"] = *req.SmtpPort
	}
	if req.Username != nil {
		patch["username"] = *req.Username
	}
	if req.Password != nil {
		patch["password"] = *req.Password
	}
	if req.UseTLS != nil {
		patch["use_tls"] = *req.UseTLS
	}
	if req.Folder != nil {
		patch["folder"] = *req.Folder
	}
	return patch
}
