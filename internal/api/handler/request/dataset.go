package request

// UpdateDataset renames or re-describes a dataset. Rows are immutable.
type UpdateDataset struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ImportDataset pulls rows from a registered external connection.
type ImportDataset struct {
	Name               string `json:"name" validate:"required"`
	Description        string `json:"description"`
	MetadataDatabaseID uint   `json:"metadataDatabaseId" validate:"required"`
	Query              string `json:"query" validate:"required"`
	Limit              int    `json:"limit"`
}

// AnalyticsQuery runs read-only SQL against the analytical store.
type AnalyticsQuery struct {
	Sql   string `json:"sql" validate:"required"`
	Limit int    `json:"limit"` // defaults to 1000, max 10000
}

// SendReport mails a dataset export.
type SendReport struct {
	Recipients []string `json:"recipients" validate:"required,min=1,dive,email"`
	Note       string   `json:"note"`
}
