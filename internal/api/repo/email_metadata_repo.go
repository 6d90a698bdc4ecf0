package repo

import (
	"studio"

	"gorm.io/gorm"
)

type EmailMetadataRepository struct {
	Db *gorm.DB
}

func NewEmailMetadataRepository() *EmailMetadataRepository {
	return &EmailMetadataRepository{
		Db: studio.DB,
	}
}
