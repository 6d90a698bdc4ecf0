package repo

import (
	"studio"

	"gorm.io/gorm"
)

type MetadataRepository struct {
	Db *gorm.DB
}

func NewMetadataRepository() *MetadataRepository {
	return &MetadataRepository{
		Db: studio.DB,
	}
}
