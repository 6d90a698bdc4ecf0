package repo

import (
	"studio"
	"studio/internal/api/models"

	"gorm.io/gorm"
)

type DatasetRepository struct {
	Db *gorm.DB
}

func NewDatasetRepository() *DatasetRepository {
	return &DatasetRepository{Db: studio.DB}
}

func (r *DatasetRepository) FindByID(id uint) (models.Dataset, error) {
	var dataset models.Dataset
	err := r.Db.First(&dataset, id).Error
	return dataset, err
}

func (r *DatasetRepository) FindAllByCreator(creatorID uint) ([]models.Dataset, error) {
	var datasets []models.Dataset
	err := r.Db.
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&datasets).Error
	return datasets, err
}

func (r *DatasetRepository) FindByTableName(tableName string) (models.Dataset, error) {
	var dataset models.Dataset
	err := r.Db.Where("table_name = ?", tableName).First(&dataset).Error
	return dataset, err
}

// TableNameTaken reports whether any dataset row holds the given table
// name. Soft-deleted rows still occupy the unique index, so the check runs
// unscoped.
func (r *DatasetRepository) TableNameTaken(tableName string) (bool, error) {
	var count int64
	err := r.Db.Unscoped().Model(&models.Dataset{}).Where("table_name = ?", tableName).Count(&count).Error
	return count > 0, err
}

func (r *DatasetRepository) FindAll() ([]models.Dataset, error) {
	var datasets []models.Dataset
	err := r.Db.Order("created_at DESC").Find(&datasets).Error
	return datasets, err
}

func (r *DatasetRepository) Create(dataset *models.Dataset) error {
	return r.Db.Create(dataset).Error
}

func (r *DatasetRepository) Update(dataset *models.Dataset) error {
	return r.Db.Save(dataset).Error
}

func (r *DatasetRepository) Delete(id uint) error {
	return r.Db.Delete(&models.Dataset{}, id).Error
}
