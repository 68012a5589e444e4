package repositories

import (
	"errors"
	"time"

	"campusnest_backend/internal/logger"
	"campusnest_backend/internal/models"

	"gorm.io/gorm"
)

var ErrUploadNotFound = errors.New("upload not found")

type UploadRepository interface {
	Create(db *gorm.DB, upload *models.Upload) error
	CreateBatch(db *gorm.DB, uploads []*models.Upload) error
	FindByID(db *gorm.DB, id string) (*models.Upload, error)
	// FindByCategory lists newest first. An empty category lists everything.
	FindByCategory(db *gorm.DB, category string, limit, offset int) ([]models.Upload, int64, error)
}

type UploadRepositoryImpl struct{}

func NewUploadRepository() UploadRepository {
	return &UploadRepositoryImpl{}
}

func (r *UploadRepositoryImpl) Create(db *gorm.DB, upload *models.Upload) error {
	start := time.Now()
	err := db.Create(upload).Error
	logger.DBLog("create", "uploads", time.Since(start), err)
	return err
}

// CreateBatch inserts all records in one statement.
func (r *UploadRepositoryImpl) CreateBatch(db *gorm.DB, uploads []*models.Upload) error {
	if len(uploads) == 0 {
		return nil
	}
	start := time.Now()
	err := db.Create(&uploads).Error
	logger.DBLog("create_batch", "uploads", time.Since(start), err)
	return err
}

func (r *UploadRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Upload, error) {
	start := time.Now()
	var upload models.Upload
	err := db.Where("id = ?", id).First(&upload).Error
	logger.DBLog("find_by_id", "uploads", time.Since(start), ignoreNotFound(err))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return &upload, nil
}

func (r *UploadRepositoryImpl) FindByCategory(db *gorm.DB, category string, limit, offset int) ([]models.Upload, int64, error) {
	start := time.Now()
	byCategory := func(tx *gorm.DB) *gorm.DB {
		if category == "" {
			return tx
		}
		return tx.Where("category = ?", category)
	}

	var total int64
	if err := db.Model(&models.Upload{}).Scopes(byCategory).Count(&total).Error; err != nil {
		logger.DBLog("count", "uploads", time.Since(start), err)
		return nil, 0, err
	}

	var uploads []models.Upload
	err := db.Scopes(byCategory).Order("created_at DESC").Limit(limit).Offset(offset).Find(&uploads).Error
	logger.DBLog("find_by_category", "uploads", time.Since(start), err)
	if err != nil {
		return nil, 0, err
	}
	return uploads, total, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
