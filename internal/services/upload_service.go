package services

import (
	"context"
	"errors"
	"net/http"

	"campusnest_backend/internal/logger"
	"campusnest_backend/internal/models"
	"campusnest_backend/internal/repositories"
	"campusnest_backend/internal/upload"
	"campusnest_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListUploadsQuery is the registry listing filter. Handlers validate it; the
// service only clamps the page.
type ListUploadsQuery struct {
	Category string `form:"category" json:"category" validate:"omitempty,category_name"`
	Limit    int    `form:"limit" json:"limit" validate:"gte=0,lte=100"`
	Offset   int    `form:"offset" json:"offset" validate:"gte=0"`
}

type UploadList struct {
	Items  []models.Upload `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// UploadService keeps the registry of stored files. Every method accepts a
// nil db: recording becomes a no-op and lookups report the registry as
// disabled.
type UploadService interface {
	RecordUploads(ctx context.Context, db *gorm.DB, category, uploaderID string, files []upload.ProcessedFile) ([]*models.Upload, error)
	GetUpload(db *gorm.DB, uploadID string) (*models.Upload, error)
	ListUploads(db *gorm.DB, query ListUploadsQuery) (*UploadList, error)
}

type uploadService struct {
	uploadRepo repositories.UploadRepository
}

func NewUploadService(uploadRepo repositories.UploadRepository) UploadService {
	return &uploadService{
		uploadRepo: uploadRepo,
	}
}

func (s *uploadService) RecordUploads(ctx context.Context, db *gorm.DB, category, uploaderID string, files []upload.ProcessedFile) ([]*models.Upload, error) {
	if db == nil || len(files) == 0 {
		return nil, nil
	}

	records := make([]*models.Upload, 0, len(files))
	for _, f := range files {
		records = append(records, &models.Upload{
			Category:     category,
			UploaderID:   uploaderID,
			Field:        f.FieldName,
			Filename:     f.Filename,
			OriginalName: f.OriginalName,
			MimeType:     f.MimeType,
			Size:         f.Size,
			URL:          f.URL,
			StorageKey:   f.Key,
		})
	}

	if err := s.uploadRepo.CreateBatch(db.WithContext(ctx), records); err != nil {
		logger.CtxWithError(ctx, "failed to record uploads", err, "category", category, "files", len(files))
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "upload", "Failed to record uploads", http.StatusInternalServerError)
	}
	return records, nil
}

func (s *uploadService) GetUpload(db *gorm.DB, uploadID string) (*models.Upload, error) {
	if db == nil {
		return nil, apperrors.ErrRegistryDisabled
	}
	upload, err := s.uploadRepo.FindByID(db, uploadID)
	if err != nil {
		return nil, handleUploadError(err)
	}
	return upload, nil
}

func (s *uploadService) ListUploads(db *gorm.DB, query ListUploadsQuery) (*UploadList, error) {
	if db == nil {
		return nil, apperrors.ErrRegistryDisabled
	}
	if query.Limit <= 0 {
		query.Limit = DefaultListLimit
	}
	if query.Limit > MaxListLimit {
		query.Limit = MaxListLimit
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	items, total, err := s.uploadRepo.FindByCategory(db, query.Category, query.Limit, query.Offset)
	if err != nil {
		return nil, handleUploadError(err)
	}
	if items == nil {
		items = []models.Upload{}
	}
	return &UploadList{Items: items, Total: total, Limit: query.Limit, Offset: query.Offset}, nil
}

func handleUploadError(err error) error {
	if errors.Is(err, repositories.ErrUploadNotFound) {
		return apperrors.NewNotFoundError("Upload not found")
	}
	return apperrors.InternalError(err)
}
